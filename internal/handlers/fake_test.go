package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ayatbot/internal/favorites"
	"github.com/m3rciful/ayatbot/internal/quran"
)

// fakeContext records what the handlers send. Methods the handlers do not
// use fall through to the nil embedded interface and panic.
type fakeContext struct {
	tele.Context

	update    tele.Update
	store     map[string]any
	sent      []any
	sentOpts  []*tele.SendOptions
	edits     []any
	editErr   error
	responses []*tele.CallbackResponse
	answers   []*tele.QueryResponse
}

func newMessageContext(userID int64, text string) *fakeContext {
	user := &tele.User{ID: userID, FirstName: "Amina"}
	return &fakeContext{update: tele.Update{ID: 1, Message: &tele.Message{
		Sender: user,
		Chat:   &tele.Chat{ID: userID},
		Text:   text,
	}}}
}

func newCallbackContext(userID int64, data string) *fakeContext {
	user := &tele.User{ID: userID, FirstName: "Amina"}
	return &fakeContext{update: tele.Update{ID: 2, Callback: &tele.Callback{
		Sender:  user,
		Data:    data,
		Message: &tele.Message{ID: 7, Chat: &tele.Chat{ID: userID}},
	}}}
}

func newQueryContext(userID int64, text string) *fakeContext {
	return &fakeContext{update: tele.Update{ID: 3, Query: &tele.Query{
		Sender: &tele.User{ID: userID},
		Text:   text,
	}}}
}

func (f *fakeContext) Update() tele.Update        { return f.update }
func (f *fakeContext) Message() *tele.Message     { return f.update.Message }
func (f *fakeContext) Callback() *tele.Callback   { return f.update.Callback }
func (f *fakeContext) Query() *tele.Query         { return f.update.Query }
func (f *fakeContext) Get(key string) interface{} { return f.store[key] }

func (f *fakeContext) Set(key string, val interface{}) {
	if f.store == nil {
		f.store = make(map[string]any)
	}
	f.store[key] = val
}

func (f *fakeContext) Sender() *tele.User {
	switch {
	case f.update.Callback != nil:
		return f.update.Callback.Sender
	case f.update.Message != nil:
		return f.update.Message.Sender
	case f.update.Query != nil:
		return f.update.Query.Sender
	}
	return nil
}

func (f *fakeContext) Chat() *tele.Chat {
	switch {
	case f.update.Callback != nil && f.update.Callback.Message != nil:
		return f.update.Callback.Message.Chat
	case f.update.Message != nil:
		return f.update.Message.Chat
	}
	return nil
}

func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.sent = append(f.sent, what)
	f.sentOpts = append(f.sentOpts, sendOptions(opts))
	return nil
}

func (f *fakeContext) Edit(what interface{}, opts ...interface{}) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, what)
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	return nil
}

func (f *fakeContext) Answer(resp *tele.QueryResponse) error {
	f.answers = append(f.answers, resp)
	return nil
}

func sendOptions(opts []interface{}) *tele.SendOptions {
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so
		}
	}
	return nil
}

// lastMarkup returns the reply markup of the most recent send.
func (f *fakeContext) lastMarkup(t *testing.T) *tele.ReplyMarkup {
	t.Helper()
	require.NotEmpty(t, f.sentOpts)
	opts := f.sentOpts[len(f.sentOpts)-1]
	require.NotNil(t, opts)
	return opts.ReplyMarkup
}

type fakeContent struct {
	mu       sync.Mutex
	chapters []quran.Chapter
	verses   map[int][]quran.Verse
	byID     map[int]quran.Verse
	search   []quran.SearchResult
	tafsir   quran.Tafsir
	err      error
	queries  []string
}

func newFakeContent() *fakeContent {
	verse := quran.Verse{ID: 262, ChapterID: 2, VerseNumber: 255, VerseKey: "2:255", TextUthmani: "ٱللَّهُ لَآ إِلَٰهَ إِلَّا هُوَ"}
	return &fakeContent{
		chapters: []quran.Chapter{
			{ID: 1, NameSimple: "Al-Fatihah", NameArabic: "الفاتحة", VersesCount: 7},
			{ID: 2, NameSimple: "Al-Baqarah", NameArabic: "البقرة", VersesCount: 286},
		},
		verses: map[int][]quran.Verse{
			1: {
				{ID: 1, ChapterID: 1, VerseNumber: 1, VerseKey: "1:1", TextUthmani: "بِسْمِ ٱللَّهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ"},
				{ID: 2, ChapterID: 1, VerseNumber: 2, VerseKey: "1:2", TextUthmani: "ٱلْحَمْدُ لِلَّهِ رَبِّ ٱلْعَٰلَمِينَ"},
			},
		},
		byID:   map[int]quran.Verse{262: verse},
		search: []quran.SearchResult{{VerseID: 262, VerseKey: "2:255", Text: "<em>ٱللَّهُ</em> لَآ إِلَٰهَ"}},
		tafsir: quran.Tafsir{ResourceID: 16, ResourceName: "الميسر", Text: "<p>الله لا معبود بحق إلا هو</p>"},
	}
}

func (f *fakeContent) Chapters(context.Context) ([]quran.Chapter, error) {
	return f.chapters, f.err
}

func (f *fakeContent) Chapter(_ context.Context, id int) (quran.Chapter, error) {
	for _, ch := range f.chapters {
		if ch.ID == id {
			return ch, nil
		}
	}
	return quran.Chapter{}, quran.ErrNotFound
}

func (f *fakeContent) ChapterVerses(_ context.Context, id int) ([]quran.Verse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.verses[id], nil
}

func (f *fakeContent) VerseByID(_ context.Context, id int) (quran.Verse, error) {
	if f.err != nil {
		return quran.Verse{}, f.err
	}
	v, ok := f.byID[id]
	if !ok {
		return quran.Verse{}, &quran.APIError{Endpoint: "verses.by_id", Status: 404}
	}
	return v, nil
}

func (f *fakeContent) VerseByKey(_ context.Context, key string) (quran.Verse, error) {
	if f.err != nil {
		return quran.Verse{}, f.err
	}
	for _, v := range f.byID {
		if v.VerseKey == key {
			return v, nil
		}
	}
	for _, list := range f.verses {
		for _, v := range list {
			if v.VerseKey == key {
				return v, nil
			}
		}
	}
	return quran.Verse{}, &quran.APIError{Endpoint: "verses.by_key", Status: 404}
}

func (f *fakeContent) Search(_ context.Context, q string, _ int) ([]quran.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.search, f.err
}

func (f *fakeContent) Tafsir(context.Context, int, string) (quran.Tafsir, error) {
	return f.tafsir, f.err
}

// failingRepo fails every mutation with errDiskFull.
type failingRepo struct {
	favorites.Repository
}

var errDiskFull = errors.New("favorites: write: no space left on device")

func (failingRepo) Add(context.Context, string, favorites.Entry) (bool, error) {
	return false, errDiskFull
}

func (failingRepo) Remove(context.Context, string, int) (bool, error) {
	return false, errDiskFull
}

func newTestHandlers(t *testing.T, content *fakeContent, gate *SubscriptionGate) (*Handlers, *favorites.FileStore) {
	t.Helper()
	store := favorites.NewFileStore(filepath.Join(t.TempDir(), "favorites.json"), favorites.DuplicatesAllow)
	h, err := New(Options{
		Content:           content,
		Favorites:         store,
		Gate:              gate,
		DeveloperUsername: "dev",
	})
	require.NoError(t, err)
	return h, store
}
