package handlers

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ayatbot/core/telegram/state"
	"github.com/m3rciful/ayatbot/internal/favorites"
)

const testUser int64 = 42

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Options{Favorites: failingRepo{}})
	require.Error(t, err)

	_, err = New(Options{Content: newFakeContent()})
	require.Error(t, err)

	h, err := New(Options{Content: newFakeContent(), Favorites: failingRepo{}})
	require.NoError(t, err)
	assert.Equal(t, 5, h.searchSize)
	assert.Equal(t, 16, h.tafsirID)
	assert.NotNil(t, h.States())
}

func TestStartGreetsUser(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	h.states.SetState(testUser, StateAwaitingQuery)

	c := newMessageContext(testUser, "/start")
	require.NoError(t, h.start(c))

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Amina")
	assert.Equal(t, state.StateIdle, h.states.GetState(testUser))
	assert.Len(t, c.lastMarkup(t).InlineKeyboard, 4, "browse, search, favorites, developer")
}

func TestStartWithoutFirstName(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	c := newMessageContext(testUser, "/start")
	c.update.Message.Sender.FirstName = " "

	require.NoError(t, h.start(c))
	assert.Contains(t, c.sent[0], "مرحباً بك")
}

func TestBrowseChaptersEditsPressedMessage(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	c := newCallbackContext(testUser, "\f"+cbBrowse)

	require.NoError(t, h.browseChapters(c))
	require.Len(t, c.edits, 1)
	assert.Equal(t, textChooseChapter, c.edits[0])
	assert.Empty(t, c.sent)
}

func TestShowChapterSendsVersesWithBookmark(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	c := newCallbackContext(testUser, "\f"+cbChapter+"|1")

	require.NoError(t, h.showChapter(c))
	require.Len(t, c.sent, 1)
	text := c.sent[0].(string)
	assert.True(t, strings.HasPrefix(text, "1. بِسْمِ"))
	assert.Contains(t, text, "\n2. ")

	row := c.lastMarkup(t).InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, "https://quran.com/1", row[0].URL)
	assert.Equal(t, cbAddFavoriteKey, row[1].Unique)
	assert.Equal(t, "1:2", row[1].Data)
}

func TestShowChapterRejectsBadPayload(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	for _, data := range []string{"\fsurah|0", "\fsurah|115", "\fsurah|abc"} {
		c := newCallbackContext(testUser, data)
		require.Error(t, h.showChapter(c), data)
		assert.Empty(t, c.sent)
	}
}

func TestShowChapterContentFailure(t *testing.T) {
	content := newFakeContent()
	content.err = assert.AnError
	h, _ := newTestHandlers(t, content, nil)
	c := newCallbackContext(testUser, "\fsurah|1")

	err := h.showChapter(c)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []any{textContentFailed}, c.sent)
}

func TestAddFavoriteByVerseID(t *testing.T) {
	h, store := newTestHandlers(t, newFakeContent(), nil)
	c := newCallbackContext(testUser, "\ffav|262")

	require.NoError(t, h.addFavorite(c))

	list, err := store.List(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, favorites.Entry{VerseID: 262, ChapterID: 2, VerseNumber: 255, Text: "ٱللَّهُ لَآ إِلَٰهَ إِلَّا هُوَ"}, list[0])

	assert.Equal(t, []any{textFavoriteAdded}, c.sent)
	require.Len(t, c.edits, 1)
	assert.IsType(t, &tele.ReplyMarkup{}, c.edits[0])
}

func TestAddFavoriteByKey(t *testing.T) {
	h, store := newTestHandlers(t, newFakeContent(), nil)
	c := newCallbackContext(testUser, "\ffav_key|1:2")

	require.NoError(t, h.addFavoriteByKey(c))

	list, err := store.List(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].VerseID)
	assert.Equal(t, 1, list[0].ChapterID)
}

func TestAddFavoriteKeepsDuplicatesByDefault(t *testing.T) {
	h, store := newTestHandlers(t, newFakeContent(), nil)
	for range 2 {
		require.NoError(t, h.addFavorite(newCallbackContext(testUser, "\ffav|262")))
	}
	list, err := store.List(context.Background(), "42")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAddFavoriteSkipPolicyReportsExisting(t *testing.T) {
	store := favorites.NewFileStore(filepath.Join(t.TempDir(), "favorites.json"), favorites.DuplicatesSkip)
	h, err := New(Options{Content: newFakeContent(), Favorites: store})
	require.NoError(t, err)

	require.NoError(t, h.addFavorite(newCallbackContext(testUser, "\ffav|262")))
	c := newCallbackContext(testUser, "\ffav|262")
	require.NoError(t, h.addFavorite(c))
	assert.Equal(t, []any{textFavoriteExists}, c.sent)
}

func TestAddFavoriteRejectsBadPayload(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	require.Error(t, h.addFavorite(newCallbackContext(testUser, "\ffav|x")))
	require.Error(t, h.addFavoriteByKey(newCallbackContext(testUser, "\ffav_key|115:1")))
}

func TestAddFavoriteSaveFailure(t *testing.T) {
	h, err := New(Options{Content: newFakeContent(), Favorites: failingRepo{}})
	require.NoError(t, err)
	c := newCallbackContext(testUser, "\ffav|262")

	err = h.addFavorite(c)
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, []any{textSaveFailed}, c.sent)
	assert.Empty(t, c.edits)
}

func TestRemoveFavorite(t *testing.T) {
	h, store := newTestHandlers(t, newFakeContent(), nil)
	ctx := context.Background()
	_, err := store.Add(ctx, "42", favorites.Entry{VerseID: 262, ChapterID: 2, VerseNumber: 255, Text: "a"})
	require.NoError(t, err)
	_, err = store.Add(ctx, "42", favorites.Entry{VerseID: 1, ChapterID: 1, VerseNumber: 1, Text: "b"})
	require.NoError(t, err)

	c := newCallbackContext(testUser, "\fremove|262")
	require.NoError(t, h.removeFavorite(c))

	list, err := store.List(ctx, "42")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].VerseID)
	assert.Equal(t, []any{textFavoriteGone}, c.edits)
}

func TestRemoveFavoriteUnknownUser(t *testing.T) {
	h, store := newTestHandlers(t, newFakeContent(), nil)
	c := newCallbackContext(testUser, "\fremove|262")

	require.NoError(t, h.removeFavorite(c))
	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.Users)
}

func TestRemoveFavoriteSaveFailure(t *testing.T) {
	h, err := New(Options{Content: newFakeContent(), Favorites: failingRepo{}})
	require.NoError(t, err)
	c := newCallbackContext(testUser, "\fremove|262")

	require.ErrorIs(t, h.removeFavorite(c), errDiskFull)
	assert.Equal(t, []any{textSaveFailed}, c.sent)
}

func TestFavoritesRequireSender(t *testing.T) {
	h, store := newTestHandlers(t, newFakeContent(), nil)
	anonymous := func(data string) *fakeContext {
		c := newCallbackContext(testUser, data)
		c.update.Callback.Sender = nil
		return c
	}

	require.ErrorIs(t, h.addFavorite(anonymous("\ffav|262")), errNoSender)
	require.ErrorIs(t, h.removeFavorite(anonymous("\fremove|262")), errNoSender)
	require.ErrorIs(t, h.showFavorites(anonymous("\fshow_favorites|")), errNoSender)

	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.Entries)
	_, ok := store.Load()[""]
	assert.False(t, ok)
}

func TestShowFavoritesEmpty(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	c := newMessageContext(testUser, "/favorites")

	require.NoError(t, h.showFavorites(c))
	assert.Equal(t, []any{textFavoritesEmpty}, c.sent)
}

func TestShowFavoritesListsEntries(t *testing.T) {
	h, store := newTestHandlers(t, newFakeContent(), nil)
	_, err := store.Add(context.Background(), "42", favorites.Entry{VerseID: 262, ChapterID: 2, VerseNumber: 255, Text: "ٱللَّهُ"})
	require.NoError(t, err)

	c := newMessageContext(testUser, "/favorites")
	require.NoError(t, h.showFavorites(c))

	require.Len(t, c.sent, 1)
	assert.Equal(t, "⭐ آياتك المفضلة:\n\n2:255 - ٱللَّهُ", c.sent[0])
	row := c.lastMarkup(t).InlineKeyboard[0]
	assert.Equal(t, cbRemove, row[0].Unique)
	assert.Equal(t, "262", row[0].Data)
	assert.Equal(t, "https://quran.com/2/255", row[1].URL)
}

func TestShowFavoritesSplitsLongLists(t *testing.T) {
	h, store := newTestHandlers(t, newFakeContent(), nil)
	ctx := context.Background()
	for i := 1; i <= favoritesPerPage+5; i++ {
		_, err := store.Add(ctx, "42", favorites.Entry{VerseID: i, ChapterID: 2, VerseNumber: i, Text: "آية"})
		require.NoError(t, err)
	}

	c := newCallbackContext(testUser, "\f"+cbFavorites)
	require.NoError(t, h.showFavorites(c))

	require.Len(t, c.edits, 1, "first page replaces the menu")
	require.Len(t, c.sent, 1, "remaining entries follow as a new message")
	assert.Len(t, c.lastMarkup(t).InlineKeyboard, 5)
}

func TestSearchFlow(t *testing.T) {
	content := newFakeContent()
	h, _ := newTestHandlers(t, content, nil)

	start := newCallbackContext(testUser, "\f"+cbSearch)
	require.NoError(t, h.startSearch(start))
	assert.Equal(t, []any{textSearchPrompt}, start.edits)
	assert.Equal(t, StateAwaitingQuery, h.states.GetState(testUser))

	query := newMessageContext(testUser, "  الله  ")
	require.NoError(t, h.onSearchQuery(query))

	assert.Equal(t, []string{"الله"}, content.queries)
	require.Len(t, query.sent, 1)
	assert.Equal(t, "سورة البقرة الآية 255:\n\nٱللَّهُ لَآ إِلَٰهَ", query.sent[0])
	row := query.lastMarkup(t).InlineKeyboard[0]
	assert.Equal(t, cbTafsir, row[0].Unique)
	assert.Equal(t, "2:255", row[0].Data)
	assert.Equal(t, cbAddFavorite, row[1].Unique)
	assert.Equal(t, "262", row[1].Data)
	assert.Equal(t, state.StateIdle, h.states.GetState(testUser))
}

func TestSearchNoResultsKeepsSearchMode(t *testing.T) {
	content := newFakeContent()
	content.search = nil
	h, _ := newTestHandlers(t, content, nil)
	h.states.SetState(testUser, StateAwaitingQuery)

	c := newMessageContext(testUser, "zzz")
	require.NoError(t, h.onSearchQuery(c))
	assert.Equal(t, []any{textNoResults}, c.sent)
	assert.Equal(t, StateAwaitingQuery, h.states.GetState(testUser))
}

func TestSearchContentFailureKeepsSearchMode(t *testing.T) {
	content := newFakeContent()
	content.err = assert.AnError
	h, _ := newTestHandlers(t, content, nil)
	h.states.SetState(testUser, StateAwaitingQuery)

	c := newMessageContext(testUser, "الله")
	require.ErrorIs(t, h.onSearchQuery(c), assert.AnError)
	assert.Equal(t, []any{textContentFailed}, c.sent)
	assert.Equal(t, StateAwaitingQuery, h.states.GetState(testUser))
}

func TestSearchEmptyQueryPromptsAgain(t *testing.T) {
	content := newFakeContent()
	h, _ := newTestHandlers(t, content, nil)

	c := newMessageContext(testUser, "   ")
	require.NoError(t, h.onSearchQuery(c))
	assert.Equal(t, []any{textSearchPrompt}, c.sent)
	assert.Empty(t, content.queries)
}

func TestCancelSearch(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	h.states.SetState(testUser, StateAwaitingQuery)

	c := newCallbackContext(testUser, "\f"+cbSearchCancel+"|cancel")
	require.NoError(t, h.cancelSearch(c))
	assert.Equal(t, state.StateIdle, h.states.GetState(testUser))
	assert.Equal(t, []any{textMenu}, c.edits)
}

func TestTafsirStripsMarkup(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	c := newCallbackContext(testUser, "\ftafsir|2:255")

	require.NoError(t, h.tafsir(c))
	assert.Equal(t, []any{"📘 تفسير الآية 2:255 (الميسر):\n\nالله لا معبود بحق إلا هو"}, c.sent)
}

func TestTafsirRejectsBadKey(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	c := newCallbackContext(testUser, "\ftafsir|nope")
	require.Error(t, h.tafsir(c))
	assert.Empty(t, c.sent)
}

func TestInlineQuery(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	c := newQueryContext(testUser, "الله")

	require.NoError(t, h.inlineQuery(c))
	require.Len(t, c.answers, 1)
	resp := c.answers[0]
	assert.Equal(t, inlineCacheSeconds, resp.CacheTime)
	require.Len(t, resp.Results, 1)

	article, ok := resp.Results[0].(*tele.ArticleResult)
	require.True(t, ok)
	assert.Equal(t, "262", article.ResultID())
	assert.Equal(t, "سورة البقرة الآية 255", article.Title)
	assert.NotContains(t, article.Text, "<em>")
}

func TestInlineQueryEmpty(t *testing.T) {
	content := newFakeContent()
	h, _ := newTestHandlers(t, content, nil)
	c := newQueryContext(testUser, " ")

	require.NoError(t, h.inlineQuery(c))
	require.Len(t, c.answers, 1)
	assert.Empty(t, c.answers[0].Results)
	assert.Empty(t, content.queries)
}

func TestStats(t *testing.T) {
	h, store := newTestHandlers(t, newFakeContent(), nil)
	ctx := context.Background()
	_, err := store.Add(ctx, "1", favorites.Entry{VerseID: 1, ChapterID: 1, VerseNumber: 1, Text: "a"})
	require.NoError(t, err)
	_, err = store.Add(ctx, "2", favorites.Entry{VerseID: 2, ChapterID: 1, VerseNumber: 2, Text: "b"})
	require.NoError(t, err)

	c := newMessageContext(testUser, "/stats")
	require.NoError(t, h.stats(c))
	assert.Equal(t, []any{"📊 الإحصائيات\nالمستخدمون: 2\nالآيات المحفوظة: 2"}, c.sent)
}

func TestUnknownCallbackResponds(t *testing.T) {
	h, _ := newTestHandlers(t, newFakeContent(), nil)
	c := newCallbackContext(testUser, "\fgone|1")

	require.NoError(t, h.UnknownCallback()(c))
	require.Len(t, c.responses, 1)
	assert.Equal(t, textUnknownAction, c.responses[0].Text)
}

func TestReplaceFallsBackToSend(t *testing.T) {
	c := newCallbackContext(testUser, "\f"+cbMainMenu)
	c.editErr = assert.AnError

	require.NoError(t, replace(c, textMenu, nil))
	assert.Equal(t, []any{textMenu}, c.sent)
}
