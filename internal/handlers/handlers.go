// Package handlers wires the bot conversation: menus, chapter browsing,
// search, tafsir and the favorites list.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ayatbot/core/logger"
	tg "github.com/m3rciful/ayatbot/core/telegram"
	"github.com/m3rciful/ayatbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/ayatbot/core/telegram/helpers"
	"github.com/m3rciful/ayatbot/core/telegram/router"
	"github.com/m3rciful/ayatbot/core/telegram/state"
	"github.com/m3rciful/ayatbot/internal/favorites"
	"github.com/m3rciful/ayatbot/internal/quran"
)

// Callback unique keys. The payload follows the "|" separator.
const (
	cbBrowse            = "browse_surahs"
	cbChapter           = "surah"
	cbSearch            = "search_verse"
	cbSearchCancel      = "search_cancel"
	cbFavorites         = "show_favorites"
	cbAddFavorite       = "fav"
	cbAddFavoriteKey    = "fav_key"
	cbRemove            = "remove"
	cbTafsir            = "tafsir"
	cbCheckSubscription = "check_subscription"
	cbMainMenu          = "main_menu"
)

// StateAwaitingQuery marks a user whose next text message is a search query.
const StateAwaitingQuery state.State = "search.awaiting_query"

// searchPromptTTL bounds how long an unanswered search prompt captures text.
const searchPromptTTL = 15 * time.Minute

// ContentAPI is the subset of the content client the handlers use.
type ContentAPI interface {
	Chapters(ctx context.Context) ([]quran.Chapter, error)
	Chapter(ctx context.Context, id int) (quran.Chapter, error)
	ChapterVerses(ctx context.Context, chapterID int) ([]quran.Verse, error)
	VerseByID(ctx context.Context, id int) (quran.Verse, error)
	VerseByKey(ctx context.Context, key string) (quran.Verse, error)
	Search(ctx context.Context, query string, size int) ([]quran.SearchResult, error)
	Tafsir(ctx context.Context, resourceID int, verseKey string) (quran.Tafsir, error)
}

// Options carries the handler dependencies.
type Options struct {
	Content   ContentAPI
	Favorites favorites.Repository
	States    state.Manager
	Gate      *SubscriptionGate

	DeveloperUsername string
	SearchSize        int
	TafsirID          int
}

// Handlers implements every bot endpoint.
type Handlers struct {
	content   ContentAPI
	favorites favorites.Repository
	states    state.Manager
	gate      *SubscriptionGate

	developer  string
	searchSize int
	tafsirID   int
}

// New validates the options and builds Handlers.
func New(opts Options) (*Handlers, error) {
	if opts.Content == nil {
		return nil, errors.New("handlers: content api is required")
	}
	if opts.Favorites == nil {
		return nil, errors.New("handlers: favorites repository is required")
	}
	states := opts.States
	if states == nil {
		states = state.NewMemoryManager(searchPromptTTL)
	}
	size := opts.SearchSize
	if size <= 0 {
		size = 5
	}
	tafsir := opts.TafsirID
	if tafsir <= 0 {
		tafsir = 16
	}
	return &Handlers{
		content:    opts.Content,
		favorites:  opts.Favorites,
		states:     states,
		gate:       opts.Gate,
		developer:  opts.DeveloperUsername,
		searchSize: size,
		tafsirID:   tafsir,
	}, nil
}

// States exposes the FSM manager so the text router can consult it.
func (h *Handlers) States() state.Manager {
	return h.states
}

// Register adds commands, callbacks and the search FSM step to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	if reg == nil {
		return errors.New("handlers: nil registry")
	}
	guard := h.gate.Guard

	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: guard(h.start), Description: "القائمة الرئيسية"}},
		{"/menu", commands.Command{Handler: guard(h.menu), Description: "عرض القائمة"}},
		{"/favorites", commands.Command{Handler: guard(h.showFavorites), Description: "آياتي المفضلة"}},
		{"/search", commands.Command{Handler: guard(h.startSearch), Description: "البحث عن آية"}},
		{"/stats", commands.Command{Handler: h.stats, Description: "إحصائيات المفضلة", AdminOnly: true}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return fmt.Errorf("handlers: %w", err)
		}
	}

	buttons := map[string]tele.HandlerFunc{
		cbBrowse:            guard(h.browseChapters),
		cbChapter:           guard(h.showChapter),
		cbSearch:            guard(h.startSearch),
		cbSearchCancel:      guard(h.cancelSearch),
		cbFavorites:         guard(h.showFavorites),
		cbAddFavorite:       guard(h.addFavorite),
		cbAddFavoriteKey:    guard(h.addFavoriteByKey),
		cbRemove:            guard(h.removeFavorite),
		cbTafsir:            guard(h.tafsir),
		cbMainMenu:          guard(h.menu),
		cbCheckSubscription: h.checkSubscription,
	}
	for key, fn := range buttons {
		if err := reg.RegisterCallback(key, fn); err != nil {
			return fmt.Errorf("handlers: %w", err)
		}
	}
	reg.SetCallbackNotFound(h.UnknownCallback())

	state.RegisterHandler(StateAwaitingQuery, guard(h.onSearchQuery))
	return nil
}

// Routes returns the endpoints that are not driven by the registry.
func (h *Handlers) Routes() []tg.Route {
	return []tg.Route{router.QueryRoute(h.gate.Guard(h.inlineQuery))}
}

// contentFailure tells the user the content service is unavailable and
// returns err for the handler summary.
func (h *Handlers) contentFailure(c tele.Context, op string, err error) error {
	ctx := tghelpers.BuildContext(c)
	logger.Warn(ctx, "tg", "content.unavailable",
		slog.String("op", op),
		slog.String("err", err.Error()),
	)
	_ = tghelpers.SendText(c, textContentFailed)
	return fmt.Errorf("handlers: %s: %w", op, err)
}

// storeFailure reports a favorites write that did not persist.
func (h *Handlers) storeFailure(c tele.Context, op string, err error) error {
	ctx := tghelpers.BuildContext(c)
	logger.Error(ctx, "favorites", "handler."+op,
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
	_ = tghelpers.SendText(c, textSaveFailed)
	return fmt.Errorf("handlers: %s: %w", op, err)
}

var errNoSender = errors.New("handlers: update has no sender")

// userKey returns the favorites key of the sender. Updates without a sender
// (channel posts, anonymous admins) have no favorites.
func userKey(c tele.Context) (string, error) {
	u := c.Sender()
	if u == nil {
		return "", errNoSender
	}
	return favorites.UserKey(u.ID), nil
}

func userID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

// replace edits the message behind a pressed button and falls back to a new
// message when there is nothing to edit or the edit is rejected.
func replace(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: markup}
	if c.Callback() != nil && c.Callback().Message != nil {
		err := c.Edit(text, opts)
		if err == nil {
			return nil
		}
		logger.Debug(tghelpers.BuildContext(c), "tg", "edit.fallback",
			slog.String("err", err.Error()),
		)
	}
	return tghelpers.SendText(c, text, opts)
}
