package handlers

import (
	"fmt"
	"log/slog"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ayatbot/core/logger"
	"github.com/m3rciful/ayatbot/core/telegram/callbacks"
	"github.com/m3rciful/ayatbot/core/telegram/format"
	tghelpers "github.com/m3rciful/ayatbot/core/telegram/helpers"
	"github.com/m3rciful/ayatbot/internal/favorites"
	"github.com/m3rciful/ayatbot/internal/quran"
)

func (h *Handlers) addFavorite(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id, err := callbacks.PayloadInt(c)
	if err != nil || id <= 0 {
		return fmt.Errorf("handlers: favorite: invalid payload %q", callbacks.CallbackPayload(c))
	}
	verse, err := h.content.VerseByID(ctx, id)
	if err != nil {
		return h.contentFailure(c, "verse_by_id", err)
	}
	return h.bookmark(c, verse)
}

// addFavoriteByKey bookmarks the last verse of a chapter text message.
func (h *Handlers) addFavoriteByKey(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	key := callbacks.CallbackPayload(c)
	if _, _, err := quran.ParseVerseKey(key); err != nil {
		return fmt.Errorf("handlers: favorite: %w", err)
	}
	verse, err := h.content.VerseByKey(ctx, key)
	if err != nil {
		return h.contentFailure(c, "verse_by_key", err)
	}
	return h.bookmark(c, verse)
}

func (h *Handlers) bookmark(c tele.Context, v quran.Verse) error {
	ctx := tghelpers.BuildContext(c)
	user, err := userKey(c)
	if err != nil {
		return err
	}
	entry := favorites.Entry{
		VerseID:     v.ID,
		ChapterID:   v.ChapterID,
		VerseNumber: v.VerseNumber,
		Text:        v.TextUthmani,
	}
	changed, err := h.favorites.Add(ctx, user, entry)
	if err != nil {
		return h.storeFailure(c, "add", err)
	}
	logger.Info(ctx, "favorites", "bookmark",
		slog.Int("verse_id", v.ID),
		slog.String("verse_key", quran.VerseKey(v.ChapterID, v.VerseNumber)),
		slog.Bool("changed", changed),
	)

	if c.Callback() != nil && c.Callback().Message != nil {
		if err := c.Edit(&tele.ReplyMarkup{}); err != nil {
			logger.Debug(ctx, "tg", "edit.markup", slog.String("err", err.Error()))
		}
	}
	text := textFavoriteAdded
	if !changed {
		text = textFavoriteExists
	}
	return tghelpers.SendText(c, text)
}

func (h *Handlers) showFavorites(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user, err := userKey(c)
	if err != nil {
		return err
	}
	list, err := h.favorites.List(ctx, user)
	if err != nil {
		return h.storeFailure(c, "list", err)
	}
	if len(list) == 0 {
		return replace(c, textFavoritesEmpty, mainMenuMarkup(h.developer))
	}

	pages := paginateFavorites(list, format.MessageLimit)
	if err := replace(c, pages[0].Text, favoritesMarkup(pages[0].Entries)); err != nil {
		return err
	}
	rest := make([]tghelpers.Outgoing, 0, len(pages)-1)
	for _, p := range pages[1:] {
		rest = append(rest, tghelpers.Outgoing{Text: p.Text, Markup: favoritesMarkup(p.Entries)})
	}
	return tghelpers.SendBatch(c, rest)
}

func (h *Handlers) removeFavorite(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	payload := callbacks.CallbackPayload(c)
	id, err := strconv.Atoi(payload)
	if err != nil {
		return fmt.Errorf("handlers: remove: invalid payload %q", payload)
	}
	user, err := userKey(c)
	if err != nil {
		return err
	}
	removed, err := h.favorites.Remove(ctx, user, id)
	if err != nil {
		return h.storeFailure(c, "remove", err)
	}
	logger.Info(ctx, "favorites", "unbookmark",
		slog.Int("verse_id", id),
		slog.Bool("changed", removed),
	)
	return replace(c, textFavoriteGone, nil)
}
