package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ayatbot/core/logger"
	"github.com/m3rciful/ayatbot/core/telegram/callbacks"
	"github.com/m3rciful/ayatbot/core/telegram/format"
	tghelpers "github.com/m3rciful/ayatbot/core/telegram/helpers"
	"github.com/m3rciful/ayatbot/core/telegram/ui"
	"github.com/m3rciful/ayatbot/internal/quran"
)

const inlineCacheSeconds = 300

// startSearch puts the user in search mode; the next text message is the query.
func (h *Handlers) startSearch(c tele.Context) error {
	h.states.SetState(userID(c), StateAwaitingQuery)
	return replace(c, textSearchPrompt, searchCancelMarkup())
}

func (h *Handlers) cancelSearch(c tele.Context) error {
	h.states.ClearState(userID(c))
	return replace(c, textMenu, mainMenuMarkup(h.developer))
}

// onSearchQuery runs while the user is in search mode. Search mode ends
// once results were delivered and stays on when nothing matched.
func (h *Handlers) onSearchQuery(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	query := strings.TrimSpace(c.Text())
	if query == "" {
		return tghelpers.SendText(c, textSearchPrompt, &tele.SendOptions{ReplyMarkup: searchCancelMarkup()})
	}

	results, err := h.content.Search(ctx, query, h.searchSize)
	if err != nil {
		return h.contentFailure(c, "search", err)
	}
	logger.Debug(ctx, "tg", "search.done",
		slog.Int("results", len(results)),
		slog.Int("query_len", format.RuneLen(query)),
	)
	if len(results) == 0 {
		return tghelpers.SendText(c, textNoResults)
	}

	items := make([]tghelpers.Outgoing, 0, len(results))
	for _, r := range results {
		items = append(items, tghelpers.Outgoing{
			Text:   h.renderResult(ctx, r),
			Markup: searchResultMarkup(r),
		})
	}
	h.states.ClearState(userID(c))
	return tghelpers.SendBatch(c, items)
}

// renderResult formats a hit with its chapter name. The chapter number is
// used when the chapter list is unavailable.
func (h *Handlers) renderResult(ctx context.Context, r quran.SearchResult) string {
	chapter, verse, err := quran.ParseVerseKey(r.VerseKey)
	if err != nil {
		return format.StripTags(r.Text)
	}
	name := strconv.Itoa(chapter)
	if ch, err := h.content.Chapter(ctx, chapter); err == nil {
		name = ch.NameArabic
	}
	return searchResultText(name, verse, r.Text)
}

func (h *Handlers) tafsir(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	key := callbacks.CallbackPayload(c)
	if _, _, err := quran.ParseVerseKey(key); err != nil {
		return fmt.Errorf("handlers: tafsir: %w", err)
	}

	t, err := h.content.Tafsir(ctx, h.tafsirID, key)
	if err != nil {
		return h.contentFailure(c, "tafsir", err)
	}
	header := fmt.Sprintf(textTafsirHeader, key, t.ResourceName)
	body := format.Truncate(format.StripTags(t.Text), format.MessageLimit-format.RuneLen(header))
	return tghelpers.SendText(c, header+body)
}

// inlineQuery answers "@bot <query>" with one article per search hit.
func (h *Handlers) inlineQuery(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	query := strings.TrimSpace(c.Query().Text)
	if query == "" {
		return c.Answer(&tele.QueryResponse{Results: tele.Results{}, CacheTime: inlineCacheSeconds})
	}

	hits, err := h.content.Search(ctx, query, h.searchSize)
	if err != nil {
		logger.Warn(ctx, "tg", "content.unavailable",
			slog.String("op", "inline_search"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("handlers: inline search: %w", err)
	}

	results := make(tele.Results, 0, len(hits))
	for _, r := range hits {
		text := h.renderResult(ctx, r)
		title, _, _ := strings.Cut(text, ":\n\n")
		results = append(results, ui.NewArticleResult(
			strconv.Itoa(r.VerseID),
			title,
			format.Truncate(format.StripTags(r.Text), 100),
			text,
			nil,
		))
	}
	return c.Answer(&tele.QueryResponse{Results: results, CacheTime: inlineCacheSeconds})
}
