package handlers

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ayatbot/core/telegram/callbacks"
	"github.com/m3rciful/ayatbot/core/telegram/format"
	tghelpers "github.com/m3rciful/ayatbot/core/telegram/helpers"
)

func (h *Handlers) browseChapters(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	page, _ := strconv.Atoi(callbacks.CallbackPayload(c))

	chapters, err := h.content.Chapters(ctx)
	if err != nil {
		return h.contentFailure(c, "chapters", err)
	}
	return replace(c, textChooseChapter, chapterListMarkup(chapters, page))
}

// showChapter sends the whole chapter as a series of messages, each with
// listen and bookmark buttons for its last verse.
func (h *Handlers) showChapter(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id, err := callbacks.PayloadInt(c)
	if err != nil || id < 1 || id > 114 {
		return fmt.Errorf("handlers: chapter: invalid payload %q", callbacks.CallbackPayload(c))
	}

	verses, err := h.content.ChapterVerses(ctx, id)
	if err != nil {
		return h.contentFailure(c, "chapter_verses", err)
	}
	groups := chunkVerses(verses, format.MessageLimit)
	items := make([]tghelpers.Outgoing, 0, len(groups))
	for _, g := range groups {
		items = append(items, tghelpers.Outgoing{Text: g.Text, Markup: verseGroupMarkup(id, g.LastVerse)})
	}
	return tghelpers.SendBatch(c, items)
}
