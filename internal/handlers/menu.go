package handlers

import (
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ayatbot/core/logger"
	"github.com/m3rciful/ayatbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/ayatbot/core/telegram/helpers"
)

func (h *Handlers) start(c tele.Context) error {
	h.states.ClearState(userID(c))
	name := "بك"
	if u := c.Sender(); u != nil && strings.TrimSpace(u.FirstName) != "" {
		name = u.FirstName
	}
	return tghelpers.SendText(c, fmt.Sprintf(textWelcome, name), &tele.SendOptions{ReplyMarkup: mainMenuMarkup(h.developer)})
}

// menu shows the main menu, replacing the pressed message when called
// from a button.
func (h *Handlers) menu(c tele.Context) error {
	h.states.ClearState(userID(c))
	return replace(c, textMenu, mainMenuMarkup(h.developer))
}

func (h *Handlers) stats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	st, err := h.favorites.Stats(ctx)
	if err != nil {
		return fmt.Errorf("handlers: stats: %w", err)
	}
	logger.Info(ctx, "favorites", "stats",
		slog.Int("users", st.Users),
		slog.Int("entries", st.Entries),
	)
	return tghelpers.SendText(c, fmt.Sprintf(textStats, st.Users, st.Entries))
}

// UnknownText answers free text that is neither a command nor a search query.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, textUnknownInput)
	}
}

// UnknownDocument answers files the bot does not expect.
func (h *Handlers) UnknownDocument() tele.HandlerFunc {
	return h.UnknownText()
}

// UnknownCallback answers buttons from outdated keyboards.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return callbacks.Respond(c, &tele.CallbackResponse{Text: textUnknownAction})
	}
}
