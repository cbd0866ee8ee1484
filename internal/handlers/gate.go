package handlers

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ayatbot/core/logger"
	"github.com/m3rciful/ayatbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/ayatbot/core/telegram/helpers"
)

// MemberLookup resolves the user's role in the channel.
type MemberLookup func(c tele.Context, channelID, userID int64) (tele.MemberStatus, error)

// BotMemberLookup asks Telegram through the bot that received the update.
// The bot must be an administrator of the channel.
func BotMemberLookup(c tele.Context, channelID, userID int64) (tele.MemberStatus, error) {
	member, err := c.Bot().ChatMemberOf(tele.ChatID(channelID), &tele.User{ID: userID})
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

// SubscriptionGate lets only channel members through. A nil gate or one
// without a channel id lets everybody through.
type SubscriptionGate struct {
	channelID int64
	channel   string
	lookup    MemberLookup
}

// NewSubscriptionGate builds a gate for the channel. lookup defaults to
// BotMemberLookup.
func NewSubscriptionGate(channelID int64, channelUsername string, lookup MemberLookup) *SubscriptionGate {
	if lookup == nil {
		lookup = BotMemberLookup
	}
	return &SubscriptionGate{channelID: channelID, channel: channelUsername, lookup: lookup}
}

// Enabled reports whether the gate checks membership at all.
func (g *SubscriptionGate) Enabled() bool {
	return g != nil && g.channelID != 0
}

// Subscribed reports whether the sender may use the bot. Users who left or
// were kicked are not subscribed. Lookup failures let the user through.
func (g *SubscriptionGate) Subscribed(c tele.Context) bool {
	if !g.Enabled() {
		return true
	}
	user := c.Sender()
	if user == nil {
		return true
	}
	status, err := g.lookup(c, g.channelID, user.ID)
	if err != nil {
		logger.Warn(tghelpers.BuildContext(c), "tg", "subscription.lookup",
			slog.String("status", "fail"),
			slog.Int64("channel_id", g.channelID),
			slog.String("err", err.Error()),
		)
		return true
	}
	return status != tele.Left && status != tele.Kicked
}

// Guard wraps next so it only runs for subscribed users.
func (g *SubscriptionGate) Guard(next tele.HandlerFunc) tele.HandlerFunc {
	if !g.Enabled() {
		return next
	}
	return func(c tele.Context) error {
		if g.Subscribed(c) {
			return next(c)
		}
		return g.reject(c)
	}
}

func (g *SubscriptionGate) reject(c tele.Context) error {
	logger.Info(tghelpers.BuildContext(c), "tg", "subscription.reject",
		slog.Int64("channel_id", g.channelID),
	)
	if c.Query() != nil {
		return c.Answer(&tele.QueryResponse{Results: tele.Results{}, IsPersonal: true})
	}
	if c.Callback() != nil {
		_ = callbacks.Respond(c, &tele.CallbackResponse{Text: textNotSubscribed})
	}
	return tghelpers.SendText(c, textNotSubscribed, &tele.SendOptions{ReplyMarkup: subscribeMarkup(g.channel)})
}

// checkSubscription re-checks membership after the user pressed the
// check button.
func (h *Handlers) checkSubscription(c tele.Context) error {
	if h.gate.Subscribed(c) {
		return h.start(c)
	}
	return callbacks.Respond(c, &tele.CallbackResponse{Text: textStillNotSubbed, ShowAlert: true})
}
