package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/ayatbot/core/logger"
	"github.com/m3rciful/ayatbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes SendText and SendBatch through d. With nil they send
// synchronously.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// Outgoing is one message of an ordered batch.
type Outgoing struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// SendText sends plain text (no parse mode) to the chat of the update.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var markup *tele.ReplyMarkup
	if len(opts) > 0 && opts[0] != nil {
		markup = opts[0].ReplyMarkup
	}
	return send(c, "send.text", []Outgoing{{Text: text, Markup: markup}})
}

// SendBatch delivers messages in order as one queued job. A retried job
// resumes after the last message that went out.
func SendBatch(c tele.Context, items []Outgoing) error {
	return send(c, "send.batch", items)
}

func send(c tele.Context, action string, items []Outgoing) error {
	if len(items) == 0 {
		return nil
	}
	next := 0
	run := func() error {
		for ; next < len(items); next++ {
			it := items[next]
			if err := c.Send(it.Text, &tele.SendOptions{ReplyMarkup: it.Markup}); err != nil {
				return err
			}
		}
		return nil
	}

	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, "sendMessage", run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}
