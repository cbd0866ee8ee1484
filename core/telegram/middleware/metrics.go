package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const replyStatsKey = "reply_stats"

// replyStats counts what a handler sent back. Sends may finish on a sender
// worker after the handler returned, hence the atomics.
type replyStats struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

func (s *replyStats) record(opts []any) {
	s.messages.Add(1)
	if hasKeyboard(opts) {
		s.keyboard.Store(true)
	}
}

// metricsContext wraps tele.Context to count replies.
type metricsContext struct {
	tele.Context
	stats *replyStats
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) count(err error, opts []any) error {
	if err == nil {
		m.stats.record(opts)
	}
	return err
}

func (m metricsContext) Send(what any, opts ...any) error {
	return m.count(m.Context.Send(what, opts...), opts)
}

func (m metricsContext) Reply(what any, opts ...any) error {
	return m.count(m.Context.Reply(what, opts...), opts)
}

func (m metricsContext) Edit(what any, opts ...any) error {
	return m.count(m.Context.Edit(what, opts...), opts)
}

func (m metricsContext) EditOrSend(what any, opts ...any) error {
	return m.count(m.Context.EditOrSend(what, opts...), opts)
}

func (m metricsContext) EditOrReply(what any, opts ...any) error {
	return m.count(m.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware counts the messages a handler sends and whether
// any of them carried a keyboard. The handler.handled summary reports both.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, wrapped := c.(metricsContext); wrapped {
			return next(c)
		}
		stats := &replyStats{}
		c.Set(replyStatsKey, stats)
		return next(metricsContext{Context: c, stats: stats})
	}
}

// GetCounters returns the number of messages sent so far and whether any had a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	stats, ok := c.Get(replyStatsKey).(*replyStats)
	if !ok {
		return 0, false
	}
	return int(stats.messages.Load()), stats.keyboard.Load()
}
