package router

import (
	"log/slog"

	tg "github.com/m3rciful/ayatbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// QueryRoute wraps the inline query handler with the summary line.
func QueryRoute(h tele.HandlerFunc) tg.Route {
	handler := func(c tele.Context) error {
		q := c.Query()
		if q == nil || h == nil {
			return nil
		}
		return run(c, "inline_query", h, slog.Int("query_len", len([]rune(q.Text))))
	}
	return tg.Route{Endpoint: tele.OnQuery, Handler: handler}
}
