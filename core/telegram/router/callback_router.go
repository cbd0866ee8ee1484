package router

import (
	"log/slog"

	tg "github.com/m3rciful/ayatbot/core/telegram"
	"github.com/m3rciful/ayatbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions configures CallbackRoute.
type CallbackOptions struct {
	// NotFound answers unknown keys when the registry has no fallback.
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches every callback query by its unique key. Queries
// the handler did not answer are answered empty to stop the client spinner.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		defer func() {
			if !callbacks.Responded(c) {
				_ = c.Respond()
			}
		}()

		key, _ := callbacks.ParseCallbackData(cb)
		name := "callback." + handlerName(key)
		h, ok := reg.Callback(key)
		if ok {
			return run(c, name, h, slog.String("cb_key", key))
		}

		fallback := reg.CallbackNotFound()
		if fallback == nil {
			fallback = opts.NotFound
		}
		if fallback == nil {
			skip(c, name, slog.String("cb_key", key), slog.String("reason", "not_found"))
			return nil
		}
		return run(c, name, fallback, slog.String("cb_key", key), slog.String("reason", "not_found"))
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
