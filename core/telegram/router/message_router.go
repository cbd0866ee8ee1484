package router

import (
	"strings"

	tg "github.com/m3rciful/ayatbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// FSM is the part of the state manager the text router needs.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions holds the answers for input nothing else handles.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes routes free text and documents. A user inside an FSM flow gets
// the flow's step handler; otherwise slash text falls back to the command of
// that name and everything else to opts.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	inFlow := func(c tele.Context) bool {
		return fsm != nil && c.Sender() != nil && fsm.InProgress(c.Sender().ID)
	}

	text := func(c tele.Context) error {
		if inFlow(c) {
			return run(c, "fsm", fsm.ManagerHandler)
		}
		if h, name, ok := commandFor(reg, c.Text()); ok {
			return run(c, name, h)
		}
		if opts.UnknownText != nil {
			return run(c, "unknown_text", opts.UnknownText)
		}
		skip(c, "unknown_text")
		return nil
	}

	document := func(c tele.Context) error {
		if inFlow(c) {
			return run(c, "fsm_document", fsm.ManagerHandler)
		}
		if opts.UnknownDocument != nil {
			return run(c, "unexpected_document", opts.UnknownDocument)
		}
		skip(c, "unexpected_document")
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: text},
		{Endpoint: tele.OnDocument, Handler: document},
	}
}

// commandFor resolves "/name args" typed as text. Admin-only commands are
// reachable through their own route only.
func commandFor(reg *tg.Registry, text string) (tele.HandlerFunc, string, bool) {
	if reg == nil || !strings.HasPrefix(text, "/") {
		return nil, "", false
	}
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	cmd, ok := reg.Command(name)
	if !ok || cmd.AdminOnly || cmd.Handler == nil {
		return nil, "", false
	}
	return cmd.Handler, handlerName(name), true
}
