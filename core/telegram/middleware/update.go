package middleware

import tele "gopkg.in/telebot.v4"

// UpdateKind names the update type the way rate_limit.exclude_updates
// spells it.
func UpdateKind(u tele.Update) string {
	switch {
	case u.Callback != nil:
		return "callback"
	case u.Query != nil:
		return "inline_query"
	case u.Message != nil, u.EditedMessage != nil:
		return "message"
	default:
		return "other"
	}
}
