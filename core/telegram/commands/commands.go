package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command with its menu description.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands run for telegram.admin_id only and stay off the menu.
	AdminOnly bool
	// Hidden commands work but are not published to the menu.
	Hidden bool
}

// Visible reports whether the command belongs in the Telegram command menu.
func (c Command) Visible() bool {
	return !c.Hidden && !c.AdminOnly
}
