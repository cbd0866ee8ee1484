package keyboard

import (
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// Grid lays buttons out perRow to a row, keeping their order.
func Grid(buttons []tele.Btn, perRow int) []tele.Row {
	perRow = max(perRow, 1)
	rows := make([]tele.Row, 0, (len(buttons)+perRow-1)/perRow)
	for len(buttons) > 0 {
		n := min(perRow, len(buttons))
		rows = append(rows, tele.Row(buttons[:n]))
		buttons = buttons[n:]
	}
	return rows
}

// Pager returns the previous/next row for page of pages. The buttons
// carry the target page number as payload of unique. It returns nil when
// there is nowhere to go.
func Pager(m *tele.ReplyMarkup, unique string, page, pages int, prevLabel, nextLabel string) tele.Row {
	var row tele.Row
	if page > 0 {
		row = append(row, m.Data(prevLabel, unique, strconv.Itoa(page-1)))
	}
	if page < pages-1 {
		row = append(row, m.Data(nextLabel, unique, strconv.Itoa(page+1)))
	}
	return row
}

// Cancel returns an inline keyboard with a single button for unique.
func Cancel(unique, label string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data(label, unique, "cancel")))
	return m
}
