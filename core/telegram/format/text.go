// Package format holds plain-text helpers for message bodies.
package format

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MessageLimit keeps message bodies below Telegram's 4096 character cap
// with room for a header line.
const MessageLimit = 4000

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	blankRe = regexp.MustCompile(`\n{3,}`)
)

// StripTags removes HTML markup such as search highlights or tafsir
// paragraphs and unescapes entities.
func StripTags(s string) string {
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n\n").Replace(s)
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Truncate shortens s to at most limit runes, ending with an ellipsis when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	if limit == 1 {
		return "…"
	}
	return strings.TrimSpace(string(r[:limit-1])) + "…"
}

// RuneLen counts characters the way Telegram limits them.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
