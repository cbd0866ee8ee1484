package ui

import tele "gopkg.in/telebot.v4"

// NewArticleResult creates an inline ArticleResult. The description is the
// grey preview line shown under the title; markup may be nil.
func NewArticleResult(id, title, description, text string, markup *tele.ReplyMarkup) *tele.ArticleResult {
	result := &tele.ArticleResult{
		Title:       title,
		Description: description,
		Text:        text,
	}
	result.SetResultID(id)
	result.ReplyMarkup = markup
	return result
}
