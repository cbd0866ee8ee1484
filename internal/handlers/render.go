package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ayatbot/core/telegram/format"
	"github.com/m3rciful/ayatbot/core/telegram/keyboard"
	"github.com/m3rciful/ayatbot/internal/favorites"
	"github.com/m3rciful/ayatbot/internal/quran"
)

const (
	chaptersPerPage    = 40
	chaptersPerRow     = 2
	favoritesPerPage   = 40
	listenBaseURL      = "https://quran.com/"
	telegramProfileURL = "https://t.me/"
)

func listenURL(chapter int, verse ...int) string {
	u := listenBaseURL + strconv.Itoa(chapter)
	if len(verse) > 0 && verse[0] > 0 {
		u += "/" + strconv.Itoa(verse[0])
	}
	return u
}

func mainMenuMarkup(developer string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := []tele.Row{
		m.Row(m.Data(btnBrowse, cbBrowse)),
		m.Row(m.Data(btnSearch, cbSearch)),
		m.Row(m.Data(btnFavorites, cbFavorites)),
	}
	if developer != "" {
		rows = append(rows, m.Row(m.URL(btnDeveloper, telegramProfileURL+developer)))
	}
	m.Inline(rows...)
	return m
}

func backRow(m *tele.ReplyMarkup) tele.Row {
	return m.Row(m.Data(btnBack, cbMainMenu))
}

// chapterListMarkup renders one page of chapter buttons. Telegram caps
// inline keyboards at 100 buttons, so the 114 chapters are paged.
func chapterListMarkup(chapters []quran.Chapter, page int) *tele.ReplyMarkup {
	pages := (len(chapters) + chaptersPerPage - 1) / chaptersPerPage
	if page < 0 || page >= pages {
		page = 0
	}
	from := page * chaptersPerPage
	to := min(from+chaptersPerPage, len(chapters))

	m := &tele.ReplyMarkup{}
	buttons := make([]tele.Btn, 0, to-from)
	for _, ch := range chapters[from:to] {
		label := fmt.Sprintf("%d. %s (%s)", ch.ID, ch.NameArabic, ch.NameSimple)
		buttons = append(buttons, m.Data(label, cbChapter, strconv.Itoa(ch.ID)))
	}
	rows := keyboard.Grid(buttons, chaptersPerRow)
	if nav := keyboard.Pager(m, cbBrowse, page, pages, "« السابق", "التالي »"); len(nav) > 0 {
		rows = append(rows, nav)
	}
	m.Inline(append(rows, backRow(m))...)
	return m
}

// verseGroup is one message worth of chapter text.
type verseGroup struct {
	Text      string
	LastVerse int
}

// chunkVerses joins "{n}. {text}" lines into groups that stay within limit
// runes. A group is closed before the line that would overflow it.
func chunkVerses(verses []quran.Verse, limit int) []verseGroup {
	var (
		groups []verseGroup
		b      strings.Builder
		size   int
		last   int
	)
	flush := func() {
		groups = append(groups, verseGroup{Text: format.Truncate(b.String(), limit), LastVerse: last})
		b.Reset()
		size = 0
	}
	for _, v := range verses {
		line := fmt.Sprintf("%d. %s\n", v.VerseNumber, v.TextUthmani)
		n := format.RuneLen(line)
		if size > 0 && size+n > limit {
			flush()
		}
		b.WriteString(line)
		size += n
		last = v.VerseNumber
	}
	if size > 0 {
		flush()
	}
	return groups
}

func verseGroupMarkup(chapterID, lastVerse int) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(
		m.URL(btnListen, listenURL(chapterID)),
		m.Data(btnAddFavorite, cbAddFavoriteKey, quran.VerseKey(chapterID, lastVerse)),
	))
	return m
}

func searchResultText(chapterName string, verseNumber int, text string) string {
	return fmt.Sprintf(textSearchResult, chapterName, verseNumber, format.StripTags(text))
}

func searchResultMarkup(r quran.SearchResult) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(
		m.Data(btnTafsir, cbTafsir, r.VerseKey),
		m.Data(btnAddFavorite, cbAddFavorite, strconv.Itoa(r.VerseID)),
	))
	return m
}

func searchCancelMarkup() *tele.ReplyMarkup {
	return keyboard.Cancel(cbSearchCancel, btnCancel)
}

// favoritesPage is one message of the favorites list with its entries.
type favoritesPage struct {
	Text    string
	Entries []favorites.Entry
}

func favoriteLine(e favorites.Entry) string {
	return fmt.Sprintf("%d:%d - %s\n\n", e.ChapterID, e.VerseNumber, e.Text)
}

// paginateFavorites splits the list so each message stays within limit
// runes and carries at most favoritesPerPage entries.
func paginateFavorites(list []favorites.Entry, limit int) []favoritesPage {
	var (
		pages []favoritesPage
		cur   favoritesPage
		b     strings.Builder
	)
	b.WriteString(textFavoritesTitle)
	size := format.RuneLen(textFavoritesTitle)
	for _, e := range list {
		line := favoriteLine(e)
		n := format.RuneLen(line)
		if len(cur.Entries) > 0 && (size+n > limit || len(cur.Entries) >= favoritesPerPage) {
			cur.Text = format.Truncate(strings.TrimSpace(b.String()), limit)
			pages = append(pages, cur)
			cur = favoritesPage{}
			b.Reset()
			size = 0
		}
		b.WriteString(line)
		size += n
		cur.Entries = append(cur.Entries, e)
	}
	if len(cur.Entries) > 0 {
		cur.Text = format.Truncate(strings.TrimSpace(b.String()), limit)
		pages = append(pages, cur)
	}
	return pages
}

func favoritesMarkup(entries []favorites.Entry) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, m.Row(
			m.Data(fmt.Sprintf(btnRemove, e.ChapterID, e.VerseNumber), cbRemove, strconv.Itoa(e.VerseID)),
			m.URL(btnListen, listenURL(e.ChapterID, e.VerseNumber)),
		))
	}
	m.Inline(rows...)
	return m
}

func subscribeMarkup(channel string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.URL(btnSubscribe, telegramProfileURL+channel)),
		m.Row(m.Data(btnCheck, cbCheckSubscription)),
	)
	return m
}
