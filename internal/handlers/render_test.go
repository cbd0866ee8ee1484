package handlers

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ayatbot/core/telegram/format"
	"github.com/m3rciful/ayatbot/internal/favorites"
	"github.com/m3rciful/ayatbot/internal/quran"
)

func allChapters() []quran.Chapter {
	out := make([]quran.Chapter, 114)
	for i := range out {
		out[i] = quran.Chapter{ID: i + 1, NameSimple: "S" + strconv.Itoa(i+1), NameArabic: "س"}
	}
	return out
}

func TestChapterListMarkupPaging(t *testing.T) {
	chapters := allChapters()

	first := chapterListMarkup(chapters, 0)
	// 20 rows of chapters, a next button and the back row.
	require.Len(t, first.InlineKeyboard, 22)
	assert.Equal(t, "1", first.InlineKeyboard[0][0].Data)
	assert.Equal(t, "2", first.InlineKeyboard[0][1].Data)
	nav := first.InlineKeyboard[20]
	require.Len(t, nav, 1)
	assert.Equal(t, cbBrowse, nav[0].Unique)
	assert.Equal(t, "1", nav[0].Data)

	last := chapterListMarkup(chapters, 2)
	// 34 chapters in 17 rows, a previous button and the back row.
	require.Len(t, last.InlineKeyboard, 19)
	assert.Equal(t, "81", last.InlineKeyboard[0][0].Data)
	assert.Equal(t, "1", last.InlineKeyboard[17][0].Data)
	assert.Equal(t, cbMainMenu, last.InlineKeyboard[18][0].Unique)

	for _, m := range []int{0, 1, 2} {
		buttons := 0
		for _, row := range chapterListMarkup(chapters, m).InlineKeyboard {
			buttons += len(row)
		}
		assert.LessOrEqual(t, buttons, 100)
	}
}

func TestChapterListMarkupOutOfRangePage(t *testing.T) {
	m := chapterListMarkup(allChapters(), 9)
	assert.Equal(t, "1", m.InlineKeyboard[0][0].Data)
}

func TestChunkVerses(t *testing.T) {
	verses := []quran.Verse{
		{VerseNumber: 1, TextUthmani: "aaaa"},
		{VerseNumber: 2, TextUthmani: "bbbb"},
		{VerseNumber: 3, TextUthmani: "cccc"},
	}

	t.Run("fits in one message", func(t *testing.T) {
		groups := chunkVerses(verses, format.MessageLimit)
		require.Len(t, groups, 1)
		assert.Equal(t, "1. aaaa\n2. bbbb\n3. cccc\n", groups[0].Text)
		assert.Equal(t, 3, groups[0].LastVerse)
	})

	t.Run("splits before overflowing line", func(t *testing.T) {
		// each line is 8 runes
		groups := chunkVerses(verses, 17)
		require.Len(t, groups, 2)
		assert.Equal(t, "1. aaaa\n2. bbbb\n", groups[0].Text)
		assert.Equal(t, 2, groups[0].LastVerse)
		assert.Equal(t, "3. cccc\n", groups[1].Text)
		assert.Equal(t, 3, groups[1].LastVerse)
	})

	t.Run("oversized verse is truncated", func(t *testing.T) {
		long := []quran.Verse{{VerseNumber: 1, TextUthmani: strings.Repeat("ا", 50)}}
		groups := chunkVerses(long, 20)
		require.Len(t, groups, 1)
		assert.Equal(t, 20, format.RuneLen(groups[0].Text))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, chunkVerses(nil, format.MessageLimit))
	})
}

func TestPaginateFavorites(t *testing.T) {
	list := make([]favorites.Entry, 0, 90)
	for i := 1; i <= 90; i++ {
		list = append(list, favorites.Entry{VerseID: i, ChapterID: 3, VerseNumber: i, Text: "نص"})
	}

	pages := paginateFavorites(list, format.MessageLimit)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0].Entries, favoritesPerPage)
	assert.Len(t, pages[2].Entries, 10)
	assert.True(t, strings.HasPrefix(pages[0].Text, textFavoritesTitle))
	assert.False(t, strings.HasPrefix(pages[1].Text, textFavoritesTitle))

	total := 0
	for _, p := range pages {
		total += len(p.Entries)
		assert.LessOrEqual(t, format.RuneLen(p.Text), format.MessageLimit)
	}
	assert.Equal(t, 90, total)
}

func TestPaginateFavoritesByLength(t *testing.T) {
	text := strings.Repeat("ن", 1500)
	list := []favorites.Entry{
		{VerseID: 1, ChapterID: 1, VerseNumber: 1, Text: text},
		{VerseID: 2, ChapterID: 1, VerseNumber: 2, Text: text},
		{VerseID: 3, ChapterID: 1, VerseNumber: 3, Text: text},
	}
	pages := paginateFavorites(list, format.MessageLimit)
	require.Len(t, pages, 2)
	assert.Len(t, pages[0].Entries, 2)
	assert.Len(t, pages[1].Entries, 1)
}

func TestMainMenuMarkupWithoutDeveloper(t *testing.T) {
	m := mainMenuMarkup("")
	require.Len(t, m.InlineKeyboard, 3)
	assert.Equal(t, cbBrowse, m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, cbSearch, m.InlineKeyboard[1][0].Unique)
	assert.Equal(t, cbFavorites, m.InlineKeyboard[2][0].Unique)

	m = mainMenuMarkup("dev")
	assert.Equal(t, "https://t.me/dev", m.InlineKeyboard[3][0].URL)
}

func TestListenURL(t *testing.T) {
	assert.Equal(t, "https://quran.com/36", listenURL(36))
	assert.Equal(t, "https://quran.com/36/58", listenURL(36, 58))
	assert.Equal(t, "https://quran.com/36", listenURL(36, 0))
}
