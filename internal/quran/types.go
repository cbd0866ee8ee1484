package quran

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Chapter is a surah as listed by the chapters endpoint.
type Chapter struct {
	ID          int    `json:"id"`
	NameSimple  string `json:"name_simple"`
	NameArabic  string `json:"name_arabic"`
	VersesCount int    `json:"verses_count"`
}

// Verse carries the fields the bot consumes from the verse endpoints.
type Verse struct {
	ID          int    `json:"id"`
	ChapterID   int    `json:"chapter_id"`
	VerseNumber int    `json:"verse_number"`
	VerseKey    string `json:"verse_key"`
	TextUthmani string `json:"text_uthmani"`
}

// SearchResult is a single hit of the search endpoint. Text may contain
// <em> highlight tags.
type SearchResult struct {
	VerseID  int    `json:"verse_id"`
	VerseKey string `json:"verse_key"`
	Text     string `json:"text"`
}

// Tafsir is a commentary entry for one verse. Text is HTML.
type Tafsir struct {
	ResourceID   int    `json:"resource_id"`
	ResourceName string `json:"resource_name"`
	Text         string `json:"text"`
}

type chaptersResponse struct {
	Chapters []Chapter `json:"chapters"`
}

type pagination struct {
	CurrentPage  int  `json:"current_page"`
	NextPage     *int `json:"next_page"`
	TotalPages   int  `json:"total_pages"`
	TotalRecords int  `json:"total_records"`
}

type versesResponse struct {
	Verses     []Verse    `json:"verses"`
	Pagination pagination `json:"pagination"`
}

type verseResponse struct {
	Verse Verse `json:"verse"`
}

type searchResponse struct {
	Search struct {
		Query        string         `json:"query"`
		TotalResults int            `json:"total_results"`
		Results      []SearchResult `json:"results"`
	} `json:"search"`
}

type tafsirResponse struct {
	Tafsir Tafsir `json:"tafsir"`
}

// ErrNotFound matches API errors with a 404 status.
var ErrNotFound = errors.New("quran: not found")

// APIError reports a non-2xx answer of the content API.
type APIError struct {
	Endpoint string
	Status   int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quran: %s: unexpected status %d", e.Endpoint, e.Status)
}

// Code feeds the handler summary err_code field.
func (e *APIError) Code() string {
	if e.Status == http.StatusNotFound {
		return "content_not_found"
	}
	return "content_http_" + strconv.Itoa(e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// ParseVerseKey splits "chapter:verse" into its numbers.
func ParseVerseKey(key string) (int, int, error) {
	ch, vs, ok := strings.Cut(strings.TrimSpace(key), ":")
	if !ok {
		return 0, 0, fmt.Errorf("quran: invalid verse key %q", key)
	}
	chapter, err := strconv.Atoi(ch)
	if err != nil || chapter < 1 || chapter > 114 {
		return 0, 0, fmt.Errorf("quran: invalid chapter in verse key %q", key)
	}
	verse, err := strconv.Atoi(vs)
	if err != nil || verse < 1 {
		return 0, 0, fmt.Errorf("quran: invalid verse in verse key %q", key)
	}
	return chapter, verse, nil
}

// VerseKey formats a chapter/verse pair.
func VerseKey(chapter, verse int) string {
	return strconv.Itoa(chapter) + ":" + strconv.Itoa(verse)
}
