// Package quran is a small client for the api.quran.com v4 content API.
// Only the fields the bot renders are decoded.
package quran

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/m3rciful/ayatbot/core/logger"
)

const (
	// DefaultBaseURL is the public v4 endpoint.
	DefaultBaseURL = "https://api.quran.com/api/v4"

	versesPerPage  = 50
	pageFetchLimit = 4
	maxErrorBody   = 512
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL    string
	Language   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client calls the content API. The chapter list is cached after the first
// successful fetch.
type Client struct {
	baseURL  string
	language string
	http     *http.Client
	timeout  time.Duration

	group    singleflight.Group
	mu       sync.RWMutex
	chapters []Chapter
}

// NewClient builds a Client.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	lang := opts.Language
	if lang == "" {
		lang = "ar"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:  base,
		language: lang,
		http:     hc,
		timeout:  opts.Timeout,
	}
}

// Chapters returns all 114 chapters in order.
func (c *Client) Chapters(ctx context.Context) ([]Chapter, error) {
	c.mu.RLock()
	cached := c.chapters
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := c.group.Do("chapters", func() (any, error) {
		var resp chaptersResponse
		q := url.Values{"language": {c.language}}
		if err := c.getJSON(ctx, "chapters", "/chapters", q, &resp); err != nil {
			return nil, err
		}
		if len(resp.Chapters) == 0 {
			return nil, fmt.Errorf("quran: chapters: empty list")
		}
		c.mu.Lock()
		c.chapters = resp.Chapters
		c.mu.Unlock()
		return resp.Chapters, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Chapter), nil
}

// Chapter looks a chapter up by id in the cached list.
func (c *Client) Chapter(ctx context.Context, id int) (Chapter, error) {
	list, err := c.Chapters(ctx)
	if err != nil {
		return Chapter{}, err
	}
	for _, ch := range list {
		if ch.ID == id {
			return ch, nil
		}
	}
	return Chapter{}, fmt.Errorf("quran: chapter %d: %w", id, ErrNotFound)
}

// ChapterVerses returns every verse of the chapter in order. The first page
// tells how many pages follow; the rest are fetched concurrently.
func (c *Client) ChapterVerses(ctx context.Context, chapterID int) ([]Verse, error) {
	path := "/verses/by_chapter/" + strconv.Itoa(chapterID)
	first, err := c.versesPage(ctx, path, 1)
	if err != nil {
		return nil, err
	}
	total := first.Pagination.TotalPages
	if total <= 1 || first.Pagination.NextPage == nil {
		return fillChapter(first.Verses, chapterID), nil
	}

	pages := make([][]Verse, total)
	pages[0] = first.Verses
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pageFetchLimit)
	for page := 2; page <= total; page++ {
		g.Go(func() error {
			resp, err := c.versesPage(gctx, path, page)
			if err != nil {
				return err
			}
			pages[page-1] = resp.Verses
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Verse, 0, first.Pagination.TotalRecords)
	for _, p := range pages {
		out = append(out, p...)
	}
	return fillChapter(out, chapterID), nil
}

func (c *Client) versesPage(ctx context.Context, path string, page int) (versesResponse, error) {
	var resp versesResponse
	q := url.Values{
		"language": {c.language},
		"fields":   {"text_uthmani"},
		"per_page": {strconv.Itoa(versesPerPage)},
		"page":     {strconv.Itoa(page)},
	}
	err := c.getJSON(ctx, "verses.by_chapter", path, q, &resp)
	return resp, err
}

// VerseByID fetches a single verse by its global id.
func (c *Client) VerseByID(ctx context.Context, id int) (Verse, error) {
	return c.verse(ctx, "verses.by_id", "/verses/by_id/"+strconv.Itoa(id))
}

// VerseByKey fetches a single verse by its "chapter:verse" key.
func (c *Client) VerseByKey(ctx context.Context, key string) (Verse, error) {
	if _, _, err := ParseVerseKey(key); err != nil {
		return Verse{}, err
	}
	return c.verse(ctx, "verses.by_key", "/verses/by_key/"+key)
}

func (c *Client) verse(ctx context.Context, endpoint, path string) (Verse, error) {
	var resp verseResponse
	q := url.Values{
		"language": {c.language},
		"fields":   {"text_uthmani,chapter_id"},
	}
	if err := c.getJSON(ctx, endpoint, path, q, &resp); err != nil {
		return Verse{}, err
	}
	v := resp.Verse
	if v.ChapterID == 0 {
		if ch, _, err := ParseVerseKey(v.VerseKey); err == nil {
			v.ChapterID = ch
		}
	}
	return v, nil
}

// Search runs a full text search and returns at most size results.
func (c *Client) Search(ctx context.Context, query string, size int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	var resp searchResponse
	q := url.Values{
		"q":        {query},
		"size":     {strconv.Itoa(size)},
		"language": {c.language},
	}
	if err := c.getJSON(ctx, "search", "/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Search.Results, nil
}

// Tafsir returns the commentary of resourceID for one verse.
func (c *Client) Tafsir(ctx context.Context, resourceID int, verseKey string) (Tafsir, error) {
	if _, _, err := ParseVerseKey(verseKey); err != nil {
		return Tafsir{}, err
	}
	var resp tafsirResponse
	path := "/tafsirs/" + strconv.Itoa(resourceID) + "/by_ayah/" + verseKey
	if err := c.getJSON(ctx, "tafsirs.by_ayah", path, nil, &resp); err != nil {
		return Tafsir{}, err
	}
	return resp.Tafsir, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("quran: %s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logRequest(ctx, endpoint, 0, start, err)
		return fmt.Errorf("quran: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Endpoint: endpoint, Status: resp.StatusCode}
		logRequest(ctx, endpoint, resp.StatusCode, start, apiErr,
			slog.String("body", logger.SanitizeLimit(string(body), 200)))
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logRequest(ctx, endpoint, resp.StatusCode, start, err)
		return fmt.Errorf("quran: %s: decode: %w", endpoint, err)
	}
	logRequest(ctx, endpoint, resp.StatusCode, start, nil)
	return nil
}

func logRequest(ctx context.Context, endpoint string, status int, start time.Time, err error, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("endpoint", endpoint),
		slog.Int("http_status", status),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	attrs = append(attrs, extra...)
	if err != nil {
		logger.Warn(ctx, "content.api", "request",
			append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))...)
		return
	}
	logger.Debug(ctx, "content.api", "request", append(attrs, slog.String("status", "ok"))...)
}

func fillChapter(verses []Verse, chapterID int) []Verse {
	for i := range verses {
		if verses[i].ChapterID == 0 {
			verses[i].ChapterID = chapterID
		}
	}
	return verses
}
