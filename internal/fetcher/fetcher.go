// Package fetcher downloads RSS sources and converts their items into
// media coverage and social posts.
package fetcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"agency_bot/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Scorer labels text with a sentiment.
type Scorer interface {
	Score(text string) string
}

// Fetched is a successfully parsed source.
type Fetched struct {
	Source model.Source
	Feed   *gofeed.Feed
}

const (
	maxBodySize   = 5 * 1024 * 1024
	maxConcurrent = 4
	maxRetries    = 2
	summaryLimit  = 300
)

// Fetcher downloads and parses RSS feeds.
type Fetcher struct {
	client    HTTPClient
	timeout   time.Duration
	retryBase time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:    client,
		timeout:   30 * time.Second,
		retryBase: 500 * time.Millisecond,
	}
}

// Fetch downloads and parses an RSS feed from the given URL. Network errors
// and 5xx responses are retried with exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var body []byte
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(f.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		body, err = f.download(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "AgencyBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("http get: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, retry.RetryableError(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// FetchAll fetches sources concurrently. Failing sources are skipped and
// reported together in the returned error; the feeds that did load are
// returned in source order either way.
func (f *Fetcher) FetchAll(ctx context.Context, sources []model.Source) ([]Fetched, error) {
	feeds := make([]*gofeed.Feed, len(sources))
	var (
		mu   sync.Mutex
		errs []error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, src := range sources {
		g.Go(func() error {
			feed, err := f.Fetch(ctx, src.URL)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("fetch %s: %w", src.URL, err))
				mu.Unlock()
				return nil
			}
			feeds[i] = feed
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Fetched, 0, len(sources))
	for i, feed := range feeds {
		if feed != nil {
			out = append(out, Fetched{Source: sources[i], Feed: feed})
		}
	}
	return out, errors.Join(errs...)
}

// ItemGUID returns the GUID for an RSS item.
// If the item has no GUID, a SHA-256 hash of title+link is used.
func ItemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	h := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}

// MediaResults converts the items of a media source. The source label is
// the media type and the feed title is the outlet. Reach comes from a
// <reach> element when the feed provides one and is 0 (unknown) otherwise.
func MediaResults(fd Fetched, scorer Scorer) []model.MediaResult {
	outlet := strings.TrimSpace(fd.Feed.Title)
	if outlet == "" {
		outlet = fd.Source.URL
	}

	results := make([]model.MediaResult, 0, len(fd.Feed.Items))
	for _, item := range fd.Feed.Items {
		summary := plainText(item.Description)
		results = append(results, model.MediaResult{
			GUID:        ItemGUID(item),
			Title:       item.Title,
			Summary:     truncate(summary, summaryLimit),
			Link:        item.Link,
			Outlet:      outlet,
			MediaType:   fd.Source.Label,
			Sentiment:   scorer.Score(item.Title + " " + summary),
			Reach:       itemReach(item),
			PublishedAt: itemTime(item),
		})
	}
	return results
}

// SocialPosts converts the items of a social source. The source label is
// the platform.
func SocialPosts(fd Fetched) []model.SocialPost {
	posts := make([]model.SocialPost, 0, len(fd.Feed.Items))
	for _, item := range fd.Feed.Items {
		author := fd.Feed.Title
		if item.Author != nil && item.Author.Name != "" {
			author = item.Author.Name
		}
		text := strings.TrimSpace(item.Title + " " + plainText(item.Description))
		posts = append(posts, model.SocialPost{
			GUID:     ItemGUID(item),
			Platform: fd.Source.Label,
			Author:   author,
			Text:     text,
			Link:     item.Link,
			PostedAt: itemTime(item),
		})
	}
	return posts
}

func itemTime(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

func itemReach(item *gofeed.Item) int {
	raw := strings.ReplaceAll(strings.TrimSpace(item.Custom["reach"]), ",", "")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// plainText extracts the text of an HTML fragment and collapses whitespace.
func plainText(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("br, p, div, li").AppendHtml(" ")
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
