package fetcher

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mmcdole/gofeed"

	"agency_bot/internal/interpret"
	"agency_bot/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
	calls      atomic.Int32
}

func (m *mockTransport) Do(_ *http.Request) (*http.Response, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

// routeTransport serves a different mock per URL.
type routeTransport map[string]*mockTransport

func (r routeTransport) Do(req *http.Request) (*http.Response, error) {
	m, ok := r[req.URL.String()]
	if !ok {
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(""))}, nil
	}
	return m.Do(req)
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func newTestFetcher(client HTTPClient) *Fetcher {
	f := New(client)
	f.retryBase = time.Millisecond
	return f
}

func TestFetch(t *testing.T) {
	xml := loadFixture(t, "testdata/media.xml")

	tests := []struct {
		name      string
		transport *mockTransport
		wantTitle string
		wantItems int
		wantCalls int32
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: xml, statusCode: 200},
			wantTitle: "TechCrunch",
			wantItems: 3,
			wantCalls: 1,
		},
		{
			name:      "http error status is not retried",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name:      "server error is retried",
			transport: &mockTransport{body: "oops", statusCode: 503},
			wantCalls: 1 + maxRetries,
			wantErr:   true,
		},
		{
			name:      "network error is retried",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantCalls: 1 + maxRetries,
			wantErr:   true,
		},
		{
			name:      "invalid xml",
			transport: &mockTransport{body: "not xml at all", statusCode: 200},
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFetcher(tt.transport)
			feed, err := f.Fetch(context.Background(), "https://example.com/rss")

			if diff := cmp.Diff(tt.wantCalls, tt.transport.calls.Load()); diff != "" {
				t.Errorf("call count mismatch (-want +got):\n%s", diff)
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.wantTitle, feed.Title); diff != "" {
				t.Errorf("title mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantItems, len(feed.Items)); diff != "" {
				t.Errorf("item count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchAll(t *testing.T) {
	media := loadFixture(t, "testdata/media.xml")
	social := loadFixture(t, "testdata/social.xml")

	client := routeTransport{
		"https://a.example.com/rss": {body: media, statusCode: 200},
		"https://b.example.com/rss": {body: "gone", statusCode: 410},
		"https://c.example.com/rss": {body: social, statusCode: 200},
	}
	sources := []model.Source{
		{Label: "Online News", URL: "https://a.example.com/rss"},
		{Label: "Blog", URL: "https://b.example.com/rss"},
		{Label: "twitter", URL: "https://c.example.com/rss"},
	}

	got, err := newTestFetcher(client).FetchAll(context.Background(), sources)
	if err == nil || !strings.Contains(err.Error(), "b.example.com") {
		t.Errorf("FetchAll() error = %v, want failure for b.example.com", err)
	}

	var urls []string
	for _, fd := range got {
		urls = append(urls, fd.Source.URL)
	}
	if diff := cmp.Diff([]string{"https://a.example.com/rss", "https://c.example.com/rss"}, urls); diff != "" {
		t.Errorf("fetched sources mismatch (-want +got):\n%s", diff)
	}
}

func TestItemGUID(t *testing.T) {
	tests := []struct {
		name     string
		item     *gofeed.Item
		wantGUID string
		hasHash  bool
	}{
		{
			name:     "with guid",
			item:     &gofeed.Item{GUID: "abc-123"},
			wantGUID: "abc-123",
		},
		{
			name:    "without guid generates hash",
			item:    &gofeed.Item{Title: "Post Without GUID", Link: "https://example.com/post-1"},
			hasHash: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ItemGUID(tt.item)
			if tt.hasHash {
				if !strings.HasPrefix(got, "sha256:") {
					t.Errorf("expected sha256 prefix, got %q", got)
				}
				return
			}
			if diff := cmp.Diff(tt.wantGUID, got); diff != "" {
				t.Errorf("GUID mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func parseFixture(t *testing.T, path string) *gofeed.Feed {
	t.Helper()
	feed, err := gofeed.NewParser().ParseString(loadFixture(t, path))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return feed
}

func TestMediaResults(t *testing.T) {
	fd := Fetched{
		Source: model.Source{Label: "Online News", URL: "https://techcrunch.com/feed/"},
		Feed:   parseFixture(t, "testdata/media.xml"),
	}

	got := MediaResults(fd, interpret.NewSentimentScorer(interpret.DefaultVocabulary()))

	want := []model.MediaResult{
		{
			GUID:        "tc-1001",
			Title:       "TechCorp raises Series B to expand its great developer platform",
			Summary:     "The round was excellent news for the team.",
			Link:        "https://techcrunch.com/2025/06/14/techcorp-series-b/",
			Outlet:      "TechCrunch",
			MediaType:   "Online News",
			Sentiment:   "positive",
			PublishedAt: time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC),
		},
		{
			GUID:        "tc-1002",
			Title:       "Backlash grows over TechCorp data policy",
			Summary:     "Critical voices say the change is bad for users.",
			Link:        "https://techcrunch.com/2025/06/16/techcorp-backlash/",
			Outlet:      "TechCrunch",
			MediaType:   "Online News",
			Sentiment:   "negative",
			PublishedAt: time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC),
		},
		{
			Title:       "Weekly funding roundup",
			Summary:     "Who raised what this week.",
			Link:        "https://techcrunch.com/2025/06/17/roundup/",
			Outlet:      "TechCrunch",
			MediaType:   "Online News",
			Sentiment:   "neutral",
			PublishedAt: time.Date(2025, 6, 17, 8, 0, 0, 0, time.UTC),
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(model.MediaResult{}, "GUID")); diff != "" {
		t.Errorf("MediaResults() mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(got[2].GUID, "sha256:") {
		t.Errorf("item without guid got GUID %q, want a hash", got[2].GUID)
	}
}

func TestMediaResultsReach(t *testing.T) {
	fd := Fetched{
		Source: model.Source{Label: "Blog", URL: "https://blog.example.com/rss"},
		Feed: &gofeed.Feed{Items: []*gofeed.Item{
			{GUID: "1", Custom: map[string]string{"reach": "12,500"}},
			{GUID: "2", Custom: map[string]string{"reach": "lots"}},
			{GUID: "3"},
		}},
	}

	got := MediaResults(fd, interpret.NewSentimentScorer(interpret.DefaultVocabulary()))

	var reach []int
	for _, r := range got {
		reach = append(reach, r.Reach)
	}
	if diff := cmp.Diff([]int{12_500, 0, 0}, reach); diff != "" {
		t.Errorf("reach mismatch (-want +got):\n%s", diff)
	}
	if got[0].Outlet != "https://blog.example.com/rss" {
		t.Errorf("outlet for untitled feed = %q, want the source URL", got[0].Outlet)
	}
}

func TestSocialPosts(t *testing.T) {
	fd := Fetched{
		Source: model.Source{Label: "twitter", URL: "https://social.example.com/rss"},
		Feed:   parseFixture(t, "testdata/social.xml"),
	}

	got := SocialPosts(fd)

	want := []model.SocialPost{
		{
			GUID:     "post-1",
			Platform: "twitter",
			Text:     "Loving the new TechCorp phone #SummerSplash at the beach with it",
			Link:     "https://social.example.com/p/1",
			PostedAt: time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC),
		},
		{
			GUID:     "post-2",
			Platform: "twitter",
			Author:   "@techcorp mentions",
			Text:     "Unrelated post nothing to see",
			Link:     "https://social.example.com/p/2",
			PostedAt: time.Date(2025, 6, 18, 11, 0, 0, 0, time.UTC),
		},
	}
	if diff := cmp.Diff(want[1], got[1]); diff != "" {
		t.Errorf("post without author mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want[0], got[0], cmpopts.IgnoreFields(model.SocialPost{}, "Author")); diff != "" {
		t.Errorf("post mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog(t *testing.T) {
	client := routeTransport{
		"https://a.example.com/rss": {body: loadFixture(t, "testdata/media.xml"), statusCode: 200},
		"https://c.example.com/rss": {body: loadFixture(t, "testdata/social.xml"), statusCode: 200},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	roster := []model.Influencer{{Handle: "@a", Platform: "tiktok"}}
	scorer := interpret.NewSentimentScorer(interpret.DefaultVocabulary())

	c := NewCatalog(newTestFetcher(client),
		[]model.Source{{Label: "Online News", URL: "https://a.example.com/rss"}, {Label: "Blog", URL: "https://dead.example.com/rss"}},
		[]model.Source{{Label: "twitter", URL: "https://c.example.com/rss"}},
		roster, scorer, log)

	ctx := context.Background()
	media, err := c.Media(ctx)
	if err != nil {
		t.Fatalf("media: %v", err)
	}
	if len(media) != 3 {
		t.Errorf("expected 3 media results with one dead feed, got %d", len(media))
	}

	posts, err := c.Posts(ctx)
	if err != nil {
		t.Fatalf("posts: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("expected 2 posts, got %d", len(posts))
	}

	infs, err := c.Influencers(ctx)
	if err != nil {
		t.Fatalf("influencers: %v", err)
	}
	infs[0].Handle = "@changed"
	if roster[0].Handle != "@a" {
		t.Error("Influencers() exposed the roster slice")
	}

	empty := NewCatalog(newTestFetcher(client), nil, []model.Source{{Label: "twitter", URL: "https://dead.example.com/rss"}}, nil, scorer, log)
	if _, err := empty.Media(ctx); err == nil {
		t.Error("expected error without media feeds")
	}
	if _, err := empty.Posts(ctx); err == nil {
		t.Error("expected error when every social feed fails")
	}
}
