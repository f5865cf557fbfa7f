package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"

	"agency_bot/internal/model"
	"agency_bot/internal/storage"
)

var testNow = time.Date(2025, 6, 18, 15, 30, 0, 0, time.UTC)

type sentMessage struct {
	ChatID int64
	Text   string
}

type mockSender struct {
	mu       sync.Mutex
	messages []sentMessage
}

func (m *mockSender) SendMessage(chatID int64, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{ChatID: chatID, Text: text})
}

func (m *mockSender) getMessages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]sentMessage, len(m.messages))
	copy(cp, m.messages)
	return cp
}

type mockSource struct {
	posts []model.SocialPost
	err   error
	calls atomic.Int32
}

func (m *mockSource) Posts(_ context.Context) ([]model.SocialPost, error) {
	m.calls.Add(1)
	return m.posts, m.err
}

func samplePosts() []model.SocialPost {
	return []model.SocialPost{
		{GUID: "p1", Platform: "twitter", Author: "@dana", Text: "Loving my TechCorp phone", Link: "https://x.example.com/1", PostedAt: time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)},
		{GUID: "p2", Platform: "instagram", Author: "@eli", Text: "techcorp at the beach #SummerSplash", Link: "https://ig.example.com/2", PostedAt: time.Date(2025, 6, 17, 9, 0, 0, 0, time.UTC)},
		{GUID: "p3", Platform: "twitter", Author: "@fay", Text: "nothing to do with anything", PostedAt: time.Date(2025, 6, 18, 11, 0, 0, 0, time.UTC)},
		{GUID: "p4", Platform: "twitter", Author: "@gus", Text: "TechCorp last year", PostedAt: time.Date(2024, 6, 18, 11, 0, 0, 0, time.UTC)},
	}
}

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedTracker(t *testing.T, store storage.Storage, id string, chatID int64, spec model.TrackerSpec) {
	t.Helper()
	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("encode spec: %v", err)
	}
	f := &model.SavedFilter{
		ID:        id,
		ChatID:    chatID,
		Kind:      model.DomainTracking,
		Name:      spec.Name,
		Query:     "track " + spec.Name,
		Filters:   data,
		CreatedAt: testNow,
	}
	if err := store.SaveFilter(context.Background(), f); err != nil {
		t.Fatalf("save tracker: %v", err)
	}
}

func techcorpSpec() model.TrackerSpec {
	return model.TrackerSpec{
		Name:      "TechCorp Tracking",
		Keywords:  []string{"techcorp"},
		Hashtags:  []string{},
		Platforms: []string{"instagram", "twitter"},
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestScheduler(store storage.Storage, source PostSource, sender Sender) *Scheduler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(store, source, sender, log)
	s.SetClock(func() time.Time { return testNow })
	s.SetSendLimit(rate.Inf, 1)
	return s
}

func TestSchedulerSendsNewMatches(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedTracker(t, store, "tr-1", 100, techcorpSpec())

	sender := &mockSender{}
	sched := newTestScheduler(store, &mockSource{posts: samplePosts()}, sender)
	sched.checkAll(ctx)

	msgs := sender.getMessages()
	if diff := cmp.Diff(2, len(msgs)); diff != "" {
		t.Fatalf("message count mismatch (-want +got):\n%s", diff)
	}
	for _, m := range msgs {
		if diff := cmp.Diff(int64(100), m.ChatID); diff != "" {
			t.Errorf("chatID mismatch (-want +got):\n%s", diff)
		}
		if !strings.HasPrefix(m.Text, "[TechCorp Tracking]") {
			t.Errorf("message does not name the tracker:\n%s", m.Text)
		}
	}
	if !strings.Contains(msgs[0].Text, "Loving my TechCorp phone") {
		t.Errorf("expected newest post first, got:\n%s", msgs[0].Text)
	}

	got, err := store.GetFilter(ctx, "tr-1")
	if err != nil {
		t.Fatalf("get tracker: %v", err)
	}
	if diff := cmp.Diff(2, got.ResultCount); diff != "" {
		t.Errorf("result count mismatch (-want +got):\n%s", diff)
	}

	seen, err := store.IsSeen(ctx, "tr-1", "p2")
	if err != nil {
		t.Fatalf("is seen: %v", err)
	}
	if !seen {
		t.Error("expected sent post to be marked seen")
	}
}

func TestSchedulerSkipsSeenItems(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedTracker(t, store, "tr-1", 100, techcorpSpec())

	if err := store.MarkSeen(ctx, "tr-1", "p1"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}

	sender := &mockSender{}
	sched := newTestScheduler(store, &mockSource{posts: samplePosts()}, sender)
	sched.checkAll(ctx)

	if diff := cmp.Diff(1, len(sender.getMessages())); diff != "" {
		t.Errorf("first check message count (-want +got):\n%s", diff)
	}

	sched.checkAll(ctx)
	if diff := cmp.Diff(1, len(sender.getMessages())); diff != "" {
		t.Errorf("second check should send nothing new (-want +got):\n%s", diff)
	}
}

func TestSchedulerTrackersAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedTracker(t, store, "tr-1", 100, techcorpSpec())

	splash := techcorpSpec()
	splash.Name = "Summer Splash Tracking"
	splash.Keywords = []string{}
	splash.Hashtags = []string{"#SummerSplash"}
	seedTracker(t, store, "tr-2", 200, splash)

	sender := &mockSender{}
	source := &mockSource{posts: samplePosts()}
	sched := newTestScheduler(store, source, sender)
	sched.checkAll(ctx)

	perChat := map[int64]int{}
	for _, m := range sender.getMessages() {
		perChat[m.ChatID]++
	}
	if diff := cmp.Diff(map[int64]int{100: 2, 200: 1}, perChat); diff != "" {
		t.Errorf("messages per chat mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(int32(1), source.calls.Load()); diff != "" {
		t.Errorf("posts should be fetched once per check (-want +got):\n%s", diff)
	}
}

func TestSchedulerInactiveTrackerSkipped(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	expired := techcorpSpec()
	expired.StartDate = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	expired.EndDate = time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	seedTracker(t, store, "tr-1", 100, expired)

	sender := &mockSender{}
	source := &mockSource{posts: samplePosts()}
	sched := newTestScheduler(store, source, sender)
	sched.checkAll(ctx)

	if diff := cmp.Diff(0, len(sender.getMessages())); diff != "" {
		t.Errorf("inactive tracker should not produce messages (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(int32(0), source.calls.Load()); diff != "" {
		t.Errorf("posts should not be fetched without active trackers (-want +got):\n%s", diff)
	}
}

func TestSchedulerSkipsUndecodableTracker(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedTracker(t, store, "tr-1", 100, techcorpSpec())

	broken := &model.SavedFilter{
		ID: "tr-bad", ChatID: 100, Kind: model.DomainTracking, Name: "broken",
		Filters: json.RawMessage(`"not an object"`), CreatedAt: testNow,
	}
	if err := store.SaveFilter(ctx, broken); err != nil {
		t.Fatalf("save broken tracker: %v", err)
	}

	sender := &mockSender{}
	sched := newTestScheduler(store, &mockSource{posts: samplePosts()}, sender)
	sched.checkAll(ctx)

	if diff := cmp.Diff(2, len(sender.getMessages())); diff != "" {
		t.Errorf("valid tracker should still run (-want +got):\n%s", diff)
	}
}

func TestSchedulerSourceError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedTracker(t, store, "tr-1", 100, techcorpSpec())

	sender := &mockSender{}
	sched := newTestScheduler(store, &mockSource{err: errors.New("feeds down")}, sender)
	sched.checkAll(ctx)

	if diff := cmp.Diff(0, len(sender.getMessages())); diff != "" {
		t.Errorf("expected no messages on fetch error (-want +got):\n%s", diff)
	}
}

func TestSchedulerCancelledContext(t *testing.T) {
	store := storage.NewMemory()
	seedTracker(t, store, "tr-1", 100, techcorpSpec())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := &mockSender{}
	sched := newTestScheduler(store, &mockSource{posts: samplePosts()}, sender)
	sched.checkAll(ctx)

	if diff := cmp.Diff(0, len(sender.getMessages())); diff != "" {
		t.Errorf("expected no messages when context cancelled (-want +got):\n%s", diff)
	}
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	sender := &mockSender{}

	sched := newTestScheduler(store, &mockSource{}, sender)
	sched.SetTickInterval(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
