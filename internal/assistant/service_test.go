package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"agency_bot/internal/interpret"
	"agency_bot/internal/model"
	"agency_bot/internal/storage"
)

var testNow = time.Date(2025, 6, 18, 15, 30, 0, 0, time.UTC)

type fakeCatalog struct {
	media       []model.MediaResult
	influencers []model.Influencer
	posts       []model.SocialPost
	err         error
}

func (f *fakeCatalog) Media(context.Context) ([]model.MediaResult, error) { return f.media, f.err }
func (f *fakeCatalog) Influencers(context.Context) ([]model.Influencer, error) {
	return f.influencers, f.err
}
func (f *fakeCatalog) Posts(context.Context) ([]model.SocialPost, error) { return f.posts, f.err }

func newTestService(t *testing.T, catalog Catalog) (*Service, storage.Storage) {
	t.Helper()
	store := storage.NewMemory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(store, catalog, interpret.DefaultVocabulary(), interpret.FallbackNone, log)
	s.SetClock(func() time.Time { return testNow })

	n := 0
	s.SetIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
	return s, store
}

func TestInterpretSetsCurrent(t *testing.T) {
	s, _ := newTestService(t, nil)

	if _, ok := s.Current(1); ok {
		t.Fatal("expected no current filter before the first query")
	}

	c, err := s.Interpret(1, model.DomainInfluencer, "Find tech YouTubers with over 100k subscribers")
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if diff := cmp.Diff("tech", c.Query()); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(0.3, c.Confidence()); diff != "" {
		t.Errorf("confidence mismatch (-want +got):\n%s", diff)
	}

	got, ok := s.Current(1)
	if !ok {
		t.Fatal("expected a current filter")
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("current mismatch (-want +got):\n%s", diff)
	}

	if _, ok := s.Current(2); ok {
		t.Error("current filter leaked to another chat")
	}

	if _, err := s.Interpret(1, model.Domain("weather"), "sunny"); err == nil {
		t.Error("expected error for an unknown kind")
	}
}

func TestSaveListDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)

	if _, err := s.Save(ctx, 1, "nothing yet", ""); !errors.Is(err, ErrNoCurrent) {
		t.Fatalf("Save without current error = %v, want ErrNoCurrent", err)
	}

	text := "Track mentions of TechCorp on Instagram and Twitter for 30 days"
	if _, err := s.Interpret(1, model.DomainTracking, text); err != nil {
		t.Fatalf("interpret: %v", err)
	}

	if _, err := s.Save(ctx, 1, "  ", ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("Save with blank name error = %v, want ErrEmptyName", err)
	}

	saved, err := s.Save(ctx, 1, "TechCorp social", " launch month ")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	want := model.SavedFilter{
		ID:          "id-1",
		ChatID:      1,
		Kind:        model.DomainTracking,
		Name:        "TechCorp social",
		Description: "launch month",
		Query:       text,
		CreatedAt:   testNow,
	}
	if diff := cmp.Diff(want, *saved, cmpopts.IgnoreFields(model.SavedFilter{}, "Filters")); diff != "" {
		t.Errorf("saved filter mismatch (-want +got):\n%s", diff)
	}

	list, err := s.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != saved.ID {
		t.Fatalf("List after save = %+v, want the saved filter", list)
	}

	ok, err := s.Delete(ctx, 1, saved.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Error("Delete of an existing filter = false, want true")
	}

	list, err = s.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List after delete has %d filters, want 0", len(list))
	}

	ok, err = s.Delete(ctx, 1, "does-not-exist")
	if err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if ok {
		t.Error("Delete of a missing id = true, want false")
	}

	if cur, _ := s.Current(1); cur.SavedID != "" {
		t.Errorf("current still points at deleted filter %q", cur.SavedID)
	}
}

func TestDeleteOtherChatsFilter(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)

	if _, err := s.Interpret(1, model.DomainMedia, "positive Wired coverage"); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	saved, err := s.Save(ctx, 1, "wired", "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	ok, err := s.Delete(ctx, 2, saved.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok {
		t.Error("another chat deleted the filter")
	}
	if _, err := s.Load(ctx, 2, saved.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load from another chat error = %v, want ErrNotFound", err)
	}
}

func TestLoadRestoresFields(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)

	orig, err := s.Interpret(1, model.DomainMedia, "Show me positive TechCrunch articles from last week")
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	saved, err := s.Save(ctx, 1, "tc weekly", "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := s.Interpret(1, model.DomainInfluencer, "gaming creators"); err != nil {
		t.Fatalf("interpret: %v", err)
	}

	loaded, err := s.Load(ctx, 1, saved.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(orig.Media.Fields, loaded.Media.Fields); diff != "" {
		t.Errorf("restored fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(saved.ID, loaded.SavedID); diff != "" {
		t.Errorf("saved id mismatch (-want +got):\n%s", diff)
	}

	cur, _ := s.Current(1)
	if cur.Kind != model.DomainMedia {
		t.Errorf("current kind = %q after load, want media", cur.Kind)
	}
}

func TestRunAppliesCurrentFilter(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		influencers: []model.Influencer{
			{Handle: "@gadgetgrace", Platform: "youtube", Category: "technology", Followers: 420_000, Engagement: 3.1, Internal: true},
			{Handle: "@techtom", Platform: "youtube", Category: "technology", Followers: 1_200_000, Engagement: 2.4, Internal: true},
			{Handle: "@smallbytes", Platform: "youtube", Category: "technology", Followers: 40_000, Engagement: 5.0, Internal: true},
			{Handle: "@chefchloe", Platform: "instagram", Category: "food", Followers: 300_000, Engagement: 4.0, Internal: true},
		},
	}
	s, store := newTestService(t, catalog)

	if _, err := s.Run(ctx, 1); !errors.Is(err, ErrNoCurrent) {
		t.Fatalf("Run without current error = %v, want ErrNoCurrent", err)
	}

	if _, err := s.Interpret(1, model.DomainInfluencer, "Find tech YouTubers with over 100k subscribers"); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	saved, err := s.Save(ctx, 1, "tech tubers", "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := s.Run(ctx, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var handles []string
	for _, inf := range res.Influencers {
		handles = append(handles, inf.Handle)
	}
	if diff := cmp.Diff([]string{"@techtom", "@gadgetgrace"}, handles); diff != "" {
		t.Errorf("run results mismatch (-want +got):\n%s", diff)
	}

	got, err := store.GetFilter(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ResultCount != 2 {
		t.Errorf("ResultCount = %d, want 2", got.ResultCount)
	}
}

func TestRunCatalogError(t *testing.T) {
	s, _ := newTestService(t, &fakeCatalog{err: errors.New("feed down")})

	if _, err := s.Interpret(1, model.DomainMedia, "news"); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if _, err := s.Run(context.Background(), 1); err == nil {
		t.Error("expected catalog error to be returned")
	}
}
