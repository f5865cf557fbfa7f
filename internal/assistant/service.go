// Package assistant keeps each chat's current filter and manages saved filters.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"agency_bot/internal/filter"
	"agency_bot/internal/interpret"
	"agency_bot/internal/model"
	"agency_bot/internal/storage"
)

// ErrNoCurrent is returned when a chat has no current filter to act on.
var ErrNoCurrent = errors.New("no current filter, send a query first")

// ErrEmptyName is returned when saving without a name.
var ErrEmptyName = errors.New("filter name is required")

// Catalog supplies the items filters are applied to.
type Catalog interface {
	Media(ctx context.Context) ([]model.MediaResult, error)
	Influencers(ctx context.Context) ([]model.Influencer, error)
	Posts(ctx context.Context) ([]model.SocialPost, error)
}

// Results holds the items a filter matched. Only the slice for Kind is set.
type Results struct {
	Kind        model.Domain
	Media       []model.MediaResult
	Influencers []model.Influencer
	Posts       []model.SocialPost
}

// Len returns the number of matched items.
func (r Results) Len() int {
	return len(r.Media) + len(r.Influencers) + len(r.Posts)
}

// Service interprets chat messages and owns the per-chat current filter.
// It is safe for concurrent use.
type Service struct {
	store      storage.Storage
	catalog    Catalog
	media      *interpret.Media
	influencer *interpret.Influencer
	tracking   *interpret.Tracking
	log        *slog.Logger

	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	current map[int64]Current
}

// New creates a Service. catalog may be nil, in which case Run fails.
func New(store storage.Storage, catalog Catalog, vocab *interpret.Vocabulary, fallback interpret.FallbackPolicy, log *slog.Logger) *Service {
	return &Service{
		store:      store,
		catalog:    catalog,
		media:      interpret.NewMedia(vocab, fallback),
		influencer: interpret.NewInfluencer(vocab),
		tracking:   interpret.NewTracking(vocab),
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
		current:    make(map[int64]Current),
	}
}

// SetClock overrides the time source used for interpretation and timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetIDGenerator overrides how saved filter IDs are generated.
func (s *Service) SetIDGenerator(newID func() string) {
	s.newID = newID
}

// Interpret runs the interpreter for kind over text and makes the result
// the chat's current filter.
func (s *Service) Interpret(chatID int64, kind model.Domain, text string) (Current, error) {
	now := s.now()
	c := Current{Kind: kind, Text: text}

	switch kind {
	case model.DomainMedia:
		r := s.media.Interpret(text, now)
		c.Media = &r
	case model.DomainInfluencer:
		r := s.influencer.Interpret(text, now)
		c.Influencer = &r
	case model.DomainTracking:
		r := s.tracking.Interpret(text, now)
		c.Tracking = &r
	default:
		return Current{}, fmt.Errorf("unknown filter kind %q", kind)
	}

	s.log.Debug("interpreted", "chat_id", chatID, "kind", kind, "confidence", c.Confidence())

	s.mu.Lock()
	s.current[chatID] = c
	s.mu.Unlock()
	return c, nil
}

// Current returns the chat's current filter.
func (s *Service) Current(chatID int64) (Current, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.current[chatID]
	return c, ok
}

// Save stores the chat's current filter under name.
func (s *Service) Save(ctx context.Context, chatID int64, name, description string) (*model.SavedFilter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	c, ok := s.Current(chatID)
	if !ok {
		return nil, ErrNoCurrent
	}

	filters, err := c.Filters()
	if err != nil {
		return nil, err
	}

	f := &model.SavedFilter{
		ID:          s.newID(),
		ChatID:      chatID,
		Kind:        c.Kind,
		Name:        name,
		Description: strings.TrimSpace(description),
		Query:       c.Text,
		Filters:     filters,
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	}
	if err := s.store.SaveFilter(ctx, f); err != nil {
		return nil, fmt.Errorf("save filter: %w", err)
	}

	s.mu.Lock()
	if cur, ok := s.current[chatID]; ok && cur.Text == c.Text && cur.Kind == c.Kind {
		cur.SavedID = f.ID
		s.current[chatID] = cur
	}
	s.mu.Unlock()

	s.log.Info("filter saved", "chat_id", chatID, "id", f.ID, "kind", f.Kind, "name", f.Name)
	return f, nil
}

// List returns the chat's saved filters, oldest first.
func (s *Service) List(ctx context.Context, chatID int64) ([]model.SavedFilter, error) {
	filters, err := s.store.ListFilters(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	return filters, nil
}

// Delete removes a saved filter. It reports false, without error, when the
// filter does not exist or belongs to another chat.
func (s *Service) Delete(ctx context.Context, chatID int64, id string) (bool, error) {
	ok, err := s.store.DeleteFilter(ctx, chatID, id)
	if err != nil {
		return false, fmt.Errorf("delete filter: %w", err)
	}
	if !ok {
		return false, nil
	}

	s.mu.Lock()
	if cur, found := s.current[chatID]; found && cur.SavedID == id {
		cur.SavedID = ""
		s.current[chatID] = cur
	}
	s.mu.Unlock()

	s.log.Info("filter deleted", "chat_id", chatID, "id", id)
	return true, nil
}

// Get returns one of the chat's saved filters.
func (s *Service) Get(ctx context.Context, chatID int64, id string) (*model.SavedFilter, error) {
	f, err := s.store.GetFilter(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get filter: %w", err)
	}
	if f.ChatID != chatID {
		return nil, fmt.Errorf("get filter: %w", storage.ErrNotFound)
	}
	return f, nil
}

// Load makes a saved filter the chat's current filter.
func (s *Service) Load(ctx context.Context, chatID int64, id string) (Current, error) {
	f, err := s.Get(ctx, chatID, id)
	if err != nil {
		return Current{}, err
	}
	c, err := restore(*f)
	if err != nil {
		return Current{}, err
	}

	s.mu.Lock()
	s.current[chatID] = c
	s.mu.Unlock()
	return c, nil
}

// RecordResults stores n as the result count of the saved filter the chat's
// current filter came from. It is a no-op for unsaved filters.
func (s *Service) RecordResults(ctx context.Context, chatID int64, n int) error {
	c, ok := s.Current(chatID)
	if !ok {
		return ErrNoCurrent
	}
	if c.SavedID == "" {
		return nil
	}
	if err := s.store.UpdateResultCount(ctx, c.SavedID, n); err != nil {
		return fmt.Errorf("record results: %w", err)
	}
	return nil
}

// Run applies the chat's current filter to the catalog and records the
// number of matches.
func (s *Service) Run(ctx context.Context, chatID int64) (Results, error) {
	c, ok := s.Current(chatID)
	if !ok {
		return Results{}, ErrNoCurrent
	}
	if s.catalog == nil {
		return Results{}, errors.New("no sources configured")
	}

	res := Results{Kind: c.Kind}
	switch c.Kind {
	case model.DomainMedia:
		items, err := s.catalog.Media(ctx)
		if err != nil {
			return Results{}, fmt.Errorf("load media: %w", err)
		}
		res.Media = filter.Media(items, c.Media.Fields)
	case model.DomainInfluencer:
		roster, err := s.catalog.Influencers(ctx)
		if err != nil {
			return Results{}, fmt.Errorf("load influencers: %w", err)
		}
		res.Influencers = filter.Influencers(roster, c.Influencer.Fields)
	case model.DomainTracking:
		posts, err := s.catalog.Posts(ctx)
		if err != nil {
			return Results{}, fmt.Errorf("load posts: %w", err)
		}
		res.Posts = filter.Posts(posts, c.Tracking.Fields)
	}

	if err := s.RecordResults(ctx, chatID, res.Len()); err != nil {
		s.log.Error("record results", "chat_id", chatID, "error", err)
	}
	return res, nil
}
