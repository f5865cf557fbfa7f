package storage

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"agency_bot/internal/model"
)

// Memory implements Storage in process memory. Contents are lost on exit.
type Memory struct {
	mu      sync.RWMutex
	filters map[string]model.SavedFilter
	seen    map[string]map[string]struct{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		filters: make(map[string]model.SavedFilter),
		seen:    make(map[string]map[string]struct{}),
	}
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// SaveFilter stores a copy of f.
func (m *Memory) SaveFilter(_ context.Context, f *model.SavedFilter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.filters[f.ID]; ok {
		return fmt.Errorf("insert saved filter: duplicate id %q", f.ID)
	}
	m.filters[f.ID] = clone(*f)
	return nil
}

// GetFilter returns a copy of the saved filter with the given ID.
func (m *Memory) GetFilter(_ context.Context, id string) (*model.SavedFilter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.filters[id]
	if !ok {
		return nil, ErrNotFound
	}
	f = clone(f)
	return &f, nil
}

// ListFilters returns the chat's saved filters, oldest first.
func (m *Memory) ListFilters(_ context.Context, chatID int64) ([]model.SavedFilter, error) {
	return m.list(func(f model.SavedFilter) bool { return f.ChatID == chatID }), nil
}

// ListTrackers returns the saved tracking filters of all chats.
func (m *Memory) ListTrackers(_ context.Context) ([]model.SavedFilter, error) {
	return m.list(func(f model.SavedFilter) bool { return f.Kind == model.DomainTracking }), nil
}

func (m *Memory) list(keep func(model.SavedFilter) bool) []model.SavedFilter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.SavedFilter{}
	for _, f := range m.filters {
		if keep(f) {
			out = append(out, clone(f))
		}
	}
	slices.SortFunc(out, func(a, b model.SavedFilter) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// DeleteFilter removes a chat's saved filter and its seen items.
func (m *Memory) DeleteFilter(_ context.Context, chatID int64, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.filters[id]
	if !ok || f.ChatID != chatID {
		return false, nil
	}
	delete(m.filters, id)
	delete(m.seen, id)
	return true, nil
}

// UpdateResultCount stores how many results the filter produced last time it ran.
func (m *Memory) UpdateResultCount(_ context.Context, id string, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.filters[id]
	if !ok {
		return ErrNotFound
	}
	f.ResultCount = n
	m.filters[id] = f
	return nil
}

// MarkSeen records that an item has been delivered for a filter.
func (m *Memory) MarkSeen(_ context.Context, filterID, guid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, ok := m.seen[filterID]
	if !ok {
		items = make(map[string]struct{})
		m.seen[filterID] = items
	}
	items[guid] = struct{}{}
	return nil
}

// IsSeen checks whether an item has already been delivered for a filter.
func (m *Memory) IsSeen(_ context.Context, filterID, guid string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.seen[filterID][guid]
	return ok, nil
}

func clone(f model.SavedFilter) model.SavedFilter {
	f.Filters = bytes.Clone(f.Filters)
	return f
}
