// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"agency_bot/internal/model"
)

// ErrNotFound is returned when a saved filter does not exist.
var ErrNotFound = errors.New("saved filter not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	// SaveFilter inserts a saved filter. ID and CreatedAt are set by the caller.
	SaveFilter(ctx context.Context, f *model.SavedFilter) error
	GetFilter(ctx context.Context, id string) (*model.SavedFilter, error)
	// ListFilters returns a chat's saved filters, oldest first.
	ListFilters(ctx context.Context, chatID int64) ([]model.SavedFilter, error)
	// ListTrackers returns the saved tracking filters of every chat.
	ListTrackers(ctx context.Context) ([]model.SavedFilter, error)
	// DeleteFilter removes a chat's saved filter and reports whether it existed.
	DeleteFilter(ctx context.Context, chatID int64, id string) (bool, error)
	UpdateResultCount(ctx context.Context, id string, n int) error

	MarkSeen(ctx context.Context, filterID, guid string) error
	IsSeen(ctx context.Context, filterID, guid string) (bool, error)

	Close() error
}
