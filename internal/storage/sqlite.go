package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"agency_bot/internal/model"
	"agency_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveFilter inserts a new saved filter.
func (s *SQLite) SaveFilter(ctx context.Context, f *model.SavedFilter) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_filters (id, chat_id, kind, name, description, query, filters, created_at, result_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.ChatID, string(f.Kind), f.Name, f.Description, f.Query, string(f.Filters),
		f.CreatedAt.UTC().Format(timeLayout), f.ResultCount,
	)
	if err != nil {
		return fmt.Errorf("insert saved filter: %w", err)
	}
	return nil
}

// GetFilter returns a single saved filter by its ID.
func (s *SQLite) GetFilter(ctx context.Context, id string) (*model.SavedFilter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, chat_id, kind, name, description, query, filters, created_at, result_count
		 FROM saved_filters WHERE id = ?`, id,
	)
	f, err := scanSavedFilter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFilters returns all saved filters belonging to the given chat.
func (s *SQLite) ListFilters(ctx context.Context, chatID int64) ([]model.SavedFilter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, kind, name, description, query, filters, created_at, result_count
		 FROM saved_filters WHERE chat_id = ? ORDER BY created_at, id`, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query saved filters: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSavedFilters(rows)
}

// ListTrackers returns the saved tracking filters of all chats.
func (s *SQLite) ListTrackers(ctx context.Context) ([]model.SavedFilter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, kind, name, description, query, filters, created_at, result_count
		 FROM saved_filters WHERE kind = ? ORDER BY created_at, id`, string(model.DomainTracking),
	)
	if err != nil {
		return nil, fmt.Errorf("query trackers: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSavedFilters(rows)
}

// DeleteFilter removes a saved filter and its seen items.
func (s *SQLite) DeleteFilter(ctx context.Context, chatID int64, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM saved_filters WHERE id = ? AND chat_id = ?`, id, chatID)
	if err != nil {
		return false, fmt.Errorf("delete saved filter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM seen_items WHERE filter_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete seen_items: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// UpdateResultCount stores how many results the filter produced last time it ran.
func (s *SQLite) UpdateResultCount(ctx context.Context, id string, n int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE saved_filters SET result_count = ? WHERE id = ?`, n, id)
	if err != nil {
		return fmt.Errorf("update result count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSeen records that an item has been delivered for a filter.
func (s *SQLite) MarkSeen(ctx context.Context, filterID, guid string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_items (filter_id, guid) VALUES (?, ?)`,
		filterID, guid,
	)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// IsSeen checks whether an item has already been delivered for a filter.
func (s *SQLite) IsSeen(ctx context.Context, filterID, guid string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_items WHERE filter_id = ? AND guid = ?`,
		filterID, guid,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return count > 0, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSavedFilter(row scannable) (model.SavedFilter, error) {
	var f model.SavedFilter
	var kind, filters, created string
	err := row.Scan(&f.ID, &f.ChatID, &kind, &f.Name, &f.Description, &f.Query, &filters, &created, &f.ResultCount)
	if errors.Is(err, sql.ErrNoRows) {
		return f, err
	}
	if err != nil {
		return f, fmt.Errorf("scan saved filter: %w", err)
	}
	f.Kind = model.Domain(kind)
	f.Filters = []byte(filters)
	f.CreatedAt, _ = time.Parse(timeLayout, created)
	return f, nil
}

func scanSavedFilters(rows *sql.Rows) ([]model.SavedFilter, error) {
	filters := []model.SavedFilter{}
	for rows.Next() {
		f, err := scanSavedFilter(rows)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, rows.Err()
}
