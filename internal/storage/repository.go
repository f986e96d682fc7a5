package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"ninedelights/internal/core"
	"ninedelights/internal/sheets"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the offline-first entry store. It implements the
// same ports as the Google Sheets adapter; a worker drains pending rows
// to the sheet in the background. Row references here are database IDs,
// which (unlike sheet rows) stay stable across deletes.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ sheets.EntryStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements sheets.EntryAppender.
func (r *SQLiteRepository) Append(ctx context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	entry, err := r.queries.CreateEntry(ctx, CreateEntryParams{
		Date:         e.Date,
		Delight:      string(e.Type),
		Description:  e.Description,
		WildcardName: e.WildcardName,
		ImageURL:     e.ImageURL,
	})
	if err != nil {
		return "", fmt.Errorf("create entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", entry.ID,
		"date", entry.Date,
		"delight", entry.Delight)

	return strconv.FormatInt(entry.ID, 10), nil
}

// List implements sheets.EntryLister.
func (r *SQLiteRepository) List(ctx context.Context, start, end string) ([]core.Entry, error) {
	dbEntries, err := r.queries.ListEntriesByRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list entries by range: %w", err)
	}
	return toCoreEntries(dbEntries), nil
}

// ListAll implements sheets.EntryLister.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Entry, error) {
	dbEntries, err := r.queries.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return toCoreEntries(dbEntries), nil
}

// Update implements sheets.EntryUpdater. The entry re-enters the pending
// sync queue so the edit reaches the sheet too.
func (r *SQLiteRepository) Update(ctx context.Context, row int, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	affected, err := r.queries.UpdateEntry(ctx, UpdateEntryParams{
		ID:           int64(row),
		Date:         e.Date,
		Delight:      string(e.Type),
		Description:  e.Description,
		WildcardName: e.WildcardName,
		ImageURL:     e.ImageURL,
	})
	if err != nil {
		return fmt.Errorf("update entry %d: %w", row, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: entry %d not found", core.ErrInvalidRow, row)
	}
	return nil
}

// Delete implements sheets.EntryDeleter.
func (r *SQLiteRepository) Delete(ctx context.Context, row int) error {
	affected, err := r.queries.DeleteEntry(ctx, int64(row))
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", row, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: entry %d not found", core.ErrInvalidRow, row)
	}
	slog.InfoContext(ctx, "Entry deleted from SQLite", "id", row)
	return nil
}

// GetEntry retrieves a single entry by ID for the sync worker.
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	entry, err := r.queries.GetEntry(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, fmt.Errorf("%w: entry %d not found", core.ErrInvalidRow, id)
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry by id: %w", err)
	}
	return toCoreEntry(entry), nil
}

// GetEntryVersion returns the current version of an entry, used when
// publishing sync messages.
func (r *SQLiteRepository) GetEntryVersion(ctx context.Context, id int64) (int64, error) {
	entry, err := r.queries.GetEntry(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: entry %d not found", core.ErrInvalidRow, id)
	}
	if err != nil {
		return 0, fmt.Errorf("get entry version: %w", err)
	}
	return entry.Version, nil
}

// PendingSyncEntry is the minimal payload queued for sheet sync.
type PendingSyncEntry struct {
	ID        int64
	Version   int64
	CreatedAt string
}

// GetPendingSyncEntries returns entries that still need to reach the
// Google Sheet.
func (r *SQLiteRepository) GetPendingSyncEntries(ctx context.Context, limit int) ([]PendingSyncEntry, error) {
	dbEntries, err := r.queries.GetPendingSyncEntries(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}

	pending := make([]PendingSyncEntry, len(dbEntries))
	for i, e := range dbEntries {
		pending[i] = PendingSyncEntry{ID: e.ID, Version: e.Version, CreatedAt: e.CreatedAt}
	}
	return pending, nil
}

// MarkSynced marks an entry as successfully synced.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkEntrySynced(ctx, id); err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}
	slog.InfoContext(ctx, "Entry marked as synced", "id", id)
	return nil
}

// MarkSyncError marks an entry as having failed sync.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkEntrySyncError(ctx, id); err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}
	slog.WarnContext(ctx, "Entry marked with sync error", "id", id)
	return nil
}

func toCoreEntry(e DBEntry) core.Entry {
	return core.Entry{
		Row:          int(e.ID),
		Date:         e.Date,
		Type:         core.DelightType(e.Delight),
		Description:  e.Description,
		WildcardName: e.WildcardName,
		ImageURL:     e.ImageURL,
		CreatedAt:    e.CreatedAt,
	}
}

func toCoreEntries(in []DBEntry) []core.Entry {
	out := make([]core.Entry, len(in))
	for i, e := range in {
		out[i] = toCoreEntry(e)
	}
	return out
}
