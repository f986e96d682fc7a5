package storage

import (
	"context"
	"database/sql"
	"time"
)

// Queries wraps the raw SQL against the entries table.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// DBEntry is the entries table row. created_at is RFC3339 text, assigned
// in Go rather than by the database so it round-trips without driver
// time conversion.
type DBEntry struct {
	ID           int64
	Date         string
	Delight      string
	Description  string
	WildcardName string
	ImageURL     string
	CreatedAt    string
	Version      int64
	SyncStatus   string
	SyncedAt     sql.NullString
}

type CreateEntryParams struct {
	Date         string
	Delight      string
	Description  string
	WildcardName string
	ImageURL     string
}

const createEntry = `
INSERT INTO entries (date, delight, description, wildcard_name, image_url, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, date, delight, description, wildcard_name, image_url, created_at, version, sync_status, synced_at
`

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (DBEntry, error) {
	row := q.db.QueryRowContext(ctx, createEntry,
		arg.Date, arg.Delight, arg.Description, arg.WildcardName, arg.ImageURL,
		time.Now().UTC().Format(time.RFC3339))
	return scanEntry(row)
}

const getEntry = `
SELECT id, date, delight, description, wildcard_name, image_url, created_at, version, sync_status, synced_at
FROM entries WHERE id = ?
`

func (q *Queries) GetEntry(ctx context.Context, id int64) (DBEntry, error) {
	return scanEntry(q.db.QueryRowContext(ctx, getEntry, id))
}

const listEntries = `
SELECT id, date, delight, description, wildcard_name, image_url, created_at, version, sync_status, synced_at
FROM entries ORDER BY id
`

func (q *Queries) ListEntries(ctx context.Context) ([]DBEntry, error) {
	rows, err := q.db.QueryContext(ctx, listEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

const listEntriesByRange = `
SELECT id, date, delight, description, wildcard_name, image_url, created_at, version, sync_status, synced_at
FROM entries WHERE date >= ? AND date <= ? ORDER BY id
`

func (q *Queries) ListEntriesByRange(ctx context.Context, start, end string) ([]DBEntry, error) {
	rows, err := q.db.QueryContext(ctx, listEntriesByRange, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

type UpdateEntryParams struct {
	ID           int64
	Date         string
	Delight      string
	Description  string
	WildcardName string
	ImageURL     string
}

const updateEntry = `
UPDATE entries
SET date = ?, delight = ?, description = ?, wildcard_name = ?, image_url = ?,
    version = version + 1, sync_status = 'pending'
WHERE id = ?
`

func (q *Queries) UpdateEntry(ctx context.Context, arg UpdateEntryParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateEntry,
		arg.Date, arg.Delight, arg.Description, arg.WildcardName, arg.ImageURL, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteEntry = `DELETE FROM entries WHERE id = ?`

func (q *Queries) DeleteEntry(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEntry, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getPendingSyncEntries = `
SELECT id, date, delight, description, wildcard_name, image_url, created_at, version, sync_status, synced_at
FROM entries WHERE sync_status = 'pending' ORDER BY id LIMIT ?
`

func (q *Queries) GetPendingSyncEntries(ctx context.Context, limit int64) ([]DBEntry, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncEntries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

const markEntrySynced = `
UPDATE entries SET sync_status = 'synced', synced_at = ? WHERE id = ?
`

func (q *Queries) MarkEntrySynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markEntrySynced, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

const markEntrySyncError = `
UPDATE entries SET sync_status = 'error' WHERE id = ?
`

func (q *Queries) MarkEntrySyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markEntrySyncError, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (DBEntry, error) {
	var e DBEntry
	err := row.Scan(&e.ID, &e.Date, &e.Delight, &e.Description, &e.WildcardName,
		&e.ImageURL, &e.CreatedAt, &e.Version, &e.SyncStatus, &e.SyncedAt)
	return e, err
}

func scanEntries(rows *sql.Rows) ([]DBEntry, error) {
	var out []DBEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
