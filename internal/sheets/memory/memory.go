package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ninedelights/internal/core"
	"ninedelights/internal/sheets"
)

// firstDataRow mirrors the sheet layout: row 1 is the header, data starts
// at row 2.
const firstDataRow = 2

// Store is an in-memory entry store with sheet-like row semantics. It is
// the default backend for local development and the test double for the
// HTTP layer.
type Store struct {
	mu    sync.Mutex
	items []core.Entry
	now   func() time.Time
}

var _ sheets.EntryStore = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock lets tests pin the created-at timestamps.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

func (s *Store) List(_ context.Context, start, end string) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entry, 0, len(s.items))
	for i, e := range s.items {
		if core.InRange(e.Date, start, end) {
			e.Row = firstDataRow + i
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListAll(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entry, len(s.items))
	for i, e := range s.items {
		e.Row = firstDataRow + i
		out[i] = e
	}
	return out, nil
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.CreatedAt = s.now().UTC().Format(time.RFC3339)
	e.Row = firstDataRow + len(s.items)
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", e.Row), nil
}

// Update rewrites the entry at row, keeping row and created-at.
func (s *Store) Update(_ context.Context, row int, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := row - firstDataRow
	if idx < 0 || idx >= len(s.items) {
		return fmt.Errorf("%w: row %d", core.ErrInvalidRow, row)
	}
	e.Row = row
	e.CreatedAt = s.items[idx].CreatedAt
	s.items[idx] = e
	return nil
}

// Delete removes the row; entries after it shift up by one, matching the
// spreadsheet's DeleteDimension behavior.
func (s *Store) Delete(_ context.Context, row int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := row - firstDataRow
	if idx < 0 || idx >= len(s.items) {
		return fmt.Errorf("%w: row %d", core.ErrInvalidRow, row)
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return nil
}
