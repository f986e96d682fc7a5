package storage

import (
	"context"
	"path/filepath"
	"testing"

	"ninedelights/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendListRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ref, err := repo.Append(ctx, core.Entry{
		Date:        "2024-06-01",
		Type:        core.Goofing,
		Description: "silly hats",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "1" {
		t.Fatalf("ref = %q, want first id", ref)
	}

	if _, err := repo.Append(ctx, core.Entry{Date: "2024-06-15", Type: core.Wildcard, WildcardName: "kites"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("listAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d entries, want 2", len(all))
	}
	if all[0].CreatedAt == "" {
		t.Fatal("createdAt not assigned")
	}
	if all[1].WildcardName != "kites" {
		t.Fatalf("wildcard name lost: %+v", all[1])
	}

	window, err := repo.List(ctx, "2024-06-01", "2024-06-07")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(window) != 1 || window[0].Description != "silly hats" {
		t.Fatalf("window = %+v", window)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Append(context.Background(), core.Entry{Date: "", Type: core.Goofing}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestUpdatePreservesIdentity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Append(ctx, core.Entry{Date: "2024-06-01", Type: core.Goofing}); err != nil {
		t.Fatalf("append: %v", err)
	}
	before, _ := repo.ListAll(ctx)

	updated := core.Entry{Date: "2024-06-02", Type: core.Fellowship, Description: "dinner"}
	if err := repo.Update(ctx, before[0].Row, updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	after, _ := repo.ListAll(ctx)
	got := after[0]
	if got.Date != "2024-06-02" || got.Type != core.Fellowship || got.Description != "dinner" {
		t.Fatalf("update lost fields: %+v", got)
	}
	if got.Row != before[0].Row || got.CreatedAt != before[0].CreatedAt {
		t.Fatalf("identity changed: %+v vs %+v", got, before[0])
	}

	if err := repo.Update(ctx, 999, updated); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Append(ctx, core.Entry{Date: "2024-06-01", Type: core.Goofing}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	all, _ := repo.ListAll(ctx)
	if len(all) != 0 {
		t.Fatalf("got %d entries after delete, want 0", len(all))
	}
	if err := repo.Delete(ctx, 1); err == nil {
		t.Fatal("expected error deleting missing id")
	}
}

func TestPendingSyncQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, date := range []string{"2024-06-01", "2024-06-02", "2024-06-03"} {
		if _, err := repo.Append(ctx, core.Entry{Date: date, Type: core.Goofing}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	pending, err := repo.GetPendingSyncEntries(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("got %d pending, want 3", len(pending))
	}

	if err := repo.MarkSynced(ctx, pending[0].ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, pending[1].ID); err != nil {
		t.Fatalf("mark error: %v", err)
	}

	pending, _ = repo.GetPendingSyncEntries(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("got %d pending after marks, want 1", len(pending))
	}

	// An update puts the entry back in the queue.
	e, err := repo.GetEntry(ctx, 1)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if err := repo.Update(ctx, 1, e); err != nil {
		t.Fatalf("update: %v", err)
	}
	pending, _ = repo.GetPendingSyncEntries(ctx, 10)
	if len(pending) != 2 {
		t.Fatalf("got %d pending after update, want 2", len(pending))
	}
}
