package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ninedelights/internal/amqp"
	"ninedelights/internal/core"
	"ninedelights/internal/sheets"
	"ninedelights/internal/storage"
)

// SyncWorker drains journal entries from SQLite into the Google Sheet.
// It normally reacts to AMQP messages; the interval poll is a backup in
// case messages are lost.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	sheet     sheets.EntryAppender
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, sheet sheets.EntryAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		sheet:     sheet,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single entry sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	entry, err := w.storage.GetEntry(ctx, msg.ID)
	if errors.Is(err, core.ErrInvalidRow) {
		// Entry was deleted locally before the message arrived.
		slog.WarnContext(ctx, "Entry gone before sync, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}

	return w.syncEntryToSheet(ctx, msg.ID, entry)
}

func (w *SyncWorker) syncEntryToSheet(ctx context.Context, id int64, entry core.Entry) error {
	ref, err := w.sheet.Append(ctx, entry)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append entry to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}

	slog.InfoContext(ctx, "Entry synced to sheet",
		"id", id,
		"date", entry.Date,
		"delight", entry.Type,
		"ref", ref)

	return nil
}

// ProcessPendingEntries syncs any entries still marked pending.
func (w *SyncWorker) ProcessPendingEntries(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck drains a larger batch of pending entries at worker
// startup to recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) error {
	pending, err := w.storage.GetPendingSyncEntries(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))

	for _, p := range pending {
		entry, err := w.storage.GetEntry(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get entry", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.syncEntryToSheet(ctx, p.ID, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// Run polls for pending entries on the given interval until ctx is
// cancelled.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPendingEntries(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sync pass failed", "error", err)
			}
		}
	}
}
