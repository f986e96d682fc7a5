package sheets

import (
	"context"

	"ninedelights/internal/core"
)

// Ports for outbound entry-store adapters.
type (
	// EntryLister reads entries back out of the store. List is an
	// inclusive date-range query; ListAll is the full scan used by the
	// statistics page.
	EntryLister interface {
		List(ctx context.Context, start, end string) ([]core.Entry, error)
		ListAll(ctx context.Context) ([]core.Entry, error)
	}

	// EntryAppender appends a new entry; the store assigns the row and
	// created-at timestamp and returns a row reference.
	EntryAppender interface {
		Append(ctx context.Context, e core.Entry) (rowRef string, err error)
	}

	// EntryUpdater rewrites the entry at the given row. Row and created-at
	// are immutable; the call fails when the row no longer exists.
	EntryUpdater interface {
		Update(ctx context.Context, row int, e core.Entry) error
	}

	// EntryDeleter physically removes the row. Rows after the deleted one
	// shift up, so callers must re-fetch rather than cache positions.
	EntryDeleter interface {
		Delete(ctx context.Context, row int) error
	}

	// EntryStore is the full read/write surface of a backend.
	EntryStore interface {
		EntryLister
		EntryAppender
		EntryUpdater
		EntryDeleter
	}
)
