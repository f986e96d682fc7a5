package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"ninedelights/internal/amqp"
	"ninedelights/internal/core"
	gsheet "ninedelights/internal/sheets/google"
	"ninedelights/internal/sheets/memory"
	"ninedelights/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	// AMQP is optional. Without a broker the repository still queues
	// writes as pending and the worker's interval poll drains them.
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync messages", "error", err)
			amqpClient = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	store := &syncedStore{repo: repo, publisher: amqpClient}

	cleanup := func() error {
		if amqpClient != nil {
			amqpClient.Close()
		}
		return repo.Close()
	}

	return &BackendResult{Backend: store, Cleanup: cleanup}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"sheet", config.GoogleSheetName)

	return &BackendResult{Backend: cli, Cleanup: nil}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Backend: memory.New(), Cleanup: nil}, nil
}

// syncedStore wraps the SQLite repository and publishes a sync message
// after each write so the worker pushes the change to the sheet.
// Publish failures are logged, not returned; the pending queue is the
// source of truth and the poll will catch up.
type syncedStore struct {
	repo      *storage.SQLiteRepository
	publisher *amqp.Client
}

var _ Backend = (*syncedStore)(nil)

func (s *syncedStore) List(ctx context.Context, start, end string) ([]core.Entry, error) {
	return s.repo.List(ctx, start, end)
}

func (s *syncedStore) ListAll(ctx context.Context) ([]core.Entry, error) {
	return s.repo.ListAll(ctx)
}

func (s *syncedStore) Append(ctx context.Context, e core.Entry) (string, error) {
	ref, err := s.repo.Append(ctx, e)
	if err != nil {
		return "", err
	}
	if id, parseErr := strconv.ParseInt(ref, 10, 64); parseErr == nil {
		s.publishSync(ctx, id)
	}
	return ref, nil
}

func (s *syncedStore) Update(ctx context.Context, row int, e core.Entry) error {
	if err := s.repo.Update(ctx, row, e); err != nil {
		return err
	}
	s.publishSync(ctx, int64(row))
	return nil
}

func (s *syncedStore) Delete(ctx context.Context, row int) error {
	return s.repo.Delete(ctx, row)
}

func (s *syncedStore) publishSync(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	version, err := s.repo.GetEntryVersion(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read entry version for sync message", "id", id, "error", err)
		return
	}
	if err := s.publisher.PublishEntrySync(ctx, id, version); err != nil {
		slog.WarnContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}
