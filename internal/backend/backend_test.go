package backend

import (
	"context"
	"strings"
	"testing"

	"ninedelights/internal/config"
)

func TestBackendTypeIsValid(t *testing.T) {
	for _, bt := range []BackendType{SQLiteBackend, SheetsBackend, MemoryBackend} {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("postgres").IsValid() {
		t.Error("unknown type should be invalid")
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/x.db",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "ninedelights",
		AMQPQueue:    "sync_entries",
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "/tmp/x.db" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should error")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("unknown backend should error")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory ok", Config{Type: MemoryBackend}, ""},
		{"sqlite needs path", Config{Type: SQLiteBackend}, "database path"},
		{"sheets needs spreadsheet", Config{Type: SheetsBackend, GoogleSheetName: "Sheet1"}, "Spreadsheet ID"},
		{"sheets needs sheet name", Config{Type: SheetsBackend, GoogleSpreadsheetID: "abc"}, "Sheet name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	factory := NewFactory(nil)
	result, err := factory.CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Backend == nil {
		t.Fatal("backend should not be nil")
	}
	if result.Cleanup != nil {
		t.Fatal("memory backend needs no cleanup")
	}
}
