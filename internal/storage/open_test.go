package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-wiki/internal/runtimeconfig"
	"github.com/goliatone/go-wiki/internal/storage"
	"github.com/uptrace/bun/dialect"
)

func TestOpenSQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "wiki.db")
	db, err := storage.Open(context.Background(), runtimeconfig.StorageConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if db.Dialect().Name() != dialect.SQLite {
		t.Fatalf("expected sqlite dialect, got %v", db.Dialect().Name())
	}
	if got := db.DB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("expected one open connection, got %d", got)
	}
}

func TestOpenMemoryDriverHasNoDatabase(t *testing.T) {
	if _, err := storage.Open(context.Background(), runtimeconfig.StorageConfig{}); !errors.Is(err, storage.ErrMemoryDriver) {
		t.Fatalf("expected ErrMemoryDriver, got %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), runtimeconfig.StorageConfig{Driver: "mongo", DSN: "x"})
	if !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}
