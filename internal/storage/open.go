package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// BackendType selects the Store implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds what Open needs to build a Store.
type Config struct {
	Type         BackendType
	SQLiteDBPath string
}

// CleanupFunc releases resources held by a Store.
type CleanupFunc func() error

// Open builds the configured Store. The returned cleanup is never nil.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Type {
	case SQLiteBackend:
		if cfg.SQLiteDBPath == "" {
			return nil, nil, fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		s, err := NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		logger.InfoContext(ctx, "Initialized SQLite backend", "component", "storage", "db_path", cfg.SQLiteDBPath)
		return s, s.Close, nil
	case MemoryBackend:
		logger.InfoContext(ctx, "Initialized memory backend", "component", "storage")
		return NewMemoryStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
