// Package storage picks the database backend from a connection string.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BSoup1/flashcards/internal/repository/postgres"
	"github.com/BSoup1/flashcards/internal/repository/sqlite"
	"github.com/BSoup1/flashcards/internal/repository/sqlstore"
)

// Backend names returned by Kind.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Kind reports which backend url selects. postgres:// and postgresql://
// URLs select PostgreSQL; anything else is a SQLite path.
func Kind(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Open opens the store for url and applies pending migrations. For SQLite
// the parent directory is created when missing.
func Open(ctx context.Context, url string) (*sqlstore.Store, error) {
	switch Kind(url) {
	case Postgres:
		return postgres.Open(ctx, url, postgres.DefaultPoolConfig())
	default:
		path := strings.TrimPrefix(url, "sqlite://")
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		return sqlite.Open(ctx, path)
	}
}

func ensureDir(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: creating database directory %s: %w", dir, err)
	}
	return nil
}
