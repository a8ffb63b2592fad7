// Package sqlstore implements the repository interfaces on database/sql.
//
// Queries are written once with ? placeholders. A Dialect rewrites them for
// drivers that use numbered placeholders ($1, $2, ...) and recognises the
// driver's unique-violation error, which is all that differs between the
// SQLite and PostgreSQL backends.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BSoup1/flashcards/internal/dbx"
	"github.com/BSoup1/flashcards/internal/repository"
)

// Dialect captures the driver-specific behaviour the store needs.
type Dialect struct {
	Name string
	// Numbered selects $1-style placeholders instead of ?.
	Numbered bool
	// IsUniqueViolation reports whether err came from a UNIQUE constraint.
	IsUniqueViolation func(err error) bool
}

// rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) uniqueViolation(err error) bool {
	return d.IsUniqueViolation != nil && d.IsUniqueViolation(err)
}

// querier pairs a connection or transaction with the dialect.
type querier struct {
	db      dbx.DBTX
	dialect Dialect
}

func (q querier) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.dialect.rebind(query), args...)
}

func (q querier) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.dialect.rebind(query), args...)
}

func (q querier) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.dialect.rebind(query), args...)
}

// Store owns the connection pool and hands out repositories bound to it.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ repository.Store = (*Store)(nil)

// New wraps an open pool. Migrations must already have been applied.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) q() querier {
	return querier{db: s.db, dialect: s.dialect}
}

func (s *Store) Users() repository.UserRepository { return &UserRepo{q: s.q()} }

func (s *Store) Cards() repository.CardRepository { return &CardRepo{q: s.q()} }

func (s *Store) Translations() repository.TranslationRepository {
	return &TranslationRepo{q: s.q()}
}

func (s *Store) Sessions() repository.SessionStore { return &SessionRepo{q: s.q()} }

// txRepos binds the repositories to a single transaction.
type txRepos struct {
	q querier
}

func (t txRepos) Users() repository.UserRepository { return &UserRepo{q: t.q} }

func (t txRepos) Cards() repository.CardRepository { return &CardRepo{q: t.q} }

func (t txRepos) Translations() repository.TranslationRepository {
	return &TranslationRepo{q: t.q}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(txRepos{q: querier{db: tx, dialect: s.dialect}})
	})
}

// Ping checks the connection and that the schema is in place by touching
// the users table.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: ping: %w", s.dialect.Name, err)
	}
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users LIMIT 1`).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: querying users: %w", s.dialect.Name, err)
	}
	return nil
}

// DB exposes the pool for callers that manage migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}
