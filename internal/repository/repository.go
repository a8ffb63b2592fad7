// Package repository declares the storage interfaces the services depend on.
//
// Each entity gets its own interface. The concrete implementation lives in
// repository/sqlstore and is opened for SQLite or PostgreSQL by the
// repository/sqlite and repository/postgres packages.
package repository

import (
	"context"

	"github.com/BSoup1/flashcards/internal/model"
)

type UserRepository interface {
	// Create assigns ID and CreatedAt. Returns apperror.ErrConflict when the
	// email is taken.
	Create(ctx context.Context, user *model.User) error
	// GetByEmail returns apperror.ErrNotFound when no user matches.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// CardRepository scopes every lookup by owner: a card that exists but
// belongs to someone else is indistinguishable from a missing one.
type CardRepository interface {
	Create(ctx context.Context, card *model.Card) error
	ListByOwner(ctx context.Context, userID string) ([]model.CardView, error)
	GetOwned(ctx context.Context, cardID, userID string) (*model.Card, error)
	UpdateContent(ctx context.Context, cardID, userID, content string) error
	DeleteOwned(ctx context.Context, cardID, userID string) error
}

type TranslationRepository interface {
	Create(ctx context.Context, t *model.Translation) error
	GetByCard(ctx context.Context, cardID string) (*model.Translation, error)
	DeleteByCard(ctx context.Context, cardID string) error
}

// SessionStore keeps server-side sessions keyed by the client-held token.
type SessionStore interface {
	Get(ctx context.Context, token string) (*model.Session, error)
	Set(ctx context.Context, s *model.Session) error
	Clear(ctx context.Context, token string) error
}

// Tx exposes the repositories bound to one database transaction.
type Tx interface {
	Users() UserRepository
	Cards() CardRepository
	Translations() TranslationRepository
}

// Store is the full storage dependency: repositories bound to the pool,
// transactions, a liveness check, and lifecycle.
type Store interface {
	Tx
	Sessions() SessionStore
	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
