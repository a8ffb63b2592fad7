package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/model"
	"github.com/BSoup1/flashcards/internal/repository"
)

var _ repository.SessionStore = (*SessionRepo)(nil)

type SessionRepo struct {
	q querier
}

// Get returns the session stored under token, expired or not. Expiry is
// the caller's decision.
func (r *SessionRepo) Get(ctx context.Context, token string) (*model.Session, error) {
	var s model.Session
	err := r.q.queryRow(ctx,
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`,
		token,
	).Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", "<redacted>")
		}
		return nil, fmt.Errorf("%s: getting session: %w", r.q.dialect.Name, err)
	}
	return &s, nil
}

// Set stores the session, replacing any existing one with the same token.
func (r *SessionRepo) Set(ctx context.Context, s *model.Session) error {
	_, err := r.q.exec(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (token) DO UPDATE
		 SET user_id = excluded.user_id, expires_at = excluded.expires_at`,
		s.Token, s.UserID, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("%s: storing session: %w", r.q.dialect.Name, err)
	}
	return nil
}

// Clear deletes the session. Clearing an unknown token is not an error.
func (r *SessionRepo) Clear(ctx context.Context, token string) error {
	if _, err := r.q.exec(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("%s: clearing session: %w", r.q.dialect.Name, err)
	}
	return nil
}
