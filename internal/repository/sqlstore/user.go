package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/model"
	"github.com/BSoup1/flashcards/internal/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	q querier
}

// Create inserts the user, generating its ID. A duplicate email surfaces
// as apperror.ErrConflict so a registration race loses cleanly.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := r.q.exec(ctx,
		`INSERT INTO users (user_id, email, password, created_at)
		 VALUES (?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if r.q.dialect.uniqueViolation(err) {
			return apperror.Conflict("User already exists. Please choose a different email or login.")
		}
		return fmt.Errorf("%s: inserting user: %w", r.q.dialect.Name, err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "email", email,
		`SELECT user_id, email, password, created_at FROM users WHERE email = ?`)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, "id", id,
		`SELECT user_id, email, password, created_at FROM users WHERE user_id = ?`)
}

func (r *UserRepo) getOne(ctx context.Context, by, value, query string) (*model.User, error) {
	var u model.User
	err := r.q.queryRow(ctx, query, value).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("%s: getting user by %s: %w", r.q.dialect.Name, by, err)
	}
	return &u, nil
}
