// Package service holds the business rules of the flashcards app.
//
//	Handler (HTTP) → Service (rules) → Repository (SQL)
//
// Services take and return plain Go values and domain errors from
// apperror. They never see an *http.Request or a status code, and they
// never decide how a session is stored: the handler establishes the
// session after a successful Register or Login.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/auth"
	"github.com/BSoup1/flashcards/internal/model"
	"github.com/BSoup1/flashcards/internal/repository"
)

// User-facing messages. The login failure is the same whether the email is
// unknown or the password is wrong, so it cannot be used to discover accounts.
const (
	MsgInvalidCredentials = "The user does not exist or the password is incorrect. Please try again."
	MsgUserExists         = "User already exists. Please choose a different email or login."
	MsgNoGitHubEmail      = "Your GitHub account has no verified email address."
)

// AuthService registers and authenticates users.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates an account. It fails with apperror.ErrConflict when the
// email is already registered; the unique index catches the race where two
// registrations pass the lookup at once.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict(MsgUserExists)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: looking up %q: %w", email, err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict(MsgUserExists)
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return user, nil
}

// Login checks email and password. Any mismatch is apperror.ErrUnauthorized
// with MsgInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("verifying password hash",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return user, nil
}

// LoginWithGitHub signs in the account whose email matches the GitHub
// primary email, creating it on first use. Accounts created this way get a
// random password hash nobody knows, so they can only sign in via GitHub
// until a password is set some other way.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	email := strings.TrimSpace(ghUser.Email)
	if email == "" {
		return nil, apperror.Unauthorized(MsgNoGitHubEmail)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("user logged in via GitHub",
			slog.String("userID", user.ID),
			slog.String("login", ghUser.Login),
		)
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up %q: %w", email, err)
	}
	if len(email) > model.MaxEmailLength {
		return nil, apperror.ValidationFailed("email",
			fmt.Sprintf("Email must be %d characters or less.", model.MaxEmailLength))
	}

	hash, err := s.passwords.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing placeholder password: %w", err)
	}
	user = &model.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// registered concurrently; sign in to that account
			return s.users.GetByEmail(ctx, email)
		}
		return nil, fmt.Errorf("service/auth: creating GitHub user: %w", err)
	}

	s.logger.Info("user registered via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)
	return user, nil
}

// GetUserByID returns the account for a session's user id.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

func validateCredentials(email, password string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "Email is required.")
	}
	if len(email) > model.MaxEmailLength {
		return apperror.ValidationFailed("email",
			fmt.Sprintf("Email must be %d characters or less.", model.MaxEmailLength))
	}
	if password == "" {
		return apperror.ValidationFailed("password", "Password is required.")
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be %d bytes or less.", auth.MaxPasswordBytes))
	}
	return nil
}
