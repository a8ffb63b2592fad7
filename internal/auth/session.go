package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/model"
	"github.com/BSoup1/flashcards/internal/repository"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// DefaultSessionTTL is how long a session lasts without logging in again.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionManager ties the server-side session store to the browser cookie.
type SessionManager struct {
	store  repository.SessionStore
	tokens *TokenService
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// SessionOptions configures cookie lifetime and the Secure flag. Secure
// should be on whenever the app is served over HTTPS.
type SessionOptions struct {
	TTL    time.Duration
	Secure bool
}

func NewSessionManager(store repository.SessionStore, tokens *TokenService, opts SessionOptions) *SessionManager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		store:  store,
		tokens: tokens,
		ttl:    ttl,
		secure: opts.Secure,
		now:    time.Now,
	}
}

// Start creates a session for userID and sets the cookie. Any session the
// request already carried is ended first so a login never reuses a token.
func (m *SessionManager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string) error {
	_ = m.clearServerSide(ctx, r)

	now := m.now().UTC()
	sess := &model.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Set(ctx, sess); err != nil {
		return fmt.Errorf("auth: storing session: %w", err)
	}

	value, err := m.tokens.Sign(sess)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Resolve returns the user id of the request's session, or "" when the
// request is anonymous. Missing, forged, expired and logged-out cookies are
// all anonymous; only store failures are returned as errors.
func (m *SessionManager) Resolve(ctx context.Context, r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}

	token, userID, err := m.tokens.Parse(cookie.Value)
	if err != nil {
		return "", nil
	}

	sess, err := m.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("auth: loading session: %w", err)
	}

	if sess.Expired(m.now()) {
		if err := m.store.Clear(ctx, token); err != nil {
			return "", fmt.Errorf("auth: clearing expired session: %w", err)
		}
		return "", nil
	}
	if sess.UserID != userID {
		return "", nil
	}
	return sess.UserID, nil
}

// End deletes the request's server-side session, if any, and expires the
// cookie. It is safe to call on anonymous requests.
func (m *SessionManager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	err := m.clearServerSide(ctx, r)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}

func (m *SessionManager) clearServerSide(ctx context.Context, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	token, err := m.tokens.SessionToken(cookie.Value)
	if err != nil {
		// a cookie we did not sign has no row to clear
		return nil
	}
	if err := m.store.Clear(ctx, token); err != nil {
		return fmt.Errorf("auth: clearing session: %w", err)
	}
	return nil
}
