// Package auth provides password hashing, signed session cookies, and the
// middleware that turns a session cookie into a user id on the request
// context.
//
// SESSION MODEL:
// Sessions are server-side rows (token → user id, expiry). The cookie the
// browser holds is an HS256 JWT whose "jti" is the session token and whose
// "sub" is the user id. The signature stops clients from forging or
// editing cookies; the server-side row is what makes logout real, because
// deleting it invalidates the cookie even before the JWT expires.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BSoup1/flashcards/internal/model"
)

const issuer = "flashcards"

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 16

// TokenService signs and verifies session cookies with an HMAC secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. The secret comes from
// configuration and should be at least 32 random bytes in production, e.g.
// SESSION_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: session secret must be at least %d characters", MinSecretLength)
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// Sign returns the cookie value for s.
func (s *TokenService) Sign(sess *model.Session) (string, error) {
	c := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.Token,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session cookie: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature, issuer and expiry of a cookie value and
// returns the session token and user id it carries.
func (s *TokenService) Parse(value string) (token, userID string, err error) {
	c, err := s.parse(value,
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", fmt.Errorf("auth: session cookie expired")
		}
		return "", "", err
	}
	if c.Subject == "" {
		return "", "", fmt.Errorf("auth: session cookie has no subject")
	}
	return c.ID, c.Subject, nil
}

// SessionToken verifies only the signature and returns the session token.
// Logout uses it so an expired cookie still clears its server-side row.
func (s *TokenService) SessionToken(value string) (string, error) {
	c, err := s.parse(value, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *TokenService) parse(value string, opts ...jwt.ParserOption) (*sessionClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := jwt.ParseWithClaims(value, &sessionClaims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid session cookie: %w", err)
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid session cookie claims")
	}
	if c.ID == "" {
		return nil, fmt.Errorf("auth: session cookie has no session id")
	}
	return c, nil
}
