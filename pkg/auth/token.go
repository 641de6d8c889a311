// Package auth is the token side of the auth collaborator: it keeps the
// bearer token in a storage.Store and hands it to the API client only while
// its JWT exp claim lies in the future.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/seafoodai/seafood-terminal/pkg/logging"
	"github.com/seafoodai/seafood-terminal/pkg/storage"
)

// TokenKey is the storage key holding the bearer token.
const TokenKey = "token"

var (
	// ErrTokenExpired is returned by CheckExpiry for tokens past their exp claim.
	ErrTokenExpired = errors.New("token expired")

	// ErrNoExpiry is returned by CheckExpiry for tokens without an exp claim.
	ErrNoExpiry = errors.New("token has no exp claim")
)

// TokenProvider supplies the bearer token for authenticated requests.
type TokenProvider interface {
	// Token returns the current token, or false if none is usable.
	Token(ctx context.Context) (string, bool)

	// RemoveToken forgets the current token.
	RemoveToken(ctx context.Context) error
}

// CheckExpiry reads the exp claim of a JWT without verifying its signature.
// Tokens that cannot be parsed, lack exp, or expired at or before now are
// rejected.
func CheckExpiry(token string, now time.Time) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return ErrNoExpiry
	}
	if !exp.Time.After(now) {
		return ErrTokenExpired
	}
	return nil
}

// TokenStore keeps the token under TokenKey in a storage.Store.
type TokenStore struct {
	store  storage.Store
	now    func() time.Time
	logger zerolog.Logger
}

// NewTokenStore creates a token store over store.
func NewTokenStore(store storage.Store) *TokenStore {
	if store == nil {
		panic("store cannot be nil")
	}
	return &TokenStore{
		store:  store,
		now:    time.Now,
		logger: logging.NewLogger(logging.ComponentAuth),
	}
}

// SetClock replaces the time source used for expiry checks.
func (s *TokenStore) SetClock(now func() time.Time) {
	s.now = now
}

// SetToken stores token.
func (s *TokenStore) SetToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Token returns the stored token if it has not expired. Expired, malformed
// and exp-less tokens are removed from the store and reported as absent.
func (s *TokenStore) Token(ctx context.Context) (string, bool) {
	token, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("Token read failed")
		}
		return "", false
	}
	if token == "" {
		return "", false
	}

	if err := CheckExpiry(token, s.now()); err != nil {
		s.logger.Info().Err(err).Msg("Dropping unusable token")
		if rmErr := s.RemoveToken(ctx); rmErr != nil {
			s.logger.Warn().Err(rmErr).Msg("Token removal failed")
		}
		return "", false
	}
	return token, true
}

// RemoveToken deletes the stored token.
func (s *TokenStore) RemoveToken(ctx context.Context) error {
	if err := s.store.Remove(ctx, TokenKey); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a usable token is stored.
func (s *TokenStore) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.Token(ctx)
	return ok
}

// Static is a TokenProvider returning a fixed token, e.g. from an
// environment variable. An empty Static provides no token.
type Static string

// Token returns the fixed token.
func (s Static) Token(context.Context) (string, bool) {
	return string(s), s != ""
}

// RemoveToken is a no-op for fixed tokens.
func (s Static) RemoveToken(context.Context) error {
	return nil
}
