// Package session keeps demo login sessions in the cache.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyndhavamahesh345/LexGuard/internal/cache"
	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// ErrNotFound is returned when a session is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session is one logged-in user.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsAuthenticated reports whether the session holds a token.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != ""
}

// Store persists sessions through a domain.Cache.
type Store struct {
	cache        domain.Cache
	ttl          time.Duration
	defaultToken string
}

// NewStore creates a session store.
func NewStore(c domain.Cache, cfg domain.AuthConfig) *Store {
	s := &Store{cache: c, ttl: cfg.SessionTTL, defaultToken: cfg.DefaultToken}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.defaultToken == "" {
		s.defaultToken = "demo-token"
	}
	return s
}

// Login opens a session for email. An empty token falls back to the
// configured demo token.
func (s *Store) Login(ctx context.Context, tenantID, email, token string) (*Session, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		verr := &domain.ValidationError{}
		verr.Add("email", "must be an email address")
		return nil, verr
	}
	if token == "" {
		token = s.defaultToken
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.New().String(),
		Email:     email,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.Persist(ctx, tenantID, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Logout ends a session. Ending an unknown session is not an error.
func (s *Store) Logout(ctx context.Context, tenantID, id string) error {
	return s.Clear(ctx, tenantID, id)
}

// Hydrate loads a session.
func (s *Store) Hydrate(ctx context.Context, tenantID, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var sess Session
	found, err := cache.GetJSON(ctx, s.cache, tenantID, cache.SessionKey(id), &sess)
	if err != nil {
		return nil, err
	}
	if !found || time.Now().After(sess.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Persist stores a session until it expires.
func (s *Store) Persist(ctx context.Context, tenantID string, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return s.Clear(ctx, tenantID, sess.ID)
	}
	return cache.SetJSON(ctx, s.cache, tenantID, cache.SessionKey(sess.ID), sess, ttl)
}

// Clear removes a stored session.
func (s *Store) Clear(ctx context.Context, tenantID, id string) error {
	return s.cache.Delete(ctx, tenantID, cache.SessionKey(id))
}
