package auth

import (
	"sync"
	"time"
)

// Token is the result of a client-credentials exchange.
type Token struct {
	Scope       string    `json:"scope,omitempty"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type,omitempty"`
	AppID       string    `json:"app_id,omitempty"`
	ExpiresIn   int64     `json:"expires_in"`
	Nonce       string    `json:"nonce,omitempty"`
	ExpiresAt   time.Time `json:"-"`
}

// Valid reports whether the token carries an access token that has not expired.
// A zero ExpiresAt is treated as not expiring.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	return t.ExpiresAt.IsZero() || time.Now().Before(t.ExpiresAt)
}

// Lifetime returns expires_in as a duration.
func (t *Token) Lifetime() time.Duration {
	return time.Duration(t.ExpiresIn) * time.Second
}

// TokenStore holds the current token behind a read-write lock.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the current token or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the current token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear removes the current token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
}
