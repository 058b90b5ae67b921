package auth

import (
	"context"
	"sync"
)

// NewInMemoryRefreshStore returns a RefreshStore backed by an in-memory map.
func NewInMemoryRefreshStore() *InMemoryRefreshStore {
	return &InMemoryRefreshStore{tokens: make(map[string]string)}
}

// InMemoryRefreshStore implements RefreshStore for tests and local development.
type InMemoryRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

// Save stores token as the active refresh token for userID.
func (s *InMemoryRefreshStore) Save(_ context.Context, userID, token string) error {
	s.mu.Lock()
	s.tokens[userID] = token
	s.mu.Unlock()
	return nil
}

// Swap replaces presented with next when presented is the active token.
func (s *InMemoryRefreshStore) Swap(_ context.Context, userID, presented, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tokens[userID]
	if !ok {
		return ErrSessionNotFound
	}
	if current != presented {
		return ErrRefreshTokenReused
	}
	s.tokens[userID] = next
	return nil
}

// Clear removes the active token for userID.
func (s *InMemoryRefreshStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.tokens, userID)
	s.mu.Unlock()
	return nil
}

// Token returns the active token for userID. Useful for tests.
func (s *InMemoryRefreshStore) Token(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[userID]
	return token, ok
}
