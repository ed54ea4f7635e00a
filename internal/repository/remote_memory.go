package repository

import (
	"context"
	"sync"

	"loyalty-wallet/internal/model"
)

// MemoryRemoteStore is an in-process RemoteStore for development and tests.
type MemoryRemoteStore struct {
	mu    sync.RWMutex
	users map[string]map[string]model.Card
}

// NewMemoryRemoteStore creates an empty store.
func NewMemoryRemoteStore() *MemoryRemoteStore {
	return &MemoryRemoteStore{users: make(map[string]map[string]model.Card)}
}

// Pull returns the user's cards ordered by updatedAt descending.
func (s *MemoryRemoteStore) Pull(ctx context.Context, identity model.Identity) (model.Cards, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cards := make(model.Cards, 0, len(s.users[identity.UserID]))
	for _, c := range s.users[identity.UserID] {
		cards = append(cards, c)
	}
	cards.SortByUpdated()
	return cards, nil
}

// Upsert inserts or replaces cards by id.
func (s *MemoryRemoteStore) Upsert(ctx context.Context, identity model.Identity, cards model.Cards) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.users[identity.UserID]
	if !ok {
		byID = make(map[string]model.Card, len(cards))
		s.users[identity.UserID] = byID
	}
	for _, c := range cards {
		byID[c.ID] = c
	}
	return nil
}

// Name returns the backend name.
func (s *MemoryRemoteStore) Name() string { return "memory" }

// Close is a no-op.
func (s *MemoryRemoteStore) Close() error { return nil }

var _ RemoteStore = (*MemoryRemoteStore)(nil)
