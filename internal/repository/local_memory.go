package repository

import (
	"context"
	"sync"

	"loyalty-wallet/internal/model"
)

// MemoryLocalStore is a LocalStore that lives only as long as the process.
type MemoryLocalStore struct {
	mu    sync.RWMutex
	cards model.Cards
}

// NewMemoryLocalStore creates a store seeded with cards.
func NewMemoryLocalStore(cards ...model.Card) *MemoryLocalStore {
	return &MemoryLocalStore{cards: cloneCards(cards)}
}

// LoadAll returns a copy of the stored collection.
func (s *MemoryLocalStore) LoadAll(ctx context.Context) (model.Cards, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCards(s.cards), nil
}

// ReplaceAll overwrites the stored collection.
func (s *MemoryLocalStore) ReplaceAll(ctx context.Context, cards model.Cards) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = cloneCards(cards)
	return nil
}

// Close is a no-op.
func (s *MemoryLocalStore) Close() error { return nil }

var _ LocalStore = (*MemoryLocalStore)(nil)
