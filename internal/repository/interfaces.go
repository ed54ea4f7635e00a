package repository

import (
	"context"

	"loyalty-wallet/internal/model"
)

// LocalStore persists the full card collection on the device.
// Writes always replace the whole collection.
type LocalStore interface {
	// LoadAll returns the stored collection. A missing or empty store yields
	// an empty collection, never an error.
	LoadAll(ctx context.Context) (model.Cards, error)

	// ReplaceAll overwrites the stored collection with cards.
	ReplaceAll(ctx context.Context, cards model.Cards) error

	// Close closes the underlying storage.
	Close() error
}

// RemoteStore is the hosted, user scoped card collection.
// Both operations are all-or-nothing.
type RemoteStore interface {
	// Pull returns every card stored for the identity's user.
	Pull(ctx context.Context, identity model.Identity) (model.Cards, error)

	// Upsert inserts or replaces cards by id for the identity's user.
	Upsert(ctx context.Context, identity model.Identity, cards model.Cards) error

	// Name identifies the backend in logs and stats.
	Name() string

	// Close closes the backend connection.
	Close() error
}
