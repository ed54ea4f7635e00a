package events

import (
	"context"
	"sync"

	"loyalty-wallet/internal/model"
)

// Handler receives events from a Bus.
type Handler func(model.Event)

// Bus carries identity and sync events between the session service, the sync
// engine and connected UIs.
type Bus interface {
	// Publish delivers e to every subscriber.
	Publish(ctx context.Context, e model.Event) error

	// Subscribe registers h and returns a function that removes it.
	Subscribe(h Handler) (unsubscribe func(), err error)

	// Close stops delivery.
	Close() error
}

// LocalBus delivers events synchronously inside the process.
type LocalBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// NewLocalBus creates an empty in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]Handler)}
}

// Publish calls every handler in the caller's goroutine.
func (b *LocalBus) Publish(ctx context.Context, e model.Event) error {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(e)
	}
	return nil
}

// Subscribe registers h.
func (b *LocalBus) Subscribe(h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}, nil
}

// Close drops every subscriber.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[int]Handler)
	return nil
}

var _ Bus = (*LocalBus)(nil)
