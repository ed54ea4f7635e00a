package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"loyalty-wallet/internal/capture"
	"loyalty-wallet/internal/logging"
	"loyalty-wallet/internal/model"
	"loyalty-wallet/internal/render"
	"loyalty-wallet/internal/repository"
	"loyalty-wallet/pkg/uid"

	"go.uber.org/zap"
)

// WalletService manages the card collection on this device.
type WalletService struct {
	local          repository.LocalStore
	encoder        render.Encoder
	defaultCountry string
	logger         *zap.Logger
	mu             sync.Locker
	now            func() time.Time
	newID          func() string
}

// WalletOption configures a WalletService.
type WalletOption func(*WalletService)

// WithDefaultCountry sets the country assigned to cards saved without one.
func WithDefaultCountry(code string) WalletOption {
	return func(s *WalletService) { s.defaultCountry = strings.ToUpper(code) }
}

// WithStoreLock shares the local store lock with a SyncService.
func WithStoreLock(l sync.Locker) WalletOption {
	return func(s *WalletService) { s.mu = l }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) WalletOption {
	return func(s *WalletService) { s.logger = logging.OrNop(l) }
}

// NewWalletService creates a new wallet service.
func NewWalletService(local repository.LocalStore, encoder render.Encoder, opts ...WalletOption) *WalletService {
	s := &WalletService{
		local:          local,
		encoder:        encoder,
		defaultCountry: "NL",
		logger:         zap.NewNop(),
		mu:             &sync.Mutex{},
		now:            time.Now,
		newID:          uid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add validates and stores a new card in front of the collection.
func (s *WalletService) Add(ctx context.Context, in model.NewCard) (*model.Card, error) {
	in = model.NewCard{
		Retailer: strings.TrimSpace(in.Retailer),
		Country:  strings.ToUpper(strings.TrimSpace(in.Country)),
		Nickname: strings.TrimSpace(in.Nickname),
		Value:    strings.TrimSpace(in.Value),
		Format:   strings.TrimSpace(in.Format),
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Retailer == "" {
		in.Retailer = model.RetailerOther
	}
	if in.Country == "" {
		in.Country = s.defaultCountry
	}

	now := s.now().UnixMilli()
	card := model.Card{
		ID:        s.newID(),
		Retailer:  in.Retailer,
		Country:   in.Country,
		Nickname:  in.Nickname,
		Value:     in.Value,
		Format:    in.Format,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.local.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	next := make(model.Cards, 0, len(cards)+1)
	next = append(next, card)
	next = append(next, cards...)
	if err := s.local.ReplaceAll(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save card: %w", err)
	}

	s.logger.Info("card added", zap.String("id", card.ID), zap.String("retailer", card.Retailer), zap.String("format", card.Format))
	return &card, nil
}

// Ingest stores a decoded scan as a new card.
func (s *WalletService) Ingest(ctx context.Context, scan capture.Result, nickname, retailer, country string) (*model.Card, error) {
	scan = capture.Classify(scan.Text, scan.Symbology)
	return s.Add(ctx, model.NewCard{
		Retailer: retailer,
		Country:  country,
		Nickname: nickname,
		Value:    scan.Text,
		Format:   scan.Symbology,
	})
}

// List returns the cards matching f, most recently created first.
func (s *WalletService) List(ctx context.Context, f model.Filter) (model.Cards, error) {
	cards, err := s.local.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	out := make(model.Cards, 0, len(cards))
	for _, c := range cards {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	out.SortByCreated()
	return out, nil
}

// Get returns one card.
func (s *WalletService) Get(ctx context.Context, id string) (*model.Card, error) {
	cards, err := s.local.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	c, ok := cards.Find(id)
	if !ok {
		return nil, model.ErrNotFound
	}
	return &c, nil
}

// Delete removes a card from this device. The remote copy is not touched, so
// the card comes back on the next sync if the remote still has it.
func (s *WalletService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.local.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}
	next := make(model.Cards, 0, len(cards))
	for _, c := range cards {
		if c.ID != id {
			next = append(next, c)
		}
	}
	if len(next) == len(cards) {
		return model.ErrNotFound
	}
	if err := s.local.ReplaceAll(ctx, next); err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	s.logger.Info("card deleted", zap.String("id", id))
	return nil
}

// Render draws the code of a card. The payload class is derived from the
// current value and format on every call.
func (s *WalletService) Render(ctx context.Context, id string) (*render.Image, error) {
	card, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	img, err := s.encoder.Encode(card.Value, card.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to render card %s: %w", id, err)
	}
	return &img, nil
}
