package repository

import (
	"time"

	"loyalty-wallet/internal/model"
)

// cardRow is a card as stored in the remote cards table.
type cardRow struct {
	ID        string
	UserID    string
	Retailer  string
	Country   string
	Nickname  string
	Value     string
	Format    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func toRow(userID string, c model.Card) cardRow {
	return cardRow{
		ID:        c.ID,
		UserID:    userID,
		Retailer:  c.Retailer,
		Country:   c.Country,
		Nickname:  c.Nickname,
		Value:     c.Value,
		Format:    c.Format,
		CreatedAt: time.UnixMilli(c.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(c.UpdatedAt).UTC(),
	}
}

func (r cardRow) toCard() model.Card {
	return model.Card{
		ID:        r.ID,
		Retailer:  r.Retailer,
		Country:   r.Country,
		Nickname:  r.Nickname,
		Value:     r.Value,
		Format:    r.Format,
		CreatedAt: r.CreatedAt.UnixMilli(),
		UpdatedAt: r.UpdatedAt.UnixMilli(),
	}
}

// cloneCards returns a copy that does not share the backing array with cards.
func cloneCards(cards model.Cards) model.Cards {
	out := make(model.Cards, len(cards))
	copy(out, cards)
	return out
}
