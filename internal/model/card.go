package model

import (
	"sort"
	"strings"
	"unicode"
)

// RetailerOther is used when a card does not belong to a known retailer.
const RetailerOther = "Other"

// Card represents one loyalty or membership credential.
// CreatedAt and UpdatedAt are epoch milliseconds.
type Card struct {
	ID        string `json:"id"`
	Retailer  string `json:"retailer"`
	Country   string `json:"country"`
	Nickname  string `json:"nickname"`
	Value     string `json:"value"`
	Format    string `json:"format"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// NewCard holds the user supplied fields for a card that has not been stored yet.
type NewCard struct {
	Retailer string `json:"retailer"`
	Country  string `json:"country"`
	Nickname string `json:"nickname"`
	Value    string `json:"value"`
	Format   string `json:"format"`
}

// Validate checks the required fields of a new card.
func (n NewCard) Validate() error {
	if strings.TrimSpace(n.Value) == "" {
		return &ValidationError{Field: "value", Message: "value is required"}
	}
	if strings.TrimSpace(n.Nickname) == "" {
		return &ValidationError{Field: "nickname", Message: "nickname is required"}
	}
	if c := strings.TrimSpace(n.Country); c != "" && !isCountryCode(c) {
		return &ValidationError{Field: "country", Message: "country must be a 2-letter code"}
	}
	return nil
}

func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// PayloadClass tells the presentation layer which kind of image to render.
type PayloadClass string

const (
	PayloadQR      PayloadClass = "QR"
	PayloadBarcode PayloadClass = "BARCODE"
)

// Class returns the payload class of the card. It is derived from the current
// format and value and is never stored.
func (c Card) Class() PayloadClass {
	return ClassifyPayload(c.Format, c.Value)
}

// RendererFormat returns the renderer symbology for the card.
func (c Card) RendererFormat() string {
	return NormalizeSymbology(c.Format, strings.TrimSpace(c.Value))
}

// Cards is an ordered collection of cards.
type Cards []Card

// ByID returns the collection keyed by card id. Later duplicates win.
func (cs Cards) ByID() map[string]Card {
	m := make(map[string]Card, len(cs))
	for _, c := range cs {
		m[c.ID] = c
	}
	return m
}

// IDs returns the set of ids in the collection.
func (cs Cards) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		ids[c.ID] = struct{}{}
	}
	return ids
}

// Find returns the card with the given id.
func (cs Cards) Find(id string) (Card, bool) {
	for _, c := range cs {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// SortByUpdated orders the collection most recently updated first.
// Ties are broken by id so the order is deterministic.
func (cs Cards) SortByUpdated() {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].UpdatedAt != cs[j].UpdatedAt {
			return cs[i].UpdatedAt > cs[j].UpdatedAt
		}
		return cs[i].ID < cs[j].ID
	})
}

// SortByCreated orders the collection most recently created first.
func (cs Cards) SortByCreated() {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].CreatedAt != cs[j].CreatedAt {
			return cs[i].CreatedAt > cs[j].CreatedAt
		}
		return cs[i].ID < cs[j].ID
	})
}

// Filter narrows a card listing. Empty fields match everything.
type Filter struct {
	Retailer string
	Country  string
	Query    string
}

// Match reports whether the card satisfies the filter.
func (f Filter) Match(c Card) bool {
	if f.Retailer != "" && !strings.EqualFold(f.Retailer, c.Retailer) {
		return false
	}
	if f.Country != "" && !strings.EqualFold(f.Country, c.Country) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(c.Nickname), q) &&
			!strings.Contains(strings.ToLower(c.Retailer), q) {
			return false
		}
	}
	return true
}
