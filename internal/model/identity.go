package model

import "time"

// Identity is the authenticated user a store operation is scoped to.
type Identity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"-"`
}

// Authenticated reports whether the identity carries a user id.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Session is the data stored with a session token.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Event types published on the event bus.
const (
	EventSignedIn      = "identity.signed_in"
	EventSignedOut     = "identity.signed_out"
	EventSyncCompleted = "sync.completed"
	EventSyncFailed    = "sync.failed"
)

// Event is a state change notification delivered to bus subscribers.
type Event struct {
	Type    string    `json:"type"`
	UserID  string    `json:"user_id"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}
