package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a signed-in user.
	ErrNotAuthenticated = &AuthError{Message: "not authenticated"}

	// ErrNotFound is returned when a card id does not exist in the collection.
	ErrNotFound = errors.New("card not found")

	// ErrSyncInProgress is returned when a sync for the same user is already running.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrSyncDisabled is returned when no remote store is configured.
	ErrSyncDisabled = errors.New("sync is not configured")
)

// ValidationError rejects a save with missing or malformed required fields.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AuthError reports a rejected sign-in or a missing identity.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Message, e.Err)
	}
	return "auth: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// Remote operations reported in RemoteError.Op.
const (
	OpPull = "pull"
	OpPush = "push"
)

// RemoteError reports a failed pull or push against the remote store.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// CaptureError reports an unavailable camera, a denied permission or an
// abandoned decode.
type CaptureError struct {
	Reason string
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture %s: %v", e.Reason, e.Err)
	}
	return "capture " + e.Reason
}

func (e *CaptureError) Unwrap() error { return e.Err }

// IsRemote reports whether err is a RemoteError for the given operation.
// An empty op matches any remote operation.
func IsRemote(err error, op string) bool {
	var re *RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return op == "" || re.Op == op
}
