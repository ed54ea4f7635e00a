package uid

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// userNamespace scopes user ids derived from email addresses.
var userNamespace = uuid.MustParse("6f1d2c84-93b5-4e6b-8a52-3d0f4c6a9e17")

// New generates a new unique identifier.
// Falls back to the current time in milliseconds if no random UUID can be made.
func New() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	return id.String()
}

// FromName derives a stable identifier from name.
func FromName(name string) string {
	return uuid.NewSHA1(userNamespace, []byte(name)).String()
}

// IsValid checks if a string is a valid UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
