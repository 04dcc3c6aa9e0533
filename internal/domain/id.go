package domain

import (
	"github.com/google/uuid"
)

// NewID generates a UUIDv7 string for new records. UUIDv7 values sort by
// creation time, which keeps insert order stable in indexes.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// IsID reports whether s is a well-formed record identifier.
func IsID(s string) bool {
	return uuid.Validate(s) == nil
}
