package util

import "github.com/google/uuid"

// NewID returns a new random identifier for runs and snapshots.
func NewID() string {
	return uuid.NewString()
}
