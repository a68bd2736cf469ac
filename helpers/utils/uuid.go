package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID returns a random v4 UUID
func GenerateUUID() string {
	return uuid.NewString()
}

// NewRunID returns a time-ordered id for a migration run
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// GenerateShortID returns the first 8 hex characters of a random UUID
func GenerateShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
