package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID returns a random (v4) UUID string.
func GenerateUUID() string {
	return uuid.NewString()
}

// NewObjectID returns an identifier made of prefix plus a random UUID with
// the dashes removed. Google Slides object IDs must be 5-50 characters of
// [a-zA-Z0-9_].
func NewObjectID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
