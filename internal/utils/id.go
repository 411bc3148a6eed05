package utils

import "github.com/google/uuid"

// GenerateID returns a new random identifier for documents and pipeline records.
func GenerateID() string {
	return uuid.NewString()
}
