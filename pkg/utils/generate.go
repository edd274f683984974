package utils

import (
	"github.com/google/uuid"
)

// GenerateUUIDString returns a random UUIDv4 string
func GenerateUUIDString() string {
	return uuid.New().String()
}
