package util

import (
	"time"

	"github.com/google/uuid"
)

// NewUUID returns a time-ordered v7 id, falling back to v4 if the v7 generator keeps failing.
func NewUUID() string {
	const maxRetry = 10
	for i := range maxRetry {
		if id, err := uuid.NewV7(); err == nil {
			return id.String()
		}
		if i < maxRetry-1 {
			// just over the v7 100ns precision
			time.Sleep(200 * time.Nanosecond)
		}
	}
	return uuid.New().String()
}
