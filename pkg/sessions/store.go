package sessions

import (
	"context"
	"time"
)

// Record is the unit of persistence for one session. The ID is stable
// across token rotations; the token under which the record is stored is
// what the client presents and what rotates.
type Record struct {
	Data map[string]string `json:"data"`
	ID   string            `json:"id"`
}

// Store defines the interface for session persistence backends.
type Store interface {
	// Load retrieves the record stored under token.
	// Returns ErrNotFound if the token is unknown or has expired.
	Load(ctx context.Context, token string) (*Record, error)

	// Save persists the record under token with the given TTL,
	// overwriting any previous state and restarting the TTL.
	Save(ctx context.Context, token string, rec *Record, ttl time.Duration) error

	// Delete removes the record stored under token.
	// Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
