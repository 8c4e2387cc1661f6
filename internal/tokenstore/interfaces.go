package tokenstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no artifact has been stored.
var ErrNotFound = errors.New("token artifact not found")

// TokenStore reads, writes, and deletes the single token artifact payload.
type TokenStore interface {
	// Read returns the stored artifact payload. Returns ErrNotFound if no
	// artifact exists.
	Read(ctx context.Context) (string, error)

	// Write persists the artifact payload, replacing any previous one.
	// The replacement is atomic.
	Write(ctx context.Context, payload string) error

	// Delete removes the stored artifact. Deleting an absent artifact is
	// not an error.
	Delete(ctx context.Context) error
}
