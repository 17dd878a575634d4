package tier

import (
	"context"
	"errors"
)

/*
This file defines what a storage tier is.

The tiered store keeps the same logical set of records in two places:
- a fast, volatile, in-process tier
- a durable tier that survives restarts

Both are plain string key-value stores behind the same interface, so any
implementation can play either role. Tests use a Memory store as the durable tier.
*/

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("tier: store is closed")

// Store is a string key-value store. Keys arrive already qualified.
type Store interface {

	// Read returns the stored string, or false when the key is absent.
	Read(ctx context.Context, key string) (string, bool, error)

	// Write stores value under key, replacing any previous value.
	Write(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
