package writepolicy

import (
	"context"

	"github.com/krisalay/weather-cache/tier"
)

/*
Warm writes every persisted record through to the in-process tier as well,
so the first read after a set is served from memory.
*/
type Warm struct {

	// hot is the in-process tier to warm.
	hot tier.Store
}

/*
NewWarm creates a write-through policy for the given in-process tier.
*/
func NewWarm(hot tier.Store) *Warm {
	return &Warm{hot: hot}
}

func (w *Warm) OnWrite(ctx context.Context, key, encoded string) error {
	return w.hot.Write(ctx, key, encoded)
}
