package shard

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

/*
Locks is a fixed set of mutex stripes shared by every partition of one cache namespace.

The tiered store performs multi-step operations on a key (delete-then-write on set,
read-then-hydrate or read-then-delete on get). Holding the stripe for the qualified key
keeps those steps from interleaving with another goroutine working on the same key,
while unrelated keys mostly land on different stripes.
*/
type Locks struct {
	stripes []sync.Mutex
}

// DefaultStripes is used when a non-positive stripe count is requested.
const DefaultStripes = 16

func NewLocks(n int) *Locks {
	if n <= 0 {
		n = DefaultStripes
	}
	return &Locks{stripes: make([]sync.Mutex, n)}
}

// For selects the stripe guarding a qualified key.
func (l *Locks) For(key string) *sync.Mutex {
	idx := xxhash.Sum64String(key) % uint64(len(l.stripes))
	return &l.stripes[idx]
}

// Len returns the number of stripes.
func (l *Locks) Len() int {
	return len(l.stripes)
}
