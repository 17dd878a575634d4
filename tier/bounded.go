package tier

import (
	"context"

	"github.com/jellydator/ttlcache/v3"
)

// Bounded is an in-process tier with a fixed capacity. When full, the entry
// closest to eviction is dropped; the durable tier still holds it, so the
// next read simply hydrates it again.
//
// Entries carry no ttlcache TTL: record expiry is decided by the tiered store
// from the record's own createdAt.
type Bounded struct {
	items *ttlcache.Cache[string, string]
}

func NewBounded(capacity uint64) *Bounded {
	return &Bounded{
		items: ttlcache.New(
			ttlcache.WithCapacity[string, string](capacity),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
	}
}

func (b *Bounded) Read(_ context.Context, key string) (string, bool, error) {
	item := b.items.Get(key)
	if item == nil {
		return "", false, nil
	}
	return item.Value(), true, nil
}

func (b *Bounded) Write(_ context.Context, key, value string) error {
	b.items.Set(key, value, ttlcache.NoTTL)
	return nil
}

func (b *Bounded) Remove(_ context.Context, key string) error {
	b.items.Delete(key)
	return nil
}

// Len returns the number of entries currently held.
func (b *Bounded) Len() int {
	return b.items.Len()
}
