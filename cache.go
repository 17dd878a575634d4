package cache

import (
	"context"
	"encoding/json"

	"github.com/krisalay/weather-cache/engine"
	"github.com/krisalay/weather-cache/expiration"
	"github.com/krisalay/weather-cache/tiered"
	"github.com/krisalay/weather-cache/types"
)

/*
Cache defines the PUBLIC API of a cache partition.
Storage tiers, key qualification, expiry and locking are hidden behind it.
*/
type Cache interface {

	/*
		Get retrieves the encoded value stored for key.

		BEHAVIOR:
		-------------------
		1. If a fresh record exists in memory or durably:
		   - Return its value (durable hits are copied into memory)

		2. If the record is missing, expired or corrupt:
		   - Return false (expired and corrupt records are deleted)
	*/
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Set replaces the record for key with a new one created now.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes key from both tiers. Deleting an absent key is safe.
	Delete(ctx context.Context, key string) error

	// Partition returns a child cache scoped under this cache's prefix.
	Partition(cfg Config) *PartitionedCache
}

// Config configures one partition.
//
// KeyPrefix is qualified under the parent's prefix, so a child "CONDITIONS"
// under a root "GLOBAL" stores its keys as GLOBAL_CONDITIONS_<KEY>.
// A nil TTLSeconds inherits the parent's TTL; at the root it means records
// never expire.
type Config struct {
	KeyPrefix  string
	TTLSeconds *int64
}

// TTL is a helper for filling Config.TTLSeconds.
func TTL(seconds int64) *int64 {
	return &seconds
}

/*
PartitionedCache is a cache bound to one effective prefix and TTL.
Every partition of a tree shares the same tiered.Namespace: partitioning only
changes how keys are qualified and when records expire.
*/
type PartitionedCache struct {
	store *tiered.Store
}

var _ Cache = (*PartitionedCache)(nil)

// New creates a root cache over ns. eng supplies metrics, logger and clock;
// its expiration strategy is replaced by the one derived from cfg.
func New(ns *tiered.Namespace, cfg Config, eng *engine.CacheEngine) *PartitionedCache {
	if eng == nil {
		eng = engine.NewCacheEngine(nil, nil, nil, nil)
	}
	var exp expiration.Strategy = expiration.Never{}
	if cfg.TTLSeconds != nil {
		exp = expiration.AfterWrite{TTL: *cfg.TTLSeconds}
	}
	return &PartitionedCache{
		store: tiered.New(ns, cfg.KeyPrefix, eng.WithExpiration(exp)),
	}
}

/*
Partition creates a child cache. The parent is not modified.

- effective prefix = PARENTPREFIX_CHILDPREFIX (upper-cased)
- TTL = cfg.TTLSeconds when set, otherwise the parent's TTL
*/
func (c *PartitionedCache) Partition(cfg Config) *PartitionedCache {
	parentEngine := c.store.Engine()

	exp := parentEngine.Expiration
	if cfg.TTLSeconds != nil {
		exp = expiration.AfterWrite{TTL: *cfg.TTLSeconds}
	}

	return &PartitionedCache{
		store: tiered.New(
			c.store.Namespace(),
			c.store.Qualify(cfg.KeyPrefix),
			parentEngine.WithExpiration(exp),
		),
	}
}

func (c *PartitionedCache) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	return c.store.Get(ctx, key)
}

// Lookup is Get returning the whole record, creation time included.
func (c *PartitionedCache) Lookup(ctx context.Context, key string) (types.Record, bool, error) {
	return c.store.Lookup(ctx, key)
}

func (c *PartitionedCache) Set(ctx context.Context, key string, value json.RawMessage) error {
	return c.store.Set(ctx, key, value)
}

func (c *PartitionedCache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Prefix returns the effective prefix of this partition.
func (c *PartitionedCache) Prefix() string {
	return c.store.Prefix()
}

// QualifiedKey returns the storage key used for key in this partition.
func (c *PartitionedCache) QualifiedKey(key string) string {
	return c.store.Qualify(key)
}

// TTLSeconds returns the effective TTL, and false when records never expire.
func (c *PartitionedCache) TTLSeconds() (int64, bool) {
	return c.store.Engine().Expiration.TTLSeconds()
}

// Engine exposes the policy layer, mainly for logging and metrics.
func (c *PartitionedCache) Engine() *engine.CacheEngine {
	return c.store.Engine()
}
