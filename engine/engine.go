package engine

import (
	"log/slog"
	"time"

	"github.com/krisalay/weather-cache/expiration"
	"github.com/krisalay/weather-cache/types"
)

/*
CacheEngine is the policy layer of a cache partition.
It is responsible for the "behavior" of the cache, NOT storage.

It decides:
- When a record is expired
- What time it is (so tests can move the clock)
- How hits, misses, expirations and self-heals are reported

It does NOT:
- Store data
- Qualify keys
- Handle locking
*/
type CacheEngine struct {

	// Expiration controls when a record should be considered too old.
	// If this is nil, records never expire.
	Expiration expiration.Strategy

	// Metrics records what the cache is doing.
	Metrics types.Metrics

	// Logger receives self-heal and expiry events.
	Logger *slog.Logger

	// Now is the clock used to stamp and age records.
	Now func() time.Time
}

/*
NewCacheEngine creates a CacheEngine.
Nil collaborators are replaced by defaults so callers never need nil checks.
*/
func NewCacheEngine(
	exp expiration.Strategy,
	metrics types.Metrics,
	logger *slog.Logger,
	now func() time.Time,
) *CacheEngine {
	if exp == nil {
		exp = expiration.Never{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}

	return &CacheEngine{
		Expiration: exp,
		Metrics:    metrics,
		Logger:     logger,
		Now:        now,
	}
}

// WithExpiration returns a copy of the engine using a different expiration strategy.
// Partitions use this to share metrics, logger and clock with their parent.
func (e *CacheEngine) WithExpiration(exp expiration.Strategy) *CacheEngine {
	return NewCacheEngine(exp, e.Metrics, e.Logger, e.Now)
}

// IsExpired checks whether a record is expired at the current engine time.
func (e *CacheEngine) IsExpired(rec types.Record) bool {
	return e.Expiration.IsExpired(rec, e.Now())
}

// Stamp wraps a freshly written value in a record created now.
func (e *CacheEngine) Stamp(value []byte) types.Record {
	return types.NewRecord(value, e.Now())
}
