package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	cache "github.com/krisalay/weather-cache"
)

// ErrNotCached wraps a cache write failure that happened after the producer
// succeeded. GetOrProvide still returns the produced value alongside it.
var ErrNotCached = errors.New("fetch: produced value was not cached")

// Producer computes a value for a missing key, typically with a network call.
type Producer[V any] func(ctx context.Context) (V, error)

/*
Coordinator implements get-or-provide over one typed cache partition.

By default two goroutines that miss the same key at the same time both run
their producer and both write the cache; the later write wins. WithCoalescing
switches on at-most-one in-flight producer per qualified key.
*/
type Coordinator[V any] struct {
	cache    *cache.Typed[V]
	coalesce bool
	sf       singleflight.Group
	logger   *slog.Logger
}

type Option func(*options)

type options struct {
	coalesce bool
	logger   *slog.Logger
}

// WithCoalescing makes concurrent callers for the same key share one producer call.
func WithCoalescing() Option {
	return func(o *options) { o.coalesce = true }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func NewCoordinator[V any](c *cache.Typed[V], opts ...Option) *Coordinator[V] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Coordinator[V]{
		cache:    c,
		coalesce: o.coalesce,
		logger:   o.logger,
	}
}

/*
GetOrProvide returns the cached value for key when a fresh one exists,
without calling producer.

Otherwise it calls producer once, stores the result with Set and returns it.
A producer error is returned unchanged and nothing is cached. A cache read
error is returned before the producer is considered.
*/
func (c *Coordinator[V]) GetOrProvide(ctx context.Context, key string, producer Producer[V]) (V, error) {
	if v, ok, err := c.cache.Get(ctx, key); err != nil || ok {
		return v, err
	}

	if !c.coalesce {
		return c.provide(ctx, key, producer)
	}

	qualified := c.cache.Partition().QualifiedKey(key)
	res, err, shared := c.sf.Do(qualified, func() (any, error) {
		v, err := c.provide(ctx, key, producer)
		return v, err
	})
	if shared {
		c.logger.Debug("Shared in-flight producer call", slog.String("key", qualified))
	}
	v, _ := res.(V)
	return v, err
}

func (c *Coordinator[V]) provide(ctx context.Context, key string, producer Producer[V]) (V, error) {
	c.cache.Partition().Engine().Metrics.Provide()

	v, err := producer(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	if err := c.cache.Set(ctx, key, v); err != nil {
		c.logger.Warn("Failed to cache produced value",
			slog.String("key", c.cache.Partition().QualifiedKey(key)),
			slog.Any("error", err))
		return v, fmt.Errorf("%w: %w", ErrNotCached, err)
	}
	return v, nil
}

// Evict drops the cached value for key.
func (c *Coordinator[V]) Evict(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}
