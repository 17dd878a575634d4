package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Typed is a view of a partition that encodes values of type V as JSON.
type Typed[V any] struct {
	c *PartitionedCache
}

// As returns a typed view of c.
func As[V any](c *PartitionedCache) *Typed[V] {
	return &Typed[V]{c: c}
}

// Get decodes the cached value for key. A value that no longer decodes into V
// is treated like a corrupt record: it is deleted and reported as absent.
func (t *Typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	raw, ok, err := t.c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		eng := t.c.Engine()
		eng.Metrics.Corrupt()
		eng.Logger.Warn("Dropping cache value of unexpected shape",
			slog.String("key", t.c.QualifiedKey(key)),
			slog.Any("error", err))
		return zero, false, t.c.Delete(ctx, key)
	}
	return v, true, nil
}

func (t *Typed[V]) Set(ctx context.Context, key string, value V) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}
	return t.c.Set(ctx, key, raw)
}

func (t *Typed[V]) Delete(ctx context.Context, key string) error {
	return t.c.Delete(ctx, key)
}

// Partition returns the untyped partition behind this view.
func (t *Typed[V]) Partition() *PartitionedCache {
	return t.c
}
