package tiered

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/krisalay/weather-cache/engine"
	"github.com/krisalay/weather-cache/shard"
	"github.com/krisalay/weather-cache/tier"
	"github.com/krisalay/weather-cache/types"
	"github.com/krisalay/weather-cache/writepolicy"
)

/*
Namespace is the storage shared by every partition of one cache tree:
the in-process tier, the durable tier, the write policy and the key lock stripes.
Partitions never own storage of their own; they only differ in key prefix and TTL.
*/
type Namespace struct {
	Hot     tier.Store
	Durable tier.Store
	Policy  writepolicy.Policy
	Locks   *shard.Locks
}

// NewNamespace composes two tiers. A nil policy means writepolicy.Lazy.
func NewNamespace(hot, durable tier.Store, policy writepolicy.Policy, stripes int) *Namespace {
	if policy == nil {
		policy = writepolicy.Lazy{}
	}
	return &Namespace{
		Hot:     hot,
		Durable: durable,
		Policy:  policy,
		Locks:   shard.NewLocks(stripes),
	}
}

/*
Store is a two-tier expiring key-value store bound to one key prefix.

Get looks in the in-process tier first and falls back to the durable tier,
copying what it finds into memory. Set only writes the durable tier (unless
the namespace uses a warming write policy). Expired and undecodable records
are deleted from both tiers the moment a read notices them.
*/
type Store struct {
	ns     *Namespace
	prefix string
	engine *engine.CacheEngine
}

func New(ns *Namespace, prefix string, eng *engine.CacheEngine) *Store {
	if eng == nil {
		eng = engine.NewCacheEngine(nil, nil, nil, nil)
	}
	return &Store{ns: ns, prefix: prefix, engine: eng}
}

// QualifyKey builds the storage key for key under prefix: PREFIX_KEY, upper-cased.
// An empty prefix adds no separator.
func QualifyKey(prefix, key string) string {
	if prefix == "" {
		return strings.ToUpper(key)
	}
	return strings.ToUpper(prefix + "_" + key)
}

// Qualify returns the storage key used for key in this store.
func (s *Store) Qualify(key string) string {
	return QualifyKey(s.prefix, key)
}

// Prefix returns the prefix the store was created with.
func (s *Store) Prefix() string {
	return s.prefix
}

// Engine returns the policy layer of this store.
func (s *Store) Engine() *engine.CacheEngine {
	return s.engine
}

// Namespace returns the shared storage of this store.
func (s *Store) Namespace() *Namespace {
	return s.ns
}

/*
Lookup returns the fresh record stored for key.

BEHAVIOR:
---------
1. In-process tier hit: use it.
2. Otherwise read the durable tier. Read errors are returned as-is.
3. A record that does not decode is deleted from both tiers and reported as absent.
4. A record whose age reached the TTL is deleted from both tiers and reported as absent.
5. A fresh record read from the durable tier is copied into the in-process tier.
*/
func (s *Store) Lookup(ctx context.Context, key string) (types.Record, bool, error) {
	q := s.Qualify(key)
	mu := s.ns.Locks.For(q)
	mu.Lock()
	defer mu.Unlock()

	raw, fromHot, err := s.ns.Hot.Read(ctx, q)
	if err != nil {
		return types.Record{}, false, fmt.Errorf("read in-process tier %q: %w", q, err)
	}
	if !fromHot {
		var ok bool
		raw, ok, err = s.ns.Durable.Read(ctx, q)
		if err != nil {
			return types.Record{}, false, fmt.Errorf("read durable tier %q: %w", q, err)
		}
		if !ok {
			s.engine.Metrics.Miss()
			return types.Record{}, false, nil
		}
	}

	rec, err := types.DecodeRecord(raw)
	if err != nil {
		s.engine.Metrics.Corrupt()
		s.engine.Metrics.Miss()
		s.engine.Logger.Warn("Dropping corrupt cache record",
			slog.String("key", q),
			slog.Any("error", err))
		return types.Record{}, false, s.removeBoth(ctx, q)
	}

	if s.engine.IsExpired(rec) {
		s.engine.Metrics.Expire()
		s.engine.Metrics.Miss()
		s.engine.Logger.Debug("Cache record expired",
			slog.String("key", q),
			slog.Time("createdAt", rec.Created()))
		return types.Record{}, false, s.removeBoth(ctx, q)
	}

	if !fromHot {
		if err := s.ns.Hot.Write(ctx, q, raw); err != nil {
			// the durable copy is still good; serve it without hydrating
			s.engine.Logger.Warn("Failed to hydrate in-process tier",
				slog.String("key", q),
				slog.Any("error", err))
		}
	}

	s.engine.Metrics.Hit()
	return rec, true, nil
}

// Get returns the encoded value stored for key, or false when there is no fresh record.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	rec, ok, err := s.Lookup(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec.Value, true, nil
}

/*
Set replaces the record for key with a new one created now.

Any existing record is deleted from both tiers first, then the new record is
written to the durable tier. The in-process tier is left to the write policy.
*/
func (s *Store) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("set %q: value is not valid JSON", key)
	}

	q := s.Qualify(key)
	mu := s.ns.Locks.For(q)
	mu.Lock()
	defer mu.Unlock()

	if err := s.removeBoth(ctx, q); err != nil {
		return err
	}

	encoded, err := s.engine.Stamp(value).Encode()
	if err != nil {
		return fmt.Errorf("encode record %q: %w", q, err)
	}
	if err := s.ns.Durable.Write(ctx, q, encoded); err != nil {
		return fmt.Errorf("write durable tier %q: %w", q, err)
	}
	if err := s.ns.Policy.OnWrite(ctx, q, encoded); err != nil {
		return fmt.Errorf("write policy %q: %w", q, err)
	}
	return nil
}

// Delete removes key from both tiers. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	q := s.Qualify(key)
	mu := s.ns.Locks.For(q)
	mu.Lock()
	defer mu.Unlock()

	return s.removeBoth(ctx, q)
}

// removeBoth clears the in-process tier first, so memory is consistent even
// when the durable tier refuses the delete.
func (s *Store) removeBoth(ctx context.Context, q string) error {
	if err := s.ns.Hot.Remove(ctx, q); err != nil {
		return fmt.Errorf("remove in-process tier %q: %w", q, err)
	}
	if err := s.ns.Durable.Remove(ctx, q); err != nil {
		return fmt.Errorf("remove durable tier %q: %w", q, err)
	}
	return nil
}
