package location

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/krisalay/weather-cache/tier"
)

// StorageKey is the durable key holding the location list as a JSON array.
const StorageKey = "locations"

/*
Registry holds the ordered set of active locations (zip codes).

Every mutation:
- is persisted to the durable store before the call returns
- replaces the pending added or removed delta
- is announced to observers as a Change
*/
type Registry struct {
	mu        sync.Mutex
	store     tier.Store
	logger    *slog.Logger
	locations []string
	members   mapset.Set[string]
	added     *Change
	removed   *Change
	seq       uint64
	observers map[uint64]Observer
	nextObs   uint64
}

type Option func(*Registry)

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

/*
NewRegistry loads the persisted location list and replays it through AddLocations.

The replay leaves a pending Added delta holding the restored locations, which is
how a consumer that subscribes after construction learns about them.
An unreadable list is logged and ignored; the next mutation overwrites it.
*/
func NewRegistry(ctx context.Context, store tier.Store, opts ...Option) (*Registry, error) {
	r := &Registry{
		store:     store,
		logger:    slog.Default(),
		members:   mapset.NewThreadUnsafeSet[string](),
		observers: make(map[uint64]Observer),
	}
	for _, opt := range opts {
		opt(r)
	}

	raw, ok, err := store.Read(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read persisted locations: %w", err)
	}
	if !ok {
		return r, nil
	}

	var saved []string
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		r.logger.Warn("Ignoring unreadable location list",
			slog.String("key", StorageKey),
			slog.Any("error", err))
		return r, nil
	}
	if err := r.AddLocations(ctx, saved); err != nil {
		return nil, err
	}
	return r, nil
}

/*
AddLocations appends the keys that are not yet present, in input order.

When nothing new is left after filtering, nothing changes: no delta, no write,
no notification. Otherwise the pending Added delta becomes exactly the new keys.

The in-memory state and the notification do not depend on the durable write:
a persistence failure is returned after both have happened.
*/
func (r *Registry) AddLocations(ctx context.Context, keys []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fresh []string
	for _, k := range keys {
		if r.members.Add(k) {
			fresh = append(fresh, k)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	r.locations = append(r.locations, fresh...)
	r.seq++
	r.added = &Change{Seq: r.seq, Kind: Added, Keys: fresh}

	err := r.persist(ctx)
	r.notify(ctx, *r.added)
	return err
}

func (r *Registry) AddLocation(ctx context.Context, key string) error {
	return r.AddLocations(ctx, []string{key})
}

// RemoveLocation drops key. Removing a key that is not present does nothing.
func (r *Registry) RemoveLocation(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.members.Contains(key) {
		return nil
	}

	r.members.Remove(key)
	r.locations = slices.DeleteFunc(r.locations, func(k string) bool { return k == key })
	r.seq++
	r.removed = &Change{Seq: r.seq, Kind: Removed, Keys: []string{key}}

	err := r.persist(ctx)
	r.notify(ctx, *r.removed)
	return err
}

// Locations returns a copy of the active locations in insertion order.
func (r *Registry) Locations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.locations)
}

// Added returns the keys of the latest add, or nil when none happened yet.
func (r *Registry) Added() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return keysOf(r.added)
}

// Removed returns the key of the latest removal, or nil when none happened yet.
func (r *Registry) Removed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return keysOf(r.removed)
}

/*
Subscribe registers obs for every future Change and returns the pending
deltas that were produced before the subscription, in Seq order.

Taking both under the same lock means a consumer sees every delta exactly
once: either in pending or through obs, never both and never neither.
*/
func (r *Registry) Subscribe(obs Observer) (pending []Change, cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextObs
	r.nextObs++
	r.observers[id] = obs

	for _, c := range []*Change{r.added, r.removed} {
		if c != nil {
			pending = append(pending, cloneChange(*c))
		}
	}
	slices.SortFunc(pending, func(a, b Change) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		default:
			return 0
		}
	})

	return pending, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.observers, id)
	}
}

// persist writes the location list. Callers hold r.mu.
func (r *Registry) persist(ctx context.Context) error {
	locations := r.locations
	if locations == nil {
		locations = []string{}
	}
	b, err := json.Marshal(locations)
	if err != nil {
		return fmt.Errorf("encode locations: %w", err)
	}
	if err := r.store.Write(ctx, StorageKey, string(b)); err != nil {
		r.logger.Error("Failed to persist locations",
			slog.Int("count", len(locations)),
			slog.Any("error", err))
		return fmt.Errorf("persist locations: %w", err)
	}
	return nil
}

// notify calls observers. Callers hold r.mu.
func (r *Registry) notify(ctx context.Context, c Change) {
	for _, obs := range r.observers {
		obs(ctx, cloneChange(c))
	}
}

func keysOf(c *Change) []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.Keys)
}

func cloneChange(c Change) Change {
	c.Keys = slices.Clone(c.Keys)
	return c
}
