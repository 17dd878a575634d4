package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/krisalay/weather-cache/fetch"
	"github.com/krisalay/weather-cache/location"
)

// Entry is one location's data in the current-conditions collection.
type Entry[V any] struct {
	Zip  string `json:"zip"`
	Data V      `json:"data"`
}

// ProducerFor builds the producer fetching data for one location.
type ProducerFor[V any] func(zip string) fetch.Producer[V]

/*
Controller keeps a current-conditions collection in step with a location registry.

Registry changes are queued as they happen and processed by Sync (or by Run,
which calls Sync whenever something is queued):
- an Added delta fetches every key through the coordinator and appends the results
- a Removed delta drops the matching entries

Each delta is processed at most once, identified by its sequence number.
*/
type Controller[V any] struct {
	registry      *location.Registry
	coord         *fetch.Coordinator[V]
	producerFor   ProducerFor[V]
	logger        *slog.Logger
	evictOnRemove bool
	concurrency   int

	qmu     sync.Mutex
	queue   []location.Change
	wake    chan struct{}
	cancel  func()
	started bool

	// procMu serializes Sync so deltas apply in order.
	procMu  sync.Mutex
	lastSeq uint64

	cmu        sync.RWMutex
	conditions []Entry[V]

	// afterSubscribe runs inside Start once the subscription exists; tests only.
	afterSubscribe func()
}

type Option func(*options)

type options struct {
	logger        *slog.Logger
	evictOnRemove bool
	concurrency   int
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEvictOnRemove also deletes a removed location's cached data.
func WithEvictOnRemove() Option {
	return func(o *options) { o.evictOnRemove = true }
}

// WithConcurrency bounds how many producers run at once for one Added delta.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

func New[V any](
	registry *location.Registry,
	coord *fetch.Coordinator[V],
	producerFor ProducerFor[V],
	opts ...Option,
) *Controller[V] {
	o := options{logger: slog.Default(), concurrency: 4}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency <= 0 {
		o.concurrency = 1
	}
	return &Controller[V]{
		registry:      registry,
		coord:         coord,
		producerFor:   producerFor,
		logger:        o.logger,
		evictOnRemove: o.evictOnRemove,
		concurrency:   o.concurrency,
		wake:          make(chan struct{}, 1),
	}
}

// Start subscribes to the registry and queues the deltas it already holds,
// including the one left by restoring persisted locations.
func (c *Controller[V]) Start() {
	c.qmu.Lock()
	if c.started {
		c.qmu.Unlock()
		return
	}
	c.started = true
	c.qmu.Unlock()

	// Sync must not run between Subscribe and queueing pending, or a newer
	// change could advance lastSeq past the pending ones.
	c.procMu.Lock()
	defer c.procMu.Unlock()

	pending, cancel := c.registry.Subscribe(c.enqueue)

	c.qmu.Lock()
	c.cancel = cancel
	c.qmu.Unlock()

	if c.afterSubscribe != nil {
		c.afterSubscribe()
	}
	for _, ch := range pending {
		c.enqueue(context.Background(), ch)
	}
}

// Close stops receiving registry changes. Queued changes are kept.
func (c *Controller[V]) Close() {
	c.qmu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.qmu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Controller[V]) enqueue(_ context.Context, ch location.Change) {
	c.qmu.Lock()
	c.queue = append(c.queue, ch)
	c.qmu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

/*
Sync processes every queued change in sequence order and returns once the
queue is empty. Failed fetches do not stop the remaining keys; their errors
are returned together.
*/
func (c *Controller[V]) Sync(ctx context.Context) error {
	c.procMu.Lock()
	defer c.procMu.Unlock()

	var errs *multierror.Error
	for {
		c.qmu.Lock()
		batch := c.queue
		c.queue = nil
		c.qmu.Unlock()

		if len(batch) == 0 {
			return errs.ErrorOrNil()
		}

		slices.SortFunc(batch, func(a, b location.Change) int {
			switch {
			case a.Seq < b.Seq:
				return -1
			case a.Seq > b.Seq:
				return 1
			default:
				return 0
			}
		})

		for _, ch := range batch {
			if ch.Seq <= c.lastSeq {
				continue
			}
			c.lastSeq = ch.Seq

			if err := c.apply(ctx, ch); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
}

// Run calls Sync every time a change is queued, until ctx is done.
func (c *Controller[V]) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
			if err := c.Sync(ctx); err != nil {
				c.logger.Warn("Location sync finished with errors", slog.Any("error", err))
			}
		}
	}
}

func (c *Controller[V]) apply(ctx context.Context, ch location.Change) error {
	c.logger.Debug("Applying location change",
		slog.Uint64("seq", ch.Seq),
		slog.String("kind", ch.Kind.String()),
		slog.Any("keys", ch.Keys))

	switch ch.Kind {
	case location.Added:
		return c.populate(ctx, ch.Keys)
	case location.Removed:
		return c.drop(ctx, ch.Keys)
	default:
		return fmt.Errorf("unknown change kind %d", ch.Kind)
	}
}

func (c *Controller[V]) populate(ctx context.Context, keys []string) error {
	type result struct {
		data V
		ok   bool
		err  error
	}
	results := make([]result, len(keys))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, zip := range keys {
		g.Go(func() error {
			v, err := c.coord.GetOrProvide(ctx, zip, c.producerFor(zip))
			switch {
			case err == nil:
				results[i] = result{data: v, ok: true}
			case errors.Is(err, fetch.ErrNotCached):
				results[i] = result{data: v, ok: true, err: err}
			default:
				results[i] = result{err: fmt.Errorf("fetch %s: %w", zip, err)}
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs *multierror.Error
	var entries []Entry[V]
	for i, r := range results {
		if r.err != nil {
			c.logger.Warn("Failed to populate location",
				slog.String("zip", keys[i]),
				slog.Any("error", r.err))
			errs = multierror.Append(errs, r.err)
		}
		if r.ok {
			entries = append(entries, Entry[V]{Zip: keys[i], Data: r.data})
		}
	}

	c.cmu.Lock()
	c.conditions = append(c.conditions, entries...)
	c.cmu.Unlock()

	return errs.ErrorOrNil()
}

func (c *Controller[V]) drop(ctx context.Context, keys []string) error {
	c.cmu.Lock()
	c.conditions = slices.DeleteFunc(c.conditions, func(e Entry[V]) bool {
		return slices.Contains(keys, e.Zip)
	})
	c.cmu.Unlock()

	if !c.evictOnRemove {
		return nil
	}
	var errs *multierror.Error
	for _, zip := range keys {
		if err := c.coord.Evict(ctx, zip); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("evict %s: %w", zip, err))
		}
	}
	return errs.ErrorOrNil()
}

// Conditions returns a copy of the collection in insertion order.
func (c *Controller[V]) Conditions() []Entry[V] {
	c.cmu.RLock()
	defer c.cmu.RUnlock()
	return slices.Clone(c.conditions)
}
