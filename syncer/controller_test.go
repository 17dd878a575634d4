package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/weather-cache"
	"github.com/krisalay/weather-cache/fetch"
	"github.com/krisalay/weather-cache/location"
	"github.com/krisalay/weather-cache/tier"
	"github.com/krisalay/weather-cache/tiered"
)

type reading struct {
	Temp int `json:"temp"`
}

// fakeWeather counts fetches per zip and can be told to fail a zip.
type fakeWeather struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newFakeWeather() *fakeWeather {
	return &fakeWeather{calls: map[string]int{}, fail: map[string]error{}}
}

func (f *fakeWeather) producerFor(zip string) fetch.Producer[reading] {
	return func(context.Context) (reading, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls[zip]++
		if err := f.fail[zip]; err != nil {
			return reading{}, err
		}
		return reading{Temp: len(zip) * 10}, nil
	}
}

func (f *fakeWeather) callsFor(zip string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[zip]
}

type harness struct {
	durable  *tier.Memory
	registry *location.Registry
	coord    *fetch.Coordinator[reading]
	weather  *fakeWeather
}

func newHarness(t *testing.T, durable *tier.Memory) *harness {
	t.Helper()
	ctx := context.Background()

	ns := tiered.NewNamespace(tier.NewMemory(), durable, nil, 4)
	root := cache.New(ns, cache.Config{KeyPrefix: "GLOBAL", TTLSeconds: cache.TTL(30)}, nil)
	conditions := root.Partition(cache.Config{KeyPrefix: "CONDITIONS"})

	registry, err := location.NewRegistry(ctx, durable)
	require.NoError(t, err)

	return &harness{
		durable:  durable,
		registry: registry,
		coord:    fetch.NewCoordinator(cache.As[reading](conditions)),
		weather:  newFakeWeather(),
	}
}

func (h *harness) controller(opts ...Option) *Controller[reading] {
	return New(h.registry, h.coord, h.weather.producerFor, opts...)
}

func zips(entries []Entry[reading]) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Zip)
	}
	return out
}

func TestAddedDeltaPopulatesConditions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, tier.NewMemory())
	c := h.controller()
	c.Start()
	defer c.Close()

	require.NoError(t, h.registry.AddLocations(ctx, []string{"10001", "94105"}))
	require.NoError(t, c.Sync(ctx))

	got := c.Conditions()
	assert.Equal(t, []string{"10001", "94105"}, zips(got))
	assert.Equal(t, 50, got[0].Data.Temp)

	require.NoError(t, h.registry.AddLocations(ctx, []string{"94105", "60601"}))
	require.NoError(t, c.Sync(ctx))
	assert.Equal(t, []string{"10001", "94105", "60601"}, zips(c.Conditions()))
}

func TestRemovedDeltaDropsConditions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, tier.NewMemory())
	c := h.controller()
	c.Start()
	defer c.Close()

	require.NoError(t, h.registry.AddLocations(ctx, []string{"10001", "94105"}))
	require.NoError(t, h.registry.RemoveLocation(ctx, "10001"))
	require.NoError(t, c.Sync(ctx))

	assert.Equal(t, []string{"94105"}, zips(c.Conditions()))

	// the cache keeps the removed location's data unless asked otherwise
	require.NoError(t, h.registry.AddLocation(ctx, "10001"))
	require.NoError(t, c.Sync(ctx))
	assert.Equal(t, 1, h.weather.callsFor("10001"))
}

func TestEvictOnRemove(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, tier.NewMemory())
	c := h.controller(WithEvictOnRemove())
	c.Start()
	defer c.Close()

	require.NoError(t, h.registry.AddLocation(ctx, "10001"))
	require.NoError(t, c.Sync(ctx))
	require.NoError(t, h.registry.RemoveLocation(ctx, "10001"))
	require.NoError(t, c.Sync(ctx))
	require.NoError(t, h.registry.AddLocation(ctx, "10001"))
	require.NoError(t, c.Sync(ctx))

	assert.Equal(t, 2, h.weather.callsFor("10001"))
}

func TestDeltaIsProcessedOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, tier.NewMemory())
	c := h.controller()
	c.Start()
	defer c.Close()

	require.NoError(t, h.registry.AddLocation(ctx, "10001"))
	require.NoError(t, c.Sync(ctx))
	require.NoError(t, c.Sync(ctx))

	// a redelivered delta is ignored
	c.enqueue(ctx, location.Change{Seq: 1, Kind: location.Added, Keys: []string{"10001"}})
	require.NoError(t, c.Sync(ctx))

	assert.Len(t, c.Conditions(), 1)
}

func TestStartupHydrationIsTreatedAsAdded(t *testing.T) {
	ctx := context.Background()
	durable := tier.NewMemory()
	require.NoError(t, durable.Write(ctx, location.StorageKey, `["10001","60601"]`))

	h := newHarness(t, durable)
	c := h.controller()
	c.Start()
	defer c.Close()

	require.NoError(t, c.Sync(ctx))
	assert.Equal(t, []string{"10001", "60601"}, zips(c.Conditions()))
}

func TestFailedFetchSkipsOnlyThatLocation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, tier.NewMemory())
	boom := errors.New("city not found")
	h.weather.fail["00000"] = boom

	c := h.controller()
	c.Start()
	defer c.Close()

	require.NoError(t, h.registry.AddLocations(ctx, []string{"10001", "00000", "94105"}))
	err := c.Sync(ctx)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"10001", "94105"}, zips(c.Conditions()))
}

func TestRunProcessesChangesInBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newHarness(t, tier.NewMemory())
	c := h.controller()
	c.Start()
	defer c.Close()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.NoError(t, h.registry.AddLocation(ctx, "10001"))
	require.Eventually(t, func() bool {
		return len(c.Conditions()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestChangeDuringStartDoesNotSkipRestoredLocations(t *testing.T) {
	ctx := context.Background()
	durable := tier.NewMemory()
	require.NoError(t, durable.Write(ctx, location.StorageKey, `["10001"]`))

	h := newHarness(t, durable)
	c := h.controller()
	defer c.Close()

	synced := make(chan error, 1)
	c.afterSubscribe = func() {
		// a change lands and a sync starts before the restored delta is queued
		require.NoError(t, h.registry.AddLocation(ctx, "60601"))
		go func() { synced <- c.Sync(ctx) }()

		select {
		case err := <-synced:
			synced <- err
		case <-time.After(50 * time.Millisecond):
		}
	}
	c.Start()

	require.NoError(t, <-synced)
	require.NoError(t, c.Sync(ctx))
	assert.Equal(t, []string{"10001", "60601"}, zips(c.Conditions()))
}
