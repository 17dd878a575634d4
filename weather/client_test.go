package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/weather-cache"
	"github.com/krisalay/weather-cache/tier"
	"github.com/krisalay/weather-cache/tiered"
)

const conditionsBody = `{"name":"New York","weather":[{"id":800,"main":"Clear","description":"clear sky"}],"main":{"temp":71.6,"temp_min":68,"temp_max":75}}`

const forecastBody = `{"city":{"name":"New York"},"list":[{"dt":1700000000,"temp":{"min":60,"max":72},"weather":[{"id":500,"main":"Rain","description":"light rain"}]}]}`

// newUpstream serves canned responses and counts requests per path.
func newUpstream(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		if q.Get("zip") == "00000,us" {
			http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
			return
		}
		switch r.URL.Path {
		case "/weather":
			_, _ = w.Write([]byte(conditionsBody))
		case "/forecast/daily":
			_, _ = w.Write([]byte(forecastBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) Config {
	return Config{
		AppID:        "test-key",
		BaseURL:      baseURL,
		Units:        "imperial",
		Country:      "us",
		Timeout:      time.Second,
		ForecastDays: 5,
	}
}

func TestClientCurrentConditions(t *testing.T) {
	var seen *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		_, _ = w.Write([]byte(conditionsBody))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	got, err := c.CurrentConditions(context.Background(), "10001")
	require.NoError(t, err)

	assert.Equal(t, "New York", got.Name)
	assert.InDelta(t, 71.6, got.Main.Temp, 0.001)
	require.Len(t, got.Weather, 1)
	assert.Equal(t, 800, got.Weather[0].ID)

	require.NotNil(t, seen)
	assert.Equal(t, "/weather", seen.URL.Path)
	assert.Equal(t, "10001,us", seen.URL.Query().Get("zip"))
	assert.Equal(t, "imperial", seen.URL.Query().Get("units"))
	assert.Equal(t, "test-key", seen.URL.Query().Get("APPID"))
}

func TestClientDailyForecast(t *testing.T) {
	var hits atomic.Int32
	srv := newUpstream(t, &hits)

	got, err := NewClient(testConfig(srv.URL), nil).DailyForecast(context.Background(), "10001")
	require.NoError(t, err)
	assert.Equal(t, "New York", got.City.Name)
	require.Len(t, got.List, 1)
	assert.InDelta(t, 72, got.List[0].Temp.Max, 0.001)
}

func TestClientStatusError(t *testing.T) {
	var hits atomic.Int32
	srv := newUpstream(t, &hits)

	_, err := NewClient(testConfig(srv.URL), nil).CurrentConditions(context.Background(), "00000")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Contains(t, se.Body, "city not found")
}

func TestServiceCachesPerPartition(t *testing.T) {
	ctx := context.Background()
	var hits atomic.Int32
	srv := newUpstream(t, &hits)

	durable := tier.NewMemory()
	ns := tiered.NewNamespace(tier.NewMemory(), durable, nil, 4)
	root := cache.New(ns, cache.Config{KeyPrefix: "GLOBAL", TTLSeconds: cache.TTL(30)}, nil)
	svc := NewService(NewClient(testConfig(srv.URL), nil), root, PartitionTTLs{})

	for i := 0; i < 3; i++ {
		cc, err := svc.CurrentConditions(ctx, "10001")
		require.NoError(t, err)
		assert.Equal(t, "New York", cc.Name)

		fc, err := svc.Forecast(ctx, "10001")
		require.NoError(t, err)
		assert.Len(t, fc.List, 1)
	}
	assert.Equal(t, int32(2), hits.Load(), "one upstream call per partition")

	_, ok, _ := durable.Read(ctx, "GLOBAL_CONDITIONS_10001")
	assert.True(t, ok)
	_, ok, _ = durable.Read(ctx, "GLOBAL_FORECASTS_10001")
	assert.True(t, ok)
}

func TestServiceDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	var hits atomic.Int32
	srv := newUpstream(t, &hits)

	ns := tiered.NewNamespace(tier.NewMemory(), tier.NewMemory(), nil, 4)
	root := cache.New(ns, cache.Config{KeyPrefix: "GLOBAL", TTLSeconds: cache.TTL(30)}, nil)
	svc := NewService(NewClient(testConfig(srv.URL), nil), root, PartitionTTLs{})

	_, err := svc.CurrentConditions(ctx, "00000")
	require.Error(t, err)
	_, err = svc.CurrentConditions(ctx, "00000")
	require.Error(t, err)

	assert.Equal(t, int32(2), hits.Load())
}

func TestServicePartition(t *testing.T) {
	ns := tiered.NewNamespace(tier.NewMemory(), tier.NewMemory(), nil, 4)
	root := cache.New(ns, cache.Config{KeyPrefix: "GLOBAL", TTLSeconds: cache.TTL(30)}, nil)
	svc := NewService(NewClient(testConfig("http://unused"), nil), root, PartitionTTLs{Forecasts: cache.TTL(3600)})

	p, ok := svc.Partition("conditions")
	require.True(t, ok)
	assert.Equal(t, "GLOBAL_CONDITIONS_10001", p.QualifiedKey("10001"))
	ttl, _ := p.TTLSeconds()
	assert.Equal(t, int64(30), ttl)

	p, ok = svc.Partition(ForecastsPartition)
	require.True(t, ok)
	ttl, _ = p.TTLSeconds()
	assert.Equal(t, int64(3600), ttl)

	_, ok = svc.Partition("alerts")
	assert.False(t, ok)
}
