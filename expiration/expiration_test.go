package expiration

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/weather-cache/types"
)

func TestAfterWriteBoundary(t *testing.T) {
	t0 := time.UnixMilli(1_000_000)
	rec := types.NewRecord(json.RawMessage(`"v"`), t0)

	for _, ttl := range []int64{1, 5, 30, 3600} {
		s := AfterWrite{TTL: ttl}
		boundary := t0.Add(time.Duration(ttl) * time.Second)

		assert.False(t, s.IsExpired(rec, t0), "ttl=%d at t0", ttl)
		assert.False(t, s.IsExpired(rec, boundary.Add(-time.Millisecond)), "ttl=%d just before", ttl)
		assert.True(t, s.IsExpired(rec, boundary), "ttl=%d at boundary", ttl)
		assert.True(t, s.IsExpired(rec, boundary.Add(time.Hour)), "ttl=%d long after", ttl)
	}
}

func TestAfterWriteNonPositiveTTLAlwaysExpired(t *testing.T) {
	t0 := time.UnixMilli(42_000)
	rec := types.NewRecord(json.RawMessage(`1`), t0)

	assert.True(t, AfterWrite{TTL: 0}.IsExpired(rec, t0))
	assert.True(t, AfterWrite{TTL: -10}.IsExpired(rec, t0))
}

func TestNeverExpires(t *testing.T) {
	rec := types.NewRecord(json.RawMessage(`1`), time.UnixMilli(0))
	assert.False(t, Never{}.IsExpired(rec, time.Now()))

	_, ok := Never{}.TTLSeconds()
	assert.False(t, ok)
}
