package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/weather-cache/expiration"
)

func TestNewCacheEngineDefaults(t *testing.T) {
	e := NewCacheEngine(nil, nil, nil, nil)

	assert.NotNil(t, e.Metrics)
	assert.NotNil(t, e.Logger)
	assert.NotNil(t, e.Now)
	assert.IsType(t, expiration.Never{}, e.Expiration)
}

func TestWithExpirationSharesClock(t *testing.T) {
	fixed := time.UnixMilli(5_000)
	parent := NewCacheEngine(expiration.Never{}, nil, nil, func() time.Time { return fixed })
	child := parent.WithExpiration(expiration.AfterWrite{TTL: 2})

	rec := child.Stamp([]byte(`1`))
	assert.Equal(t, fixed, rec.Created())
	assert.False(t, child.IsExpired(rec))

	child.Now = func() time.Time { return fixed.Add(2 * time.Second) }
	assert.True(t, child.IsExpired(rec))
	assert.False(t, parent.IsExpired(rec))
}
