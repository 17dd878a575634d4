package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/krisalay/weather-cache/types"
)

// Recorder reports cache events as OpenTelemetry counters tagged with the
// cache name.
type Recorder struct {
	attrs    metric.MeasurementOption
	hits     metric.Int64Counter
	misses   metric.Int64Counter
	expired  metric.Int64Counter
	corrupt  metric.Int64Counter
	provided metric.Int64Counter
}

var _ types.Metrics = (*Recorder)(nil)

// New creates the counters on meter. name is attached to every measurement
// as the "cache" attribute.
func New(meter metric.Meter, name string) (*Recorder, error) {
	r := &Recorder{
		attrs: metric.WithAttributes(attribute.String("cache", name)),
	}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&r.hits, "weathercache.hits", "Lookups served from either tier"},
		{&r.misses, "weathercache.misses", "Lookups that found no usable record"},
		{&r.expired, "weathercache.expired", "Records deleted on read after reaching their TTL"},
		{&r.corrupt, "weathercache.corrupt", "Unreadable records deleted on read"},
		{&r.provided, "weathercache.provided", "Producer invocations on a miss"},
	}
	for _, c := range counters {
		ctr, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("create %s counter: %w", c.name, err)
		}
		*c.dst = ctr
	}
	return r, nil
}

func (r *Recorder) Hit()     { r.hits.Add(context.Background(), 1, r.attrs) }
func (r *Recorder) Miss()    { r.misses.Add(context.Background(), 1, r.attrs) }
func (r *Recorder) Expire()  { r.expired.Add(context.Background(), 1, r.attrs) }
func (r *Recorder) Corrupt() { r.corrupt.Add(context.Background(), 1, r.attrs) }
func (r *Recorder) Provide() { r.provided.Add(context.Background(), 1, r.attrs) }
