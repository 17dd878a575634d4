package weather

import (
	"context"
	"strings"

	cache "github.com/krisalay/weather-cache"
	"github.com/krisalay/weather-cache/fetch"
)

// Partition names under the root cache.
const (
	ConditionsPartition = "CONDITIONS"
	ForecastsPartition  = "FORECASTS"
)

// PartitionTTLs overrides partition TTLs; nil inherits the root TTL.
type PartitionTTLs struct {
	Conditions *int64
	Forecasts  *int64
}

// Service serves weather data through two cache partitions, one for current
// conditions and one for forecasts.
type Service struct {
	client     *Client
	partitions map[string]*cache.PartitionedCache
	conditions *fetch.Coordinator[CurrentConditions]
	forecasts  *fetch.Coordinator[Forecast]
}

func NewService(client *Client, root *cache.PartitionedCache, ttls PartitionTTLs, opts ...fetch.Option) *Service {
	conditions := root.Partition(cache.Config{KeyPrefix: ConditionsPartition, TTLSeconds: ttls.Conditions})
	forecasts := root.Partition(cache.Config{KeyPrefix: ForecastsPartition, TTLSeconds: ttls.Forecasts})

	return &Service{
		client: client,
		partitions: map[string]*cache.PartitionedCache{
			ConditionsPartition: conditions,
			ForecastsPartition:  forecasts,
		},
		conditions: fetch.NewCoordinator(cache.As[CurrentConditions](conditions), opts...),
		forecasts:  fetch.NewCoordinator(cache.As[Forecast](forecasts), opts...),
	}
}

// Partition returns the cache partition registered under name
// (ConditionsPartition or ForecastsPartition, case-insensitive).
func (s *Service) Partition(name string) (*cache.PartitionedCache, bool) {
	p, ok := s.partitions[strings.ToUpper(name)]
	return p, ok
}

// Conditions is the coordinator behind the current-conditions partition.
func (s *Service) Conditions() *fetch.Coordinator[CurrentConditions] {
	return s.conditions
}

// ConditionsProducer returns the producer fetching current conditions for zip.
func (s *Service) ConditionsProducer(zip string) fetch.Producer[CurrentConditions] {
	return func(ctx context.Context) (CurrentConditions, error) {
		return s.client.CurrentConditions(ctx, zip)
	}
}

// CurrentConditions returns cached current conditions for zip, fetching on a miss.
func (s *Service) CurrentConditions(ctx context.Context, zip string) (CurrentConditions, error) {
	return s.conditions.GetOrProvide(ctx, zip, s.ConditionsProducer(zip))
}

// Forecast returns the cached forecast for zip, fetching on a miss.
func (s *Service) Forecast(ctx context.Context, zip string) (Forecast, error) {
	return s.forecasts.GetOrProvide(ctx, zip, func(ctx context.Context) (Forecast, error) {
		return s.client.DailyForecast(ctx, zip)
	})
}
