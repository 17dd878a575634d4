package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when a fresh record was found in either tier.
	Hit()

	// Miss is called when no usable record was found for a key.
	Miss()

	// Expire is called when a record is removed because it reached its TTL (lazy expiry on read).
	Expire()

	// Corrupt is called when a persisted record could not be decoded and was deleted.
	Corrupt()

	// Provide is called every time a producer is invoked to fill a missing key.
	Provide()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

Components that are not given a Metrics implementation use this one,
so the hot paths never have to check for nil.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()     {}
func (NoopMetrics) Miss()    {}
func (NoopMetrics) Expire()  {}
func (NoopMetrics) Corrupt() {}
func (NoopMetrics) Provide() {}
