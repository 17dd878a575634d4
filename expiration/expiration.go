// This file defines how cache records expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/weather-cache/types"
)

/*
Strategy is the interface that all expiration rules must follow. Instead of hard-coding
expiration logic into the tiered store, we define a strategy so the rule can be swapped
per partition.

Expiration is always checked lazily, when a record is read. There is no background sweep.
*/
type Strategy interface {

	// IsExpired reports whether the record must be treated as absent at instant now.
	IsExpired(rec types.Record, now time.Time) bool

	// TTLSeconds reports the configured time-to-live, and false when records never expire.
	TTLSeconds() (int64, bool)
}

// Never is the strategy used by a root cache configured without a TTL.
type Never struct{}

func (Never) IsExpired(types.Record, time.Time) bool { return false }

func (Never) TTLSeconds() (int64, bool) { return 0, false }
