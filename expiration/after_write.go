package expiration

import (
	"time"

	"github.com/krisalay/weather-cache/types"
)

/*
AfterWrite expires a record a fixed number of whole seconds after it was written.
Reads never extend the lifetime of a record; only a new write does.

A record is expired once its age, rounded down to whole seconds, reaches TTL.
A TTL of zero or less therefore means every record is already expired when read.
*/
type AfterWrite struct {
	TTL int64
}

// IsExpired checks whether the record is expired at this moment.
func (e AfterWrite) IsExpired(rec types.Record, now time.Time) bool {
	return rec.AgeSeconds(now) >= e.TTL
}

func (e AfterWrite) TTLSeconds() (int64, bool) { return e.TTL, true }
