package types

import (
	"encoding/json"
	"time"
)

/*
Record is the unit stored under every qualified cache key, in both tiers.

It is persisted as a small JSON object:

	{"value": <any JSON>, "createdAt": <unix epoch milliseconds>}

A Record is never mutated after it is built. Updating a key replaces the
whole record (see tiered.Store.Set), which is what resets its age.
*/
type Record struct {
	Value     json.RawMessage `json:"value"`
	CreatedAt int64           `json:"createdAt"`
}

// NewRecord wraps an encoded value with its creation instant.
func NewRecord(value json.RawMessage, now time.Time) Record {
	return Record{Value: value, CreatedAt: now.UnixMilli()}
}

// Created returns the creation instant of the record.
func (r Record) Created() time.Time {
	return time.UnixMilli(r.CreatedAt)
}

// AgeSeconds is the age of the record in whole seconds, rounded down.
func (r Record) AgeSeconds(now time.Time) int64 {
	ms := now.UnixMilli() - r.CreatedAt
	secs := ms / 1000
	if ms%1000 != 0 && ms < 0 {
		secs--
	}
	return secs
}

// Encode renders the record in its persisted form.
func (r Record) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeRecord parses a persisted record. A payload that is not a JSON
// object with a value field is reported as an error.
func DecodeRecord(raw string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Record{}, err
	}
	if r.Value == nil {
		return Record{}, ErrMissingValue
	}
	return r, nil
}
