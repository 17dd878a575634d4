package types

import "errors"

// ErrMissingValue is returned by DecodeRecord for JSON that parses but
// carries no value field.
var ErrMissingValue = errors.New("record has no value")
