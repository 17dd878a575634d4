package location

import "context"

// ChangeKind tells whether a Change carries added or removed locations.
type ChangeKind int

const (
	Added ChangeKind = iota + 1
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is the delta produced by one registry mutation.
// Seq increases by one for every mutation of a registry, so a consumer can
// tell a delta it already processed from a new one.
type Change struct {
	Seq  uint64
	Kind ChangeKind
	Keys []string
}

// Observer receives every Change, in Seq order.
//
// Observers are called while the registry is locked: they must return quickly
// and must not call back into the registry. Queue the change and process it
// elsewhere.
type Observer func(ctx context.Context, c Change)
