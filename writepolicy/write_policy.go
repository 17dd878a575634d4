package writepolicy

import "context"

/*
This file defines what a "write policy" is.

A cache set always lands in the durable tier. What differs is what happens to
the in-process tier afterwards:
- Lazy: nothing. The next read hydrates the in-process tier from the durable one.
- Warm: the freshly written record is copied into the in-process tier right away.

Both keep reads identical: a set followed by a get returns the new value.
*/

/*
Policy is the contract that all write policies must follow.
The tiered store does not care which policy is used. It simply calls OnWrite
after the durable write succeeded.
*/
type Policy interface {

	/*
		OnWrite receives the qualified key and the encoded record that was just persisted.
	*/
	OnWrite(ctx context.Context, key, encoded string) error
}

// Lazy leaves the in-process tier cold after a write.
type Lazy struct{}

func (Lazy) OnWrite(context.Context, string, string) error { return nil }
