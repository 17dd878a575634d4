package tier

import (
	"context"
	"sync"
	"sync/atomic"
)

/*
Memory is the default in-process tier. This is NOT a normal map.
- Reads should be very fast
- Reads should NOT require locks
- Writes are less frequent and can afford extra work

To achieve this, we use a technique called: "Copy-On-Write" (COW)

What "copy-on-write" means:
---------------------------
- Readers always see an immutable snapshot
- Writers create a NEW copy of the map
- The new map replaces the old one atomically

Writers are serialized by a mutex so two concurrent writes cannot each copy
the same snapshot and lose one another's update.
*/
type Memory struct {

	// data holds the current map[string]string snapshot.
	data atomic.Value

	// size tracks the number of entries without counting the map.
	size atomic.Int64

	mu sync.Mutex
}

func NewMemory() *Memory {
	s := &Memory{}
	s.data.Store(make(map[string]string))
	return s
}

func (s *Memory) snapshot() map[string]string {
	return s.data.Load().(map[string]string)
}

// Read retrieves a value without taking a lock.
func (s *Memory) Read(_ context.Context, key string) (string, bool, error) {
	v, ok := s.snapshot()[key]
	return v, ok, nil
}

/*
Write inserts or updates a value. This is where copy-on-write happens.

1. Load the current map
2. Create a NEW map and copy all existing entries
3. Add the new entry
4. Atomically replace the old map
*/
func (s *Memory) Write(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.snapshot()
	n := make(map[string]string, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = value

	s.data.Store(n)
	s.size.Store(int64(len(n)))
	return nil
}

// Remove deletes a key. Just like Write, this uses copy-on-write.
func (s *Memory) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.snapshot()
	if _, ok := old[key]; !ok {
		return nil
	}

	n := make(map[string]string, len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}

	s.data.Store(n)
	s.size.Store(int64(len(n)))
	return nil
}

// Size returns how many entries are in the store.
func (s *Memory) Size() int64 {
	return s.size.Load()
}
