// Package lazy provides the memoizing cell behind every caseatlas node
package lazy

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Cell is a slot whose value is computed at most once, on first use.
// A successful computation is held for the life of the cell; a failed
// one leaves the cell empty so a later call may try again. Concurrent
// first callers share a single attempt and all receive its outcome.
// The zero value is ready to use.
type Cell[T any] struct {
	mu    sync.Mutex
	group singleflight.Group
	value T
	done  bool

	generations atomic.Int64
}

// Get returns the cell's value, running generate to produce it if the
// cell is still empty. Get blocks until the value is available or the
// shared attempt fails; errors are returned to every waiter of that
// attempt and are never retained.
func (c *Cell[T]) Get(generate func() (T, error)) (T, error) {
	c.mu.Lock()
	if c.done {
		v := c.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("", func() (interface{}, error) {
		// A concurrent winner may have filled the cell between the
		// check above and joining the group.
		c.mu.Lock()
		if c.done {
			v := c.value
			c.mu.Unlock()
			return v, nil
		}
		c.mu.Unlock()

		value, err := generate()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.value = value
		c.done = true
		c.mu.Unlock()
		c.generations.Add(1)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Generations reports how many generate calls have completed
// successfully: 0 before first use, 1 ever after. Failed attempts do
// not count.
func (c *Cell[T]) Generations() int64 {
	return c.generations.Load()
}
