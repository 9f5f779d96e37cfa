package entity

import "sync"

// Cell is a replay-latest broadcast cell: an explicit current-value holder
// plus an observer list. Subscribing atomically snapshots the current value
// (when one exists) before any future publish is delivered, so late
// subscribers never miss the latest state.
//
// Publishes originate from the supervisor's pump goroutine, giving every
// subscriber a strict total order of updates per connection lifetime.
// Callbacks run inline while the cell is locked: they must not block, and
// they must not subscribe to or publish on the same cell.
type Cell[T any] struct {
	mu       sync.Mutex
	value    T
	hasValue bool
	subs     map[int]func(T)
	nextID   int
}

// NewCell creates an empty cell with no current value.
func NewCell[T any]() *Cell[T] {
	return &Cell[T]{subs: make(map[int]func(T))}
}

// Value returns the most recent published value, if any.
func (c *Cell[T]) Value() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.hasValue
}

// Publish replaces the current value and notifies every subscriber.
func (c *Cell[T]) Publish(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = v
	c.hasValue = true
	for _, fn := range c.subs {
		fn(v)
	}
}

// Subscribe registers a callback. If the cell already holds a value, the
// callback receives it immediately, then every subsequent publish until the
// subscription is disposed.
func (c *Cell[T]) Subscribe(fn func(T)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = fn

	if c.hasValue {
		fn(c.value)
	}

	return &Subscription{cancel: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}}
}

// Subscription is a handle to an active cell subscription.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Dispose detaches the subscriber. Safe to call more than once.
func (s *Subscription) Dispose() {
	s.once.Do(s.cancel)
}
