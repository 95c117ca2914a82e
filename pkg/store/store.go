// Package store provides the observable value container used by forms. A Store
// holds one value and an ordered list of subscribers; every SetState notifies
// each subscriber exactly once, synchronously, before returning.
//
// Notification runs against a snapshot of the subscriber list taken when the
// value is swapped:
//   - subscribers registered during a notification are not called for it;
//   - subscribers removed during a notification are still called for it.
//
// The value is guarded by a mutex for memory safety only. Subscribers run
// outside the lock, so they may read the store or write to it again.
package store

import "sync"

// Listener receives the new value after each change.
type Listener[T any] func(T)

// Store is an observable single-value container.
type Store[T any] struct {
	mu          sync.Mutex
	value       T
	nextID      uint64
	subscribers []subscription[T]
}

type subscription[T any] struct {
	id uint64
	fn Listener[T]
}

// New returns a store seeded with initial.
func New[T any](initial T) *Store[T] {
	return &Store[T]{value: initial}
}

// State returns the current value.
func (s *Store[T]) State() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// SetState replaces the value and notifies subscribers.
func (s *Store[T]) SetState(value T) {
	s.mu.Lock()
	s.value = value
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(value)
	}
}

// UpdateState computes the next value from the current one and stores it. The
// read and write happen under a single lock so concurrent updaters do not lose
// writes.
func (s *Store[T]) UpdateState(fn func(T) T) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	next := fn(s.value)
	s.value = next
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(next)
	}
}

// Subscribe registers fn and returns a func that removes this registration.
// Registering the same function twice yields two independent registrations.
// The returned func is idempotent.
func (s *Store[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscription[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

// Len returns the number of active subscriptions.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

func (s *Store[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub.id != id {
			continue
		}
		next := make([]subscription[T], 0, len(s.subscribers)-1)
		next = append(next, s.subscribers[:i]...)
		next = append(next, s.subscribers[i+1:]...)
		s.subscribers = next
		return
	}
}

func (s *Store[T]) snapshotLocked() []Listener[T] {
	if len(s.subscribers) == 0 {
		return nil
	}
	out := make([]Listener[T], len(s.subscribers))
	for i, sub := range s.subscribers {
		out[i] = sub.fn
	}
	return out
}
