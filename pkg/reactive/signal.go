package reactive

import (
	"reflect"
	"sync"
)

// signalBase provides type-erased subscriber management.
type signalBase struct {
	id uint64

	// subs are the listeners subscribed to this signal.
	subs []Listener

	// batch defers notifications while active. May be nil.
	batch *Batch

	// subMu protects subs and batch.
	subMu sync.RWMutex
}

// subscribe adds a listener to this signal's subscribers.
// Deduplicates by listener ID to prevent double-subscription.
func (s *signalBase) subscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}

	s.subs = append(s.subs, l)
}

// unsubscribe removes a listener from this signal's subscribers.
func (s *signalBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			s.subs[i] = s.subs[len(s.subs)-1]
			s.subs = s.subs[:len(s.subs)-1]
			return
		}
	}
}

// notifySubscribers notifies all subscribers that this signal changed.
// Subscribers are copied first so no lock is held during notification.
func (s *signalBase) notifySubscribers() {
	s.subMu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	batch := s.batch
	s.subMu.RUnlock()

	if batch != nil && batch.enqueue(subs) {
		return
	}
	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// Signal is a reactive value container.
// Set and Update notify subscribers only when the value actually changes.
//
// Example:
//
//	count := NewSignal(0)
//	stop := count.Subscribe(Listen(func() {
//	    fmt.Println("count is now", count.Get())
//	}))
//	defer stop()
//
//	count.Set(1)                                  // prints "count is now 1"
//	count.Set(1)                                  // unchanged, no notification
//	count.Update(func(n int) int { return n + 1 }) // prints "count is now 2"
type Signal[T any] struct {
	base signalBase

	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal decides whether a write changed the value. If nil, uses defaultEquals.
	equal func(T, T) bool
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		base: signalBase{
			id: nextID(),
		},
		value: initial,
	}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the signal's value and notifies subscribers if the value changed.
//
// Example:
//
//	name := NewSignal("")
//	name.Set("Ada") // subscribers are notified
//	name.Set("Ada") // equal to the current value, nothing happens
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.base.notifySubscribers()
	}
}

// Update atomically reads and updates the signal's value.
// The function receives the current value and returns the new value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	oldValue := s.value
	newValue := fn(oldValue)
	changed := !s.equals(oldValue, newValue)
	if changed {
		s.value = newValue
	}
	s.mu.Unlock()

	if changed {
		s.base.notifySubscribers()
	}
}

// Subscribe registers l for change notifications and returns a function
// that removes it again. Subscribing the same listener twice is a no-op.
func (s *Signal[T]) Subscribe(l Listener) (unsubscribe func()) {
	s.base.subscribe(l)
	return func() { s.base.unsubscribe(l) }
}

// InBatch attaches the signal to b so its notifications are deferred
// while b.Run is active.
func (s *Signal[T]) InBatch(b *Batch) *Signal[T] {
	s.base.subMu.Lock()
	s.base.batch = b
	s.base.subMu.Unlock()
	return s
}

// WithEquals returns the signal configured with a custom equality function.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

// equals checks if two values are equal using the configured equality function.
func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for common scalar types and reflect.DeepEqual otherwise.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && av == bv
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}
