package reactive

// Listener is anything that can be notified when a signal changes.
type Listener interface {
	// MarkDirty notifies the listener that a signal it subscribed to changed.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during subscription and batch processing.
	ID() uint64
}

// funcListener adapts a function to the Listener interface.
type funcListener struct {
	id uint64
	fn func()
}

// Listen returns a Listener that calls fn on every notification.
// Each call returns a listener with a fresh ID.
func Listen(fn func()) Listener {
	return &funcListener{id: nextID(), fn: fn}
}

func (l *funcListener) MarkDirty() {
	if l.fn != nil {
		l.fn()
	}
}

func (l *funcListener) ID() uint64 {
	return l.id
}
