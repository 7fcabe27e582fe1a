package reactive

import "sync"

// Batch groups signal updates into a single notification phase.
// Signals attach to a batch with Signal.InBatch.
//
// Batches nest: notifications only fire when the outermost Run returns.
// A batch is shared by every goroutine that touches its signals, so an
// update made on another goroutine while Run is active is deferred too.
type Batch struct {
	mu      sync.Mutex
	depth   int
	pending []Listener
}

// NewBatch creates an inactive batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Run executes fn with notifications deferred until the outermost Run
// returns. Deferred listeners are notified even if fn panics.
//
// Example:
//
//	batch := NewBatch()
//	first := NewSignal("").InBatch(batch)
//	last := NewSignal("").InBatch(batch)
//	render := Listen(func() { fmt.Println(first.Get(), last.Get()) })
//	first.Subscribe(render)
//	last.Subscribe(render)
//
//	batch.Run(func() {
//	    first.Set("Ada")
//	    last.Set("Lovelace")
//	})
//	// render runs once, printing "Ada Lovelace"
func (b *Batch) Run(fn func()) {
	b.mu.Lock()
	b.depth++
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.depth--
		var updates []Listener
		if b.depth == 0 {
			updates = b.pending
			b.pending = nil
		}
		b.mu.Unlock()

		processPendingUpdates(updates)
	}()

	fn()
}

// Active reports whether a Run call is in progress.
func (b *Batch) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depth > 0
}

// enqueue queues listeners if the batch is active.
// Returns false when the caller should notify immediately.
func (b *Batch) enqueue(listeners []Listener) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.depth == 0 {
		return false
	}
	b.pending = append(b.pending, listeners...)
	return true
}

// processPendingUpdates deduplicates and notifies all pending listeners.
func processPendingUpdates(updates []Listener) {
	if len(updates) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(updates))
	unique := make([]Listener, 0, len(updates))

	for _, listener := range updates {
		id := listener.ID()
		if !seen[id] {
			seen[id] = true
			unique = append(unique, listener)
		}
	}

	for _, listener := range unique {
		listener.MarkDirty()
	}
}
