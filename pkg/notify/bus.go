package notify

import (
	"html"
	"log/slog"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Bus is a Notifier that fans events out to its subscribers.
// It is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]func(Event)
	nextID uint64

	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used by the bus and its WebSocket handler.
func WithLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithPolicy replaces the sanitizer applied to event messages.
// A nil policy disables sanitizing.
func WithPolicy(policy *bluemonday.Policy) BusOption {
	return func(b *Bus) {
		b.sanitizer = policy
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:      make(map[uint64]func(Event)),
		sanitizer: bluemonday.StrictPolicy(),
		logger:    slog.Default().With("component", "notify"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn for every future event and returns a function
// that removes it again.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Notify sanitizes e and delivers it to every subscriber in turn.
// Subscribers run on the caller's goroutine.
func (b *Bus) Notify(e Event) {
	if e.Name == "" {
		e.Name = EventName
	}
	e.Message = b.sanitize(e.Message)
	if len(e.Errors) > 0 {
		clean := make(map[string]string, len(e.Errors))
		for field, msg := range e.Errors {
			clean[field] = b.sanitize(msg)
		}
		e.Errors = clean
	}

	b.mu.RLock()
	subs := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	b.logger.Debug("notify", "type", e.Type, "message", e.Message, "subscribers", len(subs))

	for _, fn := range subs {
		fn(e)
	}
}

func (b *Bus) sanitize(s string) string {
	if b.sanitizer == nil || s == "" {
		return s
	}
	// Sanitize escapes entities for HTML output; events carry plain text.
	return strings.TrimSpace(html.UnescapeString(b.sanitizer.Sanitize(s)))
}
