package notify

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write one event to a client.
	writeWait = 10 * time.Second

	// defaultClientBuffer is the number of events queued per client.
	defaultClientBuffer = 16
)

// HandlerConfig configures the WebSocket event stream.
type HandlerConfig struct {
	// CheckOrigin decides whether an upgrade request is accepted.
	// Default: same-origin only (gorilla/websocket default).
	CheckOrigin func(r *http.Request) bool

	// Buffer is the number of events queued per client before new
	// events are dropped for that client. Default: 16.
	Buffer int
}

// HandlerOption configures the WebSocket event stream.
type HandlerOption func(*HandlerConfig)

// WithCheckOrigin sets the origin check for upgrade requests.
func WithCheckOrigin(fn func(r *http.Request) bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.CheckOrigin = fn
	}
}

// WithBuffer sets the per-client event buffer.
func WithBuffer(n int) HandlerOption {
	return func(c *HandlerConfig) {
		if n > 0 {
			c.Buffer = n
		}
	}
}

// Handler returns an http.Handler that upgrades to WebSocket and streams
// every event published on the bus to the client as JSON.
// Slow clients lose events rather than stall the bus.
func (b *Bus) Handler(opts ...HandlerOption) http.Handler {
	config := HandlerConfig{Buffer: defaultClientBuffer}
	for _, opt := range opts {
		opt(&config)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     config.CheckOrigin,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
			return
		}
		defer conn.Close()

		events := make(chan Event, config.Buffer)
		unsubscribe := b.Subscribe(func(e Event) {
			select {
			case events <- e:
			default:
				b.logger.Warn("dropping event for slow client", "remote", r.RemoteAddr)
			}
		})
		defer unsubscribe()

		// The read loop only watches for the client going away.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		b.logger.Debug("event stream opened", "remote", r.RemoteAddr)

		for {
			select {
			case <-closed:
				b.logger.Debug("event stream closed", "remote", r.RemoteAddr)
				return
			case <-r.Context().Done():
				return
			case e := <-events:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(e); err != nil {
					b.logger.Warn("event write failed", "error", err, "remote", r.RemoteAddr)
					return
				}
			}
		}
	})
}
