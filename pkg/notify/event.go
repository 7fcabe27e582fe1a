package notify

import "time"

// EventName is the name carried by failure events.
// Client-side code listening on the WebSocket stream should match on it.
const EventName = "upform:http-response-error"

// Level represents the notification severity.
type Level string

const (
	LevelDanger  Level = "danger"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
)

// Event is a structured notification produced by a form.
type Event struct {
	Name      string            `json:"name"`
	Type      Level             `json:"type"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Status    int               `json:"status,omitempty"`
	Method    string            `json:"method,omitempty"`
	URL       string            `json:"url,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	At        time.Time         `json:"at"`
}

// Danger returns a failure event with the given message.
func Danger(message string) Event {
	return Event{
		Name:    EventName,
		Type:    LevelDanger,
		Message: message,
		At:      time.Now(),
	}
}

// Notifier receives events produced by forms.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

// Notify calls f(e).
func (f NotifierFunc) Notify(e Event) {
	f(e)
}
