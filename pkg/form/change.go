package form

import "github.com/vango-dev/upform/pkg/reactive"

// Change names the part of the form state that changed.
type Change string

const (
	ChangeValues     Change = "values"
	ChangeDefaults   Change = "defaults"
	ChangeErrors     Change = "errors"
	ChangeProcessing Change = "processing"
)

// Subscribe calls fn with the kind of every change and returns a function
// that stops the notifications. A full Reset of a factory form reports
// ChangeDefaults and ChangeValues once each, after both are updated.
func (s *State) Subscribe(fn func(Change)) (unsubscribe func()) {
	unsubs := []func(){
		s.values.Subscribe(reactive.Listen(func() { fn(ChangeValues) })),
		s.defaults.Subscribe(reactive.Listen(func() { fn(ChangeDefaults) })),
		s.errors.Subscribe(reactive.Listen(func() { fn(ChangeErrors) })),
		s.processing.Subscribe(reactive.Listen(func() { fn(ChangeProcessing) })),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Watch subscribes l to every part of the form state. Changes made
// together, such as a factory Reset, notify l once.
func (s *State) Watch(l reactive.Listener) (unsubscribe func()) {
	unsubs := []func(){
		s.values.Subscribe(l),
		s.defaults.Subscribe(l),
		s.errors.Subscribe(l),
		s.processing.Subscribe(l),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
