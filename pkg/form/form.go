package form

import (
	"log/slog"
	"sync"

	"github.com/vango-dev/upform/internal/errors"
	"github.com/vango-dev/upform/pkg/client"
	"github.com/vango-dev/upform/pkg/notify"
	"github.com/vango-dev/upform/pkg/reactive"
)

var (
	// ErrInvalidOperation is returned when defaults are edited on a form
	// built with NewFunc.
	ErrInvalidOperation = errors.New(errors.CodeDefaultsOnFactory)

	// ErrUnknownField is returned when a field outside the form's key set
	// is written.
	ErrUnknownField = errors.New(errors.CodeUnknownField)

	// ErrInvalidPatch is returned by ApplyPatch for malformed patches and
	// patches that add or remove fields.
	ErrInvalidPatch = errors.New(errors.CodeInvalidPatch)
)

// ClearPolicy decides when a submission clears the existing errors.
type ClearPolicy int

const (
	// ClearBeforeDispatch clears all errors when the request is sent.
	// A failed request then leaves only the server's errors.
	ClearBeforeDispatch ClearPolicy = iota

	// ClearOnSuccess keeps errors while the request is in flight and
	// clears them only when it succeeds. A failed request merges the
	// server's errors into the existing ones.
	ClearOnSuccess
)

// String returns the policy name used in configuration files.
func (p ClearPolicy) String() string {
	if p == ClearOnSuccess {
		return "on-success"
	}
	return "before"
}

// errorSet is the error map and its cached non-empty flag, kept in one
// signal so both always change together.
type errorSet struct {
	fields    map[string]string
	hasErrors bool
}

func newErrorSet(fields map[string]string) errorSet {
	return errorSet{fields: fields, hasErrors: len(fields) > 0}
}

// State is the live state of one form. All methods are safe for
// concurrent use. Callbacks and listeners run without internal locks held.
type State struct {
	keys    []string
	factory func() Record

	values     *reactive.Signal[Record]
	defaults   *reactive.Signal[Record]
	errors     *reactive.Signal[errorSet]
	processing *reactive.Signal[bool]
	batch      *reactive.Batch

	mu          sync.RWMutex
	transform   func(Record) any
	client      *client.Client
	notifier    notify.Notifier
	clearPolicy ClearPolicy
	logger      *slog.Logger
}

// Option configures a State.
type Option func(*State)

// WithClient sets the HTTP client used by Submit.
// Default: a client with no base URL.
func WithClient(c *client.Client) Option {
	return func(s *State) {
		if c != nil {
			s.client = c
		}
	}
}

// WithNotifier sets the receiver of failure events. Default: none.
func WithNotifier(n notify.Notifier) Option {
	return func(s *State) {
		s.notifier = n
	}
}

// WithClearPolicy sets when submissions clear existing errors.
// Default: ClearBeforeDispatch.
func WithClearPolicy(p ClearPolicy) Option {
	return func(s *State) {
		s.clearPolicy = p
	}
}

// WithLogger sets the form logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *State) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTransform registers the payload transform at construction.
func WithTransform(fn func(Record) any) Option {
	return func(s *State) {
		s.transform = fn
	}
}

// New builds a form from a fixed initial record. The record is copied;
// later changes to shape do not affect the form.
func New(shape Record, opts ...Option) *State {
	return newState(shape.Clone(), nil, opts)
}

// NewFunc builds a form from a function producing the initial record.
// The function is called once now and again on every full Reset.
func NewFunc(factory func() Record, opts ...Option) *State {
	return newState(callFactory(factory), factory, opts)
}

func callFactory(factory func() Record) Record {
	if factory == nil {
		return Record{}
	}
	return factory().Clone()
}

func newState(initial Record, factory func() Record, opts []Option) *State {
	batch := reactive.NewBatch()
	s := &State{
		keys:       initial.Keys(),
		factory:    factory,
		values:     reactive.NewSignal(initial.Clone()).InBatch(batch),
		defaults:   reactive.NewSignal(initial).InBatch(batch),
		errors:     reactive.NewSignal(newErrorSet(map[string]string{})).InBatch(batch),
		processing: reactive.NewSignal(false).InBatch(batch),
		batch:      batch,
		logger:     slog.Default().With("component", "form"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = client.New(client.Config{}, client.WithLogger(s.logger))
	}
	return s
}

// Keys returns the form's field names in sorted order.
func (s *State) Keys() []string {
	return append([]string(nil), s.keys...)
}

// IsFactory reports whether the form was built with NewFunc.
func (s *State) IsFactory() bool {
	return s.factory != nil
}

func (s *State) hasKey(field string) bool {
	for _, k := range s.keys {
		if k == field {
			return true
		}
	}
	return false
}

// Data returns a snapshot of the tracked fields' current values.
// The snapshot shares no storage with the form.
func (s *State) Data() Record {
	values := s.values.Get()
	out := make(Record, len(s.keys))
	for _, k := range s.keys {
		out[k] = cloneValue(values[k])
	}
	return out
}

// Value returns the current value of one field.
func (s *State) Value(field string) (any, bool) {
	if !s.hasKey(field) {
		return nil, false
	}
	return cloneValue(s.values.Get()[field]), true
}

// Set writes one field's current value.
// Fields outside the form's key set are rejected with ErrUnknownField.
func (s *State) Set(field string, value any) error {
	if !s.hasKey(field) {
		return errors.New(errors.CodeUnknownField).WithField(field)
	}
	value = cloneValue(value)
	s.values.Update(func(cur Record) Record {
		next := make(Record, len(cur))
		for k, v := range cur {
			next[k] = v
		}
		next[field] = value
		return next
	})
	return nil
}

// Defaults returns a copy of the current baseline.
func (s *State) Defaults() Record {
	return s.defaults.Get().Clone()
}

// CaptureDefaults makes the current values the new baseline.
func (s *State) CaptureDefaults() error {
	if err := s.checkStatic(); err != nil {
		return err
	}
	s.defaults.Set(s.Data())
	return nil
}

// SetDefault changes the baseline of one field.
func (s *State) SetDefault(field string, value any) error {
	return s.MergeDefaults(Record{field: value})
}

// MergeDefaults overwrites the baseline of the given fields and leaves
// the others as they are. No change is made if any field is unknown.
func (s *State) MergeDefaults(partial Record) error {
	if err := s.checkStatic(); err != nil {
		return err
	}
	for _, field := range partial.Keys() {
		if !s.hasKey(field) {
			return errors.New(errors.CodeUnknownField).WithField(field)
		}
	}

	partial = partial.Clone()
	s.defaults.Update(func(cur Record) Record {
		next := cur.Clone()
		for k, v := range partial {
			next[k] = v
		}
		return next
	})
	return nil
}

func (s *State) checkStatic() error {
	if s.factory == nil {
		return nil
	}
	return errors.New(errors.CodeDefaultsOnFactory).
		WithSuggestion("Build the form with form.New to change its defaults")
}

// Reset restores values from the baseline.
//
// Without fields every value is restored. A factory form first calls its
// factory again and makes the result the new baseline. With fields only
// those values are restored from the current baseline; unknown names are
// ignored and the baseline is left untouched.
func (s *State) Reset(fields ...string) *State {
	if len(fields) == 0 {
		s.resetAll()
		return s
	}

	defaults := s.defaults.Get()
	s.values.Update(func(cur Record) Record {
		next := make(Record, len(cur))
		for k, v := range cur {
			next[k] = v
		}
		for _, field := range fields {
			if v, ok := defaults[field]; ok {
				next[field] = cloneValue(v)
			}
		}
		return next
	})
	return s
}

func (s *State) resetAll() {
	if s.factory == nil {
		s.values.Set(s.defaults.Get().Clone())
		return
	}

	fresh := s.conform(callFactory(s.factory))
	s.batch.Run(func() {
		s.defaults.Set(fresh.Clone())
		s.values.Set(fresh)
	})
}

// conform restricts a factory result to the form's key set.
func (s *State) conform(r Record) Record {
	out := make(Record, len(s.keys))
	for _, k := range s.keys {
		v, ok := r[k]
		if !ok {
			s.logger.Warn("factory result is missing a field", "field", k)
		}
		out[k] = v
	}
	for k := range r {
		if !s.hasKey(k) {
			s.logger.Warn("factory result has an extra field", "field", k)
		}
	}
	return out
}

// Transform registers the function applied to Data before it is sent.
// It replaces any previous transform; nil restores the identity.
func (s *State) Transform(fn func(Record) any) *State {
	s.mu.Lock()
	s.transform = fn
	s.mu.Unlock()
	return s
}

// payload returns the transformed data for a submission.
func (s *State) payload() any {
	s.mu.RLock()
	fn := s.transform
	s.mu.RUnlock()

	data := s.Data()
	if fn == nil {
		return data
	}
	return fn(data)
}

// Processing reports whether a submission is in flight.
func (s *State) Processing() bool {
	return s.processing.Get()
}
