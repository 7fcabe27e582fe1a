package form

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/upform/pkg/client"
	"github.com/vango-dev/upform/pkg/notify"
)

// RequestOptions configures one submission. All fields are optional.
type RequestOptions struct {
	// BaseURL resolves the URL of this submission only.
	BaseURL string

	// Headers are sent with this submission only, on top of the client's.
	Headers http.Header

	// OnStart is called before the request is dispatched.
	OnStart func()

	// OnSuccess is called with the response of a 2xx request.
	OnSuccess func(*client.Response)

	// OnError is called with the failed response. For network failures
	// the error has no Response.
	OnError func(*client.ResponseError)

	// OnFinish is called after the request settles, whatever the outcome.
	OnFinish func()
}

// Result is the outcome of a settled submission.
type Result struct {
	// Response is set when the request succeeded.
	Response *client.Response

	// Err is set when the request failed.
	Err *client.ResponseError

	// Event is the failure event handed to the notifier, if any.
	Event *notify.Event
}

// OK reports whether the submission succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Submission is a handle on one in-flight request.
type Submission struct {
	ID     string
	Method string
	URL    string

	done   chan struct{}
	result Result
}

// Done is closed once the submission settles and its callbacks returned.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the submission settles and returns its result.
func (s *Submission) Wait() Result {
	<-s.done
	return s.result
}

// Result returns the result if the submission has settled.
func (s *Submission) Result() (Result, bool) {
	select {
	case <-s.done:
		return s.result, true
	default:
		return Result{}, false
	}
}

// Submit sends the transformed form data with the given method and URL.
//
// Processing is true from the call until the request settles. OnStart runs
// before Submit returns; the request itself and the remaining callbacks
// run on a new goroutine. ctx bounds the HTTP request.
func (s *State) Submit(ctx context.Context, method, url string, opts *RequestOptions) *Submission {
	if opts == nil {
		opts = &RequestOptions{}
	}

	s.mu.RLock()
	c := s.client
	policy := s.clearPolicy
	s.mu.RUnlock()

	if opts.BaseURL != "" {
		c = c.WithBaseURL(opts.BaseURL)
	}

	sub := &Submission{
		ID:     uuid.Must(uuid.NewV7()).String(),
		Method: method,
		URL:    url,
		done:   make(chan struct{}),
	}

	s.processing.Set(true)
	if opts.OnStart != nil {
		opts.OnStart()
	}

	req := &client.Request{
		Method:  method,
		URL:     url,
		Headers: opts.Headers.Clone(),
		Body:    s.payload(),
		ID:      sub.ID,
	}

	if policy == ClearBeforeDispatch {
		s.ClearErrors()
	}

	go s.dispatch(ctx, c, req, opts, policy, sub)
	return sub
}

func (s *State) dispatch(ctx context.Context, c *client.Client, req *client.Request, opts *RequestOptions, policy ClearPolicy, sub *Submission) {
	var result Result
	defer func() {
		s.processing.Set(false)
		if opts.OnFinish != nil {
			opts.OnFinish()
		}
		sub.result = result
		close(sub.done)
	}()

	start := time.Now()
	resp, err := c.Do(ctx, req)
	if err == nil {
		if policy == ClearOnSuccess {
			s.ClearErrors()
		}
		s.logger.Info("submission succeeded",
			"method", req.Method,
			"url", req.URL,
			"status", resp.Status,
			"request_id", req.ID,
			"duration", time.Since(start),
		)
		result.Response = resp
		if opts.OnSuccess != nil {
			opts.OnSuccess(resp)
		}
		return
	}

	var rerr *client.ResponseError
	if !stderrors.As(err, &rerr) {
		rerr = &client.ResponseError{Request: req, Message: err.Error(), Err: err}
	}
	result.Err = rerr

	event := failureEvent(req, rerr)
	result.Event = &event

	s.mu.RLock()
	notifier := s.notifier
	s.mu.RUnlock()
	if notifier != nil {
		notifier.Notify(event)
	}

	s.SetErrors(rerr.FieldErrors())

	s.logger.Warn("submission failed",
		"method", req.Method,
		"url", req.URL,
		"status", rerr.Status(),
		"request_id", req.ID,
		"message", event.Message,
		"field_errors", len(event.Errors),
		"duration", time.Since(start),
	)

	if opts.OnError != nil {
		opts.OnError(rerr)
	}
}

// failureEvent builds the danger notification for a failed request.
func failureEvent(req *client.Request, rerr *client.ResponseError) notify.Event {
	event := notify.Danger(rerr.DisplayMessage())
	event.Errors = rerr.FieldErrors()
	event.Status = rerr.Status()
	event.Method = req.Method
	event.URL = req.URL
	event.RequestID = req.ID
	return event
}

// Get submits with GET. The data is sent as the query string.
func (s *State) Get(ctx context.Context, url string, opts *RequestOptions) *Submission {
	return s.Submit(ctx, http.MethodGet, url, opts)
}

// Post submits with POST.
func (s *State) Post(ctx context.Context, url string, opts *RequestOptions) *Submission {
	return s.Submit(ctx, http.MethodPost, url, opts)
}

// Put submits with PUT.
func (s *State) Put(ctx context.Context, url string, opts *RequestOptions) *Submission {
	return s.Submit(ctx, http.MethodPut, url, opts)
}

// Patch submits with PATCH.
func (s *State) Patch(ctx context.Context, url string, opts *RequestOptions) *Submission {
	return s.Submit(ctx, http.MethodPatch, url, opts)
}

// Delete submits with DELETE.
func (s *State) Delete(ctx context.Context, url string, opts *RequestOptions) *Submission {
	return s.Submit(ctx, http.MethodDelete, url, opts)
}

// Options submits with OPTIONS.
func (s *State) Options(ctx context.Context, url string, opts *RequestOptions) *Submission {
	return s.Submit(ctx, http.MethodOptions, url, opts)
}
