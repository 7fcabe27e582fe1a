package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/vango-dev/upform/internal/errors"
)

const (
	// DefaultUserAgent is sent when the configuration does not set one.
	DefaultUserAgent = "upform/1"

	// RequestIDHeader carries the per-request id.
	RequestIDHeader = "X-Request-ID"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 32 << 20
)

// ErrInvalidMethod is returned (wrapped in a *ResponseError) for methods
// outside the supported set.
var ErrInvalidMethod = errors.New(errors.CodeInvalidMethod)

// absoluteURL matches URLs with a scheme or protocol-relative URLs.
var absoluteURL = regexp.MustCompile(`^(?i)([a-z][a-z\d+\-.]*:)?//`)

// Doer performs one HTTP round trip. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to the Doer interface.
type DoerFunc func(*http.Request) (*http.Response, error)

// Do calls f(req).
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware wraps a Doer.
type Middleware func(Doer) Doer

// Config is the per-client transport configuration.
type Config struct {
	// BaseURL is prefixed to relative request URLs.
	BaseURL string

	// Headers are sent with every request unless the request overrides them.
	Headers http.Header

	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration

	// UserAgent overrides DefaultUserAgent.
	UserAgent string
}

// Client sends form payloads and decodes responses.
// It is safe for concurrent use.
type Client struct {
	config Config
	doer   Doer
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the underlying Doer (default: http.DefaultClient).
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithMiddleware wraps the Doer. The first middleware is outermost.
// Apply after WithDoer when both are used.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Client) {
		for i := len(mw) - 1; i >= 0; i-- {
			if mw[i] != nil {
				c.doer = mw[i](c.doer)
			}
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client from config.
func New(config Config, opts ...Option) *Client {
	c := &Client{
		config: config,
		doer:   http.DefaultClient,
		logger: slog.Default().With("component", "client"),
	}
	c.config.Headers = config.Headers.Clone()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	cfg := c.config
	cfg.Headers = c.config.Headers.Clone()
	return cfg
}

// WithBaseURL returns a copy of the client that resolves relative URLs
// against base. The receiver is not modified.
func (c *Client) WithBaseURL(base string) *Client {
	clone := *c
	clone.config.BaseURL = base
	return &clone
}

// ResolveURL joins a relative URL onto the base URL. Absolute URLs are
// returned unchanged.
func (c *Client) ResolveURL(rawURL string) string {
	base := c.config.BaseURL
	if base == "" || absoluteURL.MatchString(rawURL) {
		return rawURL
	}
	if rawURL == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rawURL, "/")
}

// NormalizeMethod upper-cases method and checks it is supported.
func NormalizeMethod(method string) (string, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return m, nil
	}
	return "", errors.New(errors.CodeInvalidMethod).WithDetail(fmt.Sprintf("method %q is not supported", method))
}

// Do sends req exactly once. Any failure is returned as a *ResponseError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.ID == "" {
		req.ID = req.Headers.Get(RequestIDHeader)
	}
	if req.ID == "" {
		req.ID = uuid.Must(uuid.NewV7()).String()
	}

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, &ResponseError{Request: req, Data: emptyErrorData(), Message: err.Error(), Err: err}
	}

	if c.config.Timeout > 0 {
		tctx, cancel := context.WithTimeout(httpReq.Context(), c.config.Timeout)
		defer cancel()
		httpReq = httpReq.WithContext(tctx)
	}

	c.logger.Debug("dispatch",
		"method", httpReq.Method,
		"url", httpReq.URL.String(),
		"request_id", req.ID,
	)

	httpResp, err := c.doer.Do(httpReq)
	if err != nil {
		terr := errors.New(errors.CodeTransport).Wrap(err)
		return nil, &ResponseError{Request: req, Data: emptyErrorData(), Message: err.Error(), Err: terr}
	}
	defer httpResp.Body.Close()

	resp, err := readResponse(req, httpResp)
	if err != nil {
		return nil, &ResponseError{Request: req, Data: emptyErrorData(), Message: err.Error(), Err: err}
	}

	if resp.Status < 200 || resp.Status > 299 {
		return nil, &ResponseError{
			Request:  req,
			Response: resp,
			Data:     parseErrorData(resp.Data),
			Message:  fmt.Sprintf("Request failed with status code %d", resp.Status),
		}
	}
	return resp, nil
}

// build turns req into an *http.Request with the body or query encoded.
func (c *Client) build(ctx context.Context, req *Request) (*http.Request, error) {
	method, err := NormalizeMethod(req.Method)
	if err != nil {
		return nil, err
	}

	target := c.ResolveURL(req.URL)

	var body io.Reader
	var contentType string
	if method == http.MethodGet || method == http.MethodHead {
		target, err = appendQuery(target, req.Body)
		if err != nil {
			return nil, err
		}
	} else if req.Body != nil {
		payload, err := sonic.Marshal(req.Body)
		if err != nil {
			return nil, errors.New(errors.CodeRequestEncode).Wrap(err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidURL).Wrap(err)
	}

	httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	ua := c.config.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	httpReq.Header.Set("User-Agent", ua)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, values := range c.config.Headers {
		httpReq.Header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	for key, values := range req.Headers {
		httpReq.Header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	httpReq.Header.Set(RequestIDHeader, req.ID)

	return httpReq, nil
}

// readResponse reads and decodes the body of httpResp.
func readResponse(req *Request, httpResp *http.Response) (*Response, error) {
	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.New(errors.CodeTransport).Wrap(err)
	}

	return &Response{
		Status:  httpResp.StatusCode,
		Headers: httpResp.Header,
		Data:    decodeBody(raw),
		Raw:     raw,
		Request: req,
	}, nil
}

// decodeBody decodes JSON bodies; anything else is kept as a string.
func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var data any
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return string(raw)
	}
	return data
}
