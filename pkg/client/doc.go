// Package client is the HTTP transport used by form submissions.
//
// A Client holds its own configuration: base URL, default headers and
// timeout. Nothing is process-wide; a per-call base URL is a copy made
// with WithBaseURL.
//
//	c := client.New(client.Config{
//	    BaseURL: "https://api.example.com",
//	    Headers: http.Header{"Authorization": []string{"Bearer " + token}},
//	})
//
//	resp, err := c.Do(ctx, &client.Request{
//	    Method: "POST",
//	    URL:    "/users",
//	    Body:   map[string]any{"name": "Ada"},
//	})
//
// Every failure is returned as a *ResponseError. For non-2xx responses it
// carries the decoded response and the server's error payload:
//
//	var rerr *client.ResponseError
//	if errors.As(err, &rerr) {
//	    fmt.Println(rerr.DisplayMessage())  // "The given data was invalid."
//	    fmt.Println(rerr.FieldErrors())     // map[name:required]
//	}
//
// Network failures produce a *ResponseError with a nil Response.
//
// # Middleware
//
// The round trip goes through a Doer, which *http.Client satisfies.
// Middleware wraps the Doer to add metrics, tracing or test doubles:
//
//	c := client.New(cfg, client.WithMiddleware(
//	    middleware.Metrics(),
//	    middleware.Tracing(),
//	))
package client
