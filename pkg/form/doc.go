// Package form tracks the state of one form and submits it over HTTP.
//
// # Overview
//
// A State holds the current field values, a baseline of defaults to reset
// to, a field-level error map and an in-flight flag. The key set is fixed
// when the form is built; values and defaults never share storage.
//
//	f := form.New(form.Record{"name": "", "age": 0},
//	    form.WithClient(client.New(client.Config{BaseURL: "https://api.example.com"})),
//	    form.WithNotifier(bus),
//	)
//
//	f.Set("name", "Ada")
//	f.Post(ctx, "/users", &form.RequestOptions{
//	    OnSuccess: func(resp *client.Response) { f.Reset() },
//	    OnError:   func(err *client.ResponseError) { log.Println(err.DisplayMessage()) },
//	})
//
// # Factory Forms
//
// NewFunc builds the form from a function instead of a fixed record. Every
// full Reset calls the function again, so each reset starts from a fresh
// baseline. Editing the defaults of a factory form fails with
// ErrInvalidOperation.
//
// # Submission
//
// Submit runs the request on its own goroutine and returns a *Submission
// right away. Processing reports true until the request settles. On
// failure the server's field errors ("errors" in the response body) are
// merged into the error map and a notify.Event is handed to the form's
// Notifier. Failures are never returned to the caller of Submit; use the
// callbacks, or wait on the submission:
//
//	res := f.Post(ctx, "/users", nil).Wait()
//	if !res.OK() {
//	    fmt.Println(f.Errors())
//	}
//
// Overlapping submissions are not coordinated. Each one settles on its own
// and the last to settle decides Processing and the merged errors.
//
// # Change Notification
//
// Subscribe reports which part of the state changed:
//
//	unsubscribe := f.Subscribe(func(c form.Change) {
//	    if c == form.ChangeErrors {
//	        render(f.Errors())
//	    }
//	})
package form
