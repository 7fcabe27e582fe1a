// Package notify carries form failure notifications to the application.
//
// A form never dispatches notifications globally. When a submission fails
// it builds an Event and hands it to the Notifier the application supplied.
// Bus is a ready-made Notifier that fans events out to any number of
// subscribers, such as a toast renderer:
//
//	bus := notify.NewBus()
//	bus.Subscribe(func(e notify.Event) {
//	    showToast(e.Type, e.Message)
//	})
//
//	f := form.New(form.Record{"name": ""}, form.WithNotifier(bus))
//
// Bus.Handler exposes the same stream over WebSocket. Each connected client
// receives every event as a JSON object:
//
//	{ "name": "upform:http-response-error", "type": "danger", "message": "..." }
//
// Messages are stripped of markup before fan-out, since they usually come
// straight from a server response body.
package notify
