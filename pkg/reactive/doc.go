// Package reactive provides the observable primitives behind form state.
//
// A Signal holds one value and notifies its subscribers when the value
// changes. Subscribers implement Listener; Listen adapts a plain function.
//
//	count := reactive.NewSignal(0)
//	unsubscribe := count.Subscribe(reactive.Listen(func() {
//	    fmt.Println("count changed:", count.Get())
//	}))
//	defer unsubscribe()
//
//	count.Set(1) // prints "count changed: 1"
//	count.Set(1) // no change, no notification
//
// # Batching
//
// Signals attached to a Batch defer their notifications while a Batch.Run
// call is active. Listeners are deduplicated by ID and notified once when
// the outermost Run returns:
//
//	b := reactive.NewBatch()
//	first := reactive.NewSignal("").InBatch(b)
//	last := reactive.NewSignal("").InBatch(b)
//
//	b.Run(func() {
//	    first.Set("Ada")
//	    last.Set("Lovelace")
//	})
//	// a listener subscribed to both fires once
package reactive
