// Package event provides an in-memory stand-in for a process group.
//
// The cancellation protocol of xmod broadcasts signals to every process of a
// process group. Unit tests exercise the same protocol for several simulated
// processes inside one test binary by routing those broadcasts over a [Bus]:
// every simulated process joins the bus as a member, and a published
// [SignalEvent] reaches every member, the sender included, just as kill(2)
// with a negative pid reaches the whole group.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub dispatcher with group membership
//   - [SignalEvent]: A signal addressed to a group
//   - [MemberLeftEvent]: A member left the group (its process exited)
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously on the publishing goroutine and are protected against
// panics. Handlers that feed a channel must not block.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	bus.Join(101, func(e event.Event) {
//	    if sig, ok := e.(event.SignalEvent); ok {
//	        queue <- sig.Signal
//	    }
//	})
//	bus.Publish(event.NewSignalEvent("SIGUSR1", 100, 100))
//	bus.Leave(101)
package event
