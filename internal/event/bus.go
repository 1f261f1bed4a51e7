package event

import (
	"log"
	"runtime/debug"
	"sort"
	"sync"
)

// Handler is a function that handles an event.
type Handler func(Event)

// membership is one member's registered handler.
type membership struct {
	member  int
	handler Handler
}

// Bus is a synchronous pub-sub bus that models one process group: every
// member receives every event published to the group, the sender included.
type Bus struct {
	mu      sync.RWMutex
	members []membership
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Join adds member to the group. handler receives every event published
// afterwards until the member leaves.
func (b *Bus) Join(member int, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.members = append(b.members, membership{member: member, handler: handler})
}

// Leave removes member and tells the remaining members. Signals published
// later are not delivered to it.
func (b *Bus) Leave(member int) bool {
	b.mu.Lock()
	kept := b.members[:0:0]
	for _, m := range b.members {
		if m.member != member {
			kept = append(kept, m)
		}
	}
	removed := len(kept) != len(b.members)
	b.members = kept
	b.mu.Unlock()

	if removed {
		b.Publish(NewMemberLeftEvent(member))
	}
	return removed
}

// Members returns the ids of the current group members in ascending order.
func (b *Bus) Members() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[int]bool)
	for _, m := range b.members {
		seen[m.member] = true
	}
	members := make([]int, 0, len(seen))
	for m := range seen {
		members = append(members, m)
	}
	sort.Ints(members)
	return members
}

// Publish dispatches an event to every member in join order.
// If a handler panics, the panic is logged, recovered, and publishing
// continues to remaining members.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	members := make([]membership, len(b.members))
	copy(members, b.members)
	b.mu.RUnlock()

	for _, m := range members {
		b.safeCall(m.handler, event)
	}
}

// safeCall invokes a handler and recovers from any panics.
func (b *Bus) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: event handler panicked for event %s: %v\n%s",
				event.EventType(), r, debug.Stack())
		}
	}()
	handler(event)
}
