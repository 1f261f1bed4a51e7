// Package event defines the events exchanged over an in-memory process group.
package event

import (
	"strings"
	"time"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "signal.sigusr1", "member.left")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// SignalPrefix starts the type of every SignalEvent.
const SignalPrefix = "signal."

// SignalEvent is a signal broadcast to every member of a group.
type SignalEvent struct {
	baseEvent
	Signal string // "SIGUSR1", "SIGCONT", ...
	Sender int    // member id of the sender
	Group  int    // group the signal was addressed to
}

// NewSignalEvent creates a SignalEvent.
func NewSignalEvent(signal string, sender, group int) SignalEvent {
	return SignalEvent{
		baseEvent: newBaseEvent(SignalType(signal)),
		Signal:    signal,
		Sender:    sender,
		Group:     group,
	}
}

// SignalType returns the event type used for a signal name.
func SignalType(signal string) string {
	return SignalPrefix + strings.ToLower(signal)
}

// MemberLeftEvent is published when a member leaves the group, the in-memory
// equivalent of a process exiting.
type MemberLeftEvent struct {
	baseEvent
	Member int
}

// NewMemberLeftEvent creates a MemberLeftEvent.
func NewMemberLeftEvent(member int) MemberLeftEvent {
	return MemberLeftEvent{
		baseEvent: newBaseEvent("member.left"),
		Member:    member,
	}
}
