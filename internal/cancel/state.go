package cancel

// State is a process's position in the cancellation protocol.
type State int

const (
	// Running is the normal state: traversing or waiting for workers.
	Running State = iota
	// AwaitingConfirmation is the leader's state while the user is asked.
	AwaitingConfirmation
	// Suspended is a worker's state after it reported its status.
	Suspended
	// Aborting is terminal: the process is exiting with ExitAborted.
	Aborting
)

// String returns the state name used in diagnostics.
func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case AwaitingConfirmation:
		return "AWAITING_CONFIRMATION"
	case Suspended:
		return "SUSPENDED"
	case Aborting:
		return "ABORTING"
	default:
		return "UNKNOWN"
	}
}
