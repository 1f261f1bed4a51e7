//go:build unix

package procnode

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// ExitStatus describes how a worker ended.
type ExitStatus struct {
	PID      int
	Path     string
	Code     int // -1 when killed by a signal
	Signaled bool
	Signal   syscall.Signal
	Err      error // wait failure, not a non-zero exit
}

// Success reports whether the worker exited normally with status 0.
func (s ExitStatus) Success() bool {
	return s.Err == nil && !s.Signaled && s.Code == 0
}

// String renders the status the way it is reported on stderr.
func (s ExitStatus) String() string {
	switch {
	case s.Err != nil:
		return fmt.Sprintf("worker %d for '%s' could not be waited for: %v", s.PID, s.Path, s.Err)
	case s.Signaled:
		return fmt.Sprintf("worker %d for '%s' was killed by %s", s.PID, s.Path, SignalName(s.Signal))
	case s.Code != 0:
		return fmt.Sprintf("worker %d for '%s' exited with status %d", s.PID, s.Path, s.Code)
	default:
		return fmt.Sprintf("worker %d for '%s' finished", s.PID, s.Path)
	}
}

// SignalName returns the conventional SIG* name of sig.
func SignalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return fmt.Sprintf("signal %d", int(sig))
}
