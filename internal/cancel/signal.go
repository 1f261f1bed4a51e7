//go:build unix

package cancel

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Signal is one of the four signals of the cancellation protocol.
type Signal int

const (
	// Interrupt asks the leader to start a confirmation round.
	Interrupt Signal = iota + 1
	// StatusQuery asks every process to report and, for workers, to suspend.
	StatusQuery
	// Terminate tells every process to abort.
	Terminate
	// Continue resumes suspended workers.
	Continue
)

var signalNames = map[Signal]string{
	Interrupt:   "SIGINT",
	StatusQuery: "SIGUSR1",
	Terminate:   "SIGUSR2",
	Continue:    "SIGCONT",
}

var osSignals = map[Signal]unix.Signal{
	Interrupt:   unix.SIGINT,
	StatusQuery: unix.SIGUSR1,
	Terminate:   unix.SIGUSR2,
	Continue:    unix.SIGCONT,
}

// String returns the conventional signal name, e.g. "SIGUSR1".
func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// OS returns the operating system signal behind s.
func (s Signal) OS() unix.Signal {
	return osSignals[s]
}

// FromOS maps an operating system signal to a protocol signal.
func FromOS(sig os.Signal) (Signal, bool) {
	for s, o := range osSignals {
		if o == sig {
			return s, true
		}
	}
	return 0, false
}

// ParseSignal maps a name such as "SIGUSR2" or "usr2" to a protocol signal.
func ParseSignal(name string) (Signal, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	for s, n := range signalNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}
