//go:build unix

package procnode

import "golang.org/x/sys/unix"

// CurrentIdentity asks the OS for the pid and process group of the caller.
func CurrentIdentity() Identity {
	return Identity{PID: unix.Getpid(), PGID: unix.Getpgrp()}
}
