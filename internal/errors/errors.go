// Package errors provides centralized error definitions and error handling utilities
// for xmod. It defines the sentinel errors of the process tree, typed errors for
// each failure class, and the mapping from an error to a process exit code.
//
// # Error Classes
//
// Every failure belongs to one of four classes, and the class decides what the
// process does next:
//
//   - ClassConfig: bad arguments, bad mode, unusable log file. Fatal to the process.
//   - ClassEntry: an inaccessible entry or a rejected mutation. Reported and skipped.
//   - ClassSpawn: a worker process could not be created. Fatal to the current subtree.
//   - ClassProtocol: a signal raced with a process exit. Tolerated.
//
// # Usage
//
//	err := errors.NewConfigError("incorrect number of arguments", errors.ErrInvalidArguments)
//	if errors.ClassOf(err) == errors.ClassConfig {
//	    node.Exit(errors.ExitCode(err))
//	}
//
// Configuration errors carry the numeric OS error code (EINVAL for malformed
// arguments) so ExitCode can return it verbatim.
package errors

import (
	"errors"
	"fmt"
	"syscall"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Exit codes shared by every process of the tree.
const (
	ExitOK      = 0
	ExitFailure = 1
	// ExitAborted is used by every process that obeys a confirmed abort.
	ExitAborted = 130
)

// Class groups errors by how the process tree reacts to them.
type Class int

const (
	// ClassConfig covers argument, mode and log-file problems.
	ClassConfig Class = iota
	// ClassEntry covers failures on a single directory entry.
	ClassEntry
	// ClassSpawn covers failures to create a worker process.
	ClassSpawn
	// ClassProtocol covers signal delivery races.
	ClassProtocol
)

// String returns the string representation of the class.
func (c Class) String() string {
	switch c {
	case ClassConfig:
		return "config"
	case ClassEntry:
		return "entry"
	case ClassSpawn:
		return "spawn"
	case ClassProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	// ErrInvalidArguments indicates a malformed command line.
	ErrInvalidArguments = New("invalid arguments")
	// ErrInvalidMode indicates a mode string that is neither symbolic nor octal.
	ErrInvalidMode = New("unable to read mode")
	// ErrLogUnavailable indicates that the event log could not be opened or inherited.
	ErrLogUnavailable = New("event log unavailable")
	// ErrSpawnFailed indicates that a worker process could not be created.
	ErrSpawnFailed = New("unable to create child process")
	// ErrAccess indicates that an entry could not be inspected.
	ErrAccess = New("cannot access")
	// ErrAborted indicates that the user confirmed an abort of the whole tree.
	ErrAborted = New("aborted by user")
	// ErrNoSuchProcess indicates that a signal target no longer exists.
	ErrNoSuchProcess = New("no such process")
)

// -----------------------------------------------------------------------------
// Typed Errors
// -----------------------------------------------------------------------------

// ConfigError is a fatal setup failure.
//
// Example:
//
//	err := errors.NewConfigError("unable to read options", errors.ErrInvalidArguments).WithErrno(syscall.EINVAL)
type ConfigError struct {
	message string
	cause   error
	Errno   syscall.Errno
}

// NewConfigError creates a ConfigError. The exit code defaults to EINVAL.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{message: message, cause: cause, Errno: syscall.EINVAL}
}

// WithErrno overrides the OS error code reported as the exit status.
func (e *ConfigError) WithErrno(errno syscall.Errno) *ConfigError {
	e.Errno = errno
	return e
}

// Error returns the formatted error message.
func (e *ConfigError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.cause }

// EntryError is a per-entry failure. The walk reports it and moves on.
type EntryError struct {
	Op   string // "cannot access", "changing permissions of"
	Path string
	Err  error
}

// NewEntryError creates an EntryError.
func NewEntryError(op, path string, err error) *EntryError {
	return &EntryError{Op: op, Path: path, Err: err}
}

// Error returns the formatted error message.
func (e *EntryError) Error() string {
	return fmt.Sprintf("%s '%s': %v", e.Op, e.Path, reason(e.Err))
}

// Unwrap returns the underlying error.
func (e *EntryError) Unwrap() error { return e.Err }

// SpawnError is a failure to start a worker for a subdirectory.
type SpawnError struct {
	Path string
	Err  error
}

// NewSpawnError creates a SpawnError.
func NewSpawnError(path string, err error) *SpawnError {
	return &SpawnError{Path: path, Err: err}
}

// Error returns the formatted error message.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("unable to create child process for '%s' (aborting): %v", e.Path, reason(e.Err))
}

// Unwrap returns the underlying error.
func (e *SpawnError) Unwrap() error { return e.Err }

// Is makes every SpawnError match ErrSpawnFailed.
func (e *SpawnError) Is(target error) bool { return target == ErrSpawnFailed }

// ExitError carries an explicit exit code.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the formatted error message.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error { return e.Err }

// reason strips the *PathError wrapper so messages read like the coreutils ones.
func reason(err error) error {
	var errno syscall.Errno
	if As(err, &errno) {
		return errno
	}
	return err
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// ClassOf returns the class of err. Unknown errors are treated as configuration
// errors so that they stop the process.
func ClassOf(err error) Class {
	var entry *EntryError
	var spawn *SpawnError
	switch {
	case As(err, &entry):
		return ClassEntry
	case As(err, &spawn):
		return ClassSpawn
	case Is(err, ErrNoSuchProcess), Is(err, syscall.ESRCH):
		return ClassProtocol
	default:
		return ClassConfig
	}
}

// ExitCode maps err to a process exit status.
//
//   - nil: 0
//   - *ExitError: its Code
//   - ErrAborted: ExitAborted
//   - *ConfigError or a wrapped syscall.Errno: the numeric errno
//   - anything else: 1
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if As(err, &exitErr) {
		return exitErr.Code
	}
	if Is(err, ErrAborted) {
		return ExitAborted
	}

	var cfgErr *ConfigError
	if As(err, &cfgErr) && cfgErr.Errno != 0 {
		return int(cfgErr.Errno)
	}

	var errno syscall.Errno
	if As(err, &errno) && errno != 0 {
		return int(errno)
	}
	return ExitFailure
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to open log")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "unable to open log file '%s'", path)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
