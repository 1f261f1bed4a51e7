package errors

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
)

// -----------------------------------------------------------------------------
// Class Tests
// -----------------------------------------------------------------------------

func TestClass_String(t *testing.T) {
	tests := []struct {
		class Class
		want  string
	}{
		{ClassConfig, "config"},
		{ClassEntry, "entry"},
		{ClassSpawn, "spawn"},
		{ClassProtocol, "protocol"},
		{Class(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.class.String(); got != tt.want {
				t.Errorf("Class.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassOf(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantClass Class
	}{
		{"config", NewConfigError("bad", ErrInvalidArguments), ClassConfig},
		{"entry", NewEntryError("cannot access", "/x", os.ErrNotExist), ClassEntry},
		{"wrapped entry", fmt.Errorf("walk: %w", NewEntryError("cannot access", "/x", os.ErrPermission)), ClassEntry},
		{"spawn", NewSpawnError("/x/sub", syscall.EAGAIN), ClassSpawn},
		{"esrch", Wrap(syscall.ESRCH, "kill"), ClassProtocol},
		{"no such process", ErrNoSuchProcess, ClassProtocol},
		{"unknown", New("boom"), ClassConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassOf(tt.err); got != tt.wantClass {
				t.Errorf("ClassOf() = %v, want %v", got, tt.wantClass)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ExitCode Tests
// -----------------------------------------------------------------------------

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"explicit", &ExitError{Code: 7}, 7},
		{"aborted", Wrap(ErrAborted, "status query"), ExitAborted},
		{"config default errno", NewConfigError("incorrect number of arguments", ErrInvalidArguments), int(syscall.EINVAL)},
		{"config custom errno", NewConfigError("log", ErrLogUnavailable).WithErrno(syscall.EACCES), int(syscall.EACCES)},
		{"raw errno", &os.PathError{Op: "open", Path: "/x", Err: syscall.ENOENT}, int(syscall.ENOENT)},
		{"plain", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Typed Error Tests
// -----------------------------------------------------------------------------

func TestEntryError_Error(t *testing.T) {
	err := NewEntryError("cannot access", "/tmp/a", &os.PathError{Op: "lstat", Path: "/tmp/a", Err: syscall.ENOENT})

	want := "cannot access '/tmp/a': no such file or directory"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !Is(err, syscall.ENOENT) {
		t.Error("EntryError should unwrap to the underlying errno")
	}
}

func TestSpawnError_Is(t *testing.T) {
	err := fmt.Errorf("walk: %w", NewSpawnError("/tmp/sub", syscall.EAGAIN))

	if !Is(err, ErrSpawnFailed) {
		t.Error("SpawnError should match ErrSpawnFailed")
	}
	if !Is(err, syscall.EAGAIN) {
		t.Error("SpawnError should unwrap to its cause")
	}
}

func TestConfigError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{"with cause", NewConfigError("mode 'u+q'", ErrInvalidMode), "mode 'u+q': unable to read mode"},
		{"without cause", NewConfigError("incorrect number of arguments", nil), "incorrect number of arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	err := Wrapf(ErrLogUnavailable, "unable to open log file '%s'", "/x.log")
	if !Is(err, ErrLogUnavailable) {
		t.Error("Wrapf should preserve the wrapped error")
	}
	if err.Error() != "unable to open log file '/x.log': event log unavailable" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
