// Package logging provides structured diagnostic logging for xmod processes.
//
// This package wraps Go's log/slog to provide JSON-formatted diagnostics with
// context propagation. Diagnostics are separate from the event log: the event
// log is the user-facing record of what the process tree did, while
// diagnostics explain why (spawn arguments, reaped exit statuses, ignored
// signals).
//
// # Context Propagation
//
// Every process of a run shares one run id, generated by the root process and
// handed down to workers. Child loggers carry it along with the process
// identity:
//
//	logger := base.WithRun(runID).WithProcess(os.Getpid(), "/tmp/tree/sub")
//	logger.Info("worker reaped", "child_pid", 4121, "status", 0)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"worker reaped","run_id":"...","pid":4120,"path":"/tmp/tree/sub","child_pid":4121,"status":0}
//
// # Shared Files
//
// All processes of a run may point at the same diagnostics file. It is opened
// with O_APPEND, so each process appends whole JSON lines without
// coordinating with the others.
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output.
package logging
