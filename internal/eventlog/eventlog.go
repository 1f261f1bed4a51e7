package eventlog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Iron-Ham/xmod/internal/clock"
	"github.com/Iron-Ham/xmod/internal/errors"
)

// Kind identifies the type of a record.
type Kind string

// Record kinds.
const (
	ProcCreate   Kind = "PROC_CREAT"
	ProcExit     Kind = "PROC_EXIT"
	FileModified Kind = "FILE_MODF"
	SignalRecv   Kind = "SIGNAL_RECV"
	SignalSent   Kind = "SIGNAL_SENT"
)

// Kinds returns every record kind in declaration order.
func Kinds() []Kind {
	return []Kind{ProcCreate, ProcExit, FileModified, SignalRecv, SignalSent}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// MaxRecordSize is the largest record written in one piece. It matches
// PIPE_BUF on Linux, the size POSIX guarantees to append atomically.
const MaxRecordSize = 4096

// Separator sits between the fields of a record.
const Separator = " ; "

const truncMarker = "..."

// Event is one immutable record.
type Event struct {
	Timestamp int64 // logical milliseconds
	PID       int
	Kind      Kind
	Detail    string
}

// Format renders the record, newline included, clamped to MaxRecordSize.
func (e Event) Format() string {
	detail := strings.ReplaceAll(e.Detail, "\n", " ")
	line := fmt.Sprintf("%d%s%d%s%s%s%s\n", e.Timestamp, Separator, e.PID, Separator, e.Kind, Separator, detail)
	if len(line) <= MaxRecordSize {
		return line
	}
	over := len(line) - MaxRecordSize + len(truncMarker)
	cut := len(detail) - over
	for cut > 0 && !utf8.RuneStart(detail[cut]) {
		cut--
	}
	detail = detail[:cut] + truncMarker
	return fmt.Sprintf("%d%s%d%s%s%s%s\n", e.Timestamp, Separator, e.PID, Separator, e.Kind, Separator, detail)
}

// Logger appends records for one process.
// It is safe for concurrent use.
type Logger struct {
	mu    sync.Mutex
	w     io.Writer
	file  *os.File
	path  string
	clock *clock.Clock
	pid   int
}

// Open opens path for appending. The root process passes truncate=true.
func Open(path string, truncate bool, clk *clock.Clock, pid int) (*Logger, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, errors.Wrapf(errors.Join(errors.ErrLogUnavailable, err), "unable to open log file '%s'", path)
	}
	return &Logger{w: f, file: f, path: path, clock: clk, pid: pid}, nil
}

// FromFile wraps a descriptor inherited from the parent process.
func FromFile(f *os.File, path string, clk *clock.Clock, pid int) *Logger {
	return &Logger{w: f, file: f, path: path, clock: clk, pid: pid}
}

// NewWriter logs to an arbitrary writer. Used by tests and in-memory harnesses.
func NewWriter(w io.Writer, clk *clock.Clock, pid int) *Logger {
	return &Logger{w: w, clock: clk, pid: pid}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{}
}

// Enabled reports whether records are written anywhere.
func (l *Logger) Enabled() bool {
	return l != nil && l.w != nil
}

// File returns the underlying descriptor, or nil when the log is not file-backed.
func (l *Logger) File() *os.File {
	if l == nil {
		return nil
	}
	return l.file
}

// Path returns the log file path, or "" when logging is disabled.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record appends one event stamped with the current logical time.
func (l *Logger) Record(kind Kind, detail string) error {
	if !l.Enabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e := Event{Timestamp: l.clock.Millis(), PID: l.pid, Kind: kind, Detail: detail}
	_, err := io.WriteString(l.w, e.Format())
	return err
}

// Recordf is Record with a formatted detail.
func (l *Logger) Recordf(kind Kind, format string, args ...any) error {
	if !l.Enabled() {
		return nil
	}
	return l.Record(kind, fmt.Sprintf(format, args...))
}

// Close closes the file. Later records are dropped.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f := l.file
	l.w, l.file = nil, nil
	if f != nil {
		return f.Close()
	}
	return nil
}
