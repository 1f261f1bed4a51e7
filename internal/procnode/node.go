// Package procnode models one process of the xmod tree: its identity in the
// process group, the context it inherited from its parent, and the way it
// starts workers for subdirectories.
//
// The root process is the one started without a SpawnContext. It opens the
// event log (truncating it) and generates the run id. Every other process is
// a worker that re-executes the same binary with the same flags and a new
// path, and inherits the log descriptor and the parent's clock reading.
//
// Leadership is a property of the process group, not of the tree: the leader
// is the process whose pid equals its pgid. When xmod is started from a shell
// the root is the leader.
package procnode

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/xmod/internal/clock"
	"github.com/Iron-Ham/xmod/internal/errors"
	"github.com/Iron-Ham/xmod/internal/eventlog"
	"github.com/Iron-Ham/xmod/internal/logging"
)

// Identity is a process's place in its process group.
type Identity struct {
	PID  int
	PGID int
}

// IsLeader reports whether the process leads its group.
func (id Identity) IsLeader() bool {
	return id.PID == id.PGID
}

// Node is the running process.
type Node struct {
	Identity

	// Root is true for the process started without a SpawnContext.
	Root bool
	// RunID is shared by every process of the tree.
	RunID string
	// RootPath is the path the root process was started on.
	RootPath string

	Clock *clock.Clock
	Log   *eventlog.Logger
	Diag  *logging.Logger

	exit     func(int)
	finished sync.Once
}

// Options configures Bootstrap.
type Options struct {
	// Identity of the process. Zero means "ask the OS".
	Identity Identity
	// LogFilename is the event log path; empty disables the log. Workers ignore it.
	LogFilename string
	// BaseOffset starts the root's logical clock. Workers ignore it.
	BaseOffset time.Duration
	// RootPath is recorded for workers.
	RootPath string
	// Lookup reads the environment. Defaults to os.LookupEnv.
	Lookup LookupFunc
	// InheritedFile turns an inherited descriptor into a file. Defaults to os.NewFile.
	InheritedFile func(fd uintptr, name string) *os.File
	// Clock overrides the clock construction, for tests.
	Clock func(base time.Duration) *clock.Clock
	// Exit terminates the process. Defaults to os.Exit.
	Exit func(int)
	// Diag receives diagnostics. Defaults to a no-op logger.
	Diag *logging.Logger
}

// Bootstrap builds the Node for the current process.
func Bootstrap(opts Options) (*Node, error) {
	if opts.Identity.PID == 0 {
		opts.Identity = CurrentIdentity()
	}
	if opts.InheritedFile == nil {
		opts.InheritedFile = os.NewFile
	}
	if opts.Clock == nil {
		opts.Clock = clock.New
	}
	if opts.Exit == nil {
		opts.Exit = os.Exit
	}
	if opts.Diag == nil {
		opts.Diag = logging.NopLogger()
	}

	ctx, inherited, err := LookupSpawnContext(opts.Lookup)
	if err != nil {
		return nil, err
	}

	n := &Node{Identity: opts.Identity, exit: opts.Exit}

	if inherited {
		n.RunID = ctx.RunID
		n.RootPath = ctx.Root
		n.Clock = opts.Clock(ctx.BaseOffset())
		n.Log = eventlog.Nop()
		if ctx.LogFD != NoLogFD {
			f := opts.InheritedFile(uintptr(ctx.LogFD), ctx.LogPath)
			if f == nil {
				return nil, errors.NewConfigError(
					"unable to inherit log descriptor "+strconv.Itoa(ctx.LogFD), errors.ErrLogUnavailable).WithErrno(syscall.EBADF)
			}
			n.Log = eventlog.FromFile(f, ctx.LogPath, n.Clock, n.PID)
		}
	} else {
		n.Root = true
		n.RunID = uuid.NewString()
		n.RootPath = opts.RootPath
		n.Clock = opts.Clock(opts.BaseOffset)
		n.Log = eventlog.Nop()
		if opts.LogFilename != "" {
			l, err := eventlog.Open(opts.LogFilename, true, n.Clock, n.PID)
			if err != nil {
				cfgErr := errors.NewConfigError("unable to open log file", err)
				if errno := errnoOf(err); errno != 0 {
					cfgErr = cfgErr.WithErrno(errno)
				}
				return nil, cfgErr
			}
			n.Log = l
		}
	}

	n.Diag = opts.Diag.WithRun(n.RunID).With("pid", n.PID, "pgid", n.PGID, "leader", n.IsLeader())
	n.Diag.Debug("process bootstrapped", "root", n.Root, "base_ms", n.Clock.Base().Milliseconds())
	return n, nil
}

// Created records the PROC_CREAT event for argv.
func (n *Node) Created(argv []string) {
	if err := n.Log.Record(eventlog.ProcCreate, joinArgs(argv)); err != nil {
		n.Diag.Warn("failed to record process creation", "error", err)
	}
}

// Finish records PROC_EXIT with code and closes the log. Only the first call
// has an effect.
func (n *Node) Finish(code int) {
	n.finished.Do(func() {
		if err := n.Log.Record(eventlog.ProcExit, strconv.Itoa(code)); err != nil {
			n.Diag.Warn("failed to record process exit", "error", err)
		}
		if err := n.Log.Close(); err != nil {
			n.Diag.Warn("failed to close event log", "error", err)
		}
		n.Diag.Debug("process finished", "code", code)
	})
}

// Exit finishes the node and terminates the process with code.
func (n *Node) Exit(code int) {
	n.Finish(code)
	n.exit(code)
}

// String returns a short description for diagnostics.
func (n *Node) String() string {
	role := "worker"
	if n.Root {
		role = "root"
	}
	return fmt.Sprintf("%s pid=%d pgid=%d", role, n.PID, n.PGID)
}

func joinArgs(argv []string) string {
	return strings.Join(argv, " ")
}

func errnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}
