// Package walk applies a mode to one directory level and hands every
// subdirectory to a worker of its own.
//
// A Scheduler never recurses in-process: with recursion enabled it spawns a
// worker for each subdirectory, keeps going with the remaining entries, and
// waits for all of its workers before it returns.
package walk

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Iron-Ham/xmod/internal/cancel"
	"github.com/Iron-Ham/xmod/internal/errors"
	"github.com/Iron-Ham/xmod/internal/eventlog"
	"github.com/Iron-Ham/xmod/internal/logging"
	"github.com/Iron-Ham/xmod/internal/mode"
	"github.com/Iron-Ham/xmod/internal/procnode"
	"github.com/Iron-Ham/xmod/internal/styles"
)

// Verbosity controls the per-entry messages.
type Verbosity int

const (
	// Quiet prints nothing for successful entries.
	Quiet Verbosity = iota
	// Changes prints a line for every entry whose mode changed.
	Changes
	// All prints a line for every entry.
	All
)

// String returns the verbosity name.
func (v Verbosity) String() string {
	switch v {
	case Changes:
		return "changes"
	case All:
		return "all"
	default:
		return "quiet"
	}
}

// Counters are the progress numbers of one process.
type Counters struct {
	Seen    int
	Changed int
}

// Worker is a started worker process.
type Worker interface {
	PID() int
	Path() string
	Wait() procnode.ExitStatus
}

// Spawner starts a worker for a subdirectory.
type Spawner interface {
	Spawn(path string) (Worker, error)
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc func(path string) (Worker, error)

// Spawn calls f.
func (f SpawnerFunc) Spawn(path string) (Worker, error) { return f(path) }

// Gate is where the cancellation protocol runs. *cancel.Controller satisfies it.
type Gate interface {
	Checkpoint() error
	WaitUntil(done <-chan struct{}) error
}

type openGate struct{}

func (openGate) Checkpoint() error { return nil }

func (openGate) WaitUntil(done <-chan struct{}) error {
	<-done
	return nil
}

// Options configures a Scheduler.
type Options struct {
	Mode      mode.Spec
	Verbosity Verbosity
	Recursive bool

	// Out receives the per-entry messages, Err the error reports.
	Out io.Writer
	Err io.Writer

	Log     *eventlog.Logger
	Gate    Gate
	Spawner Spawner
	Diag    *logging.Logger
	// Pause is called after every entry; used to slow traversals down.
	Pause func()
}

// Scheduler processes one directory level.
type Scheduler struct {
	opts     Options
	out      *styles.Renderer
	errOut   *styles.Renderer
	counters Counters
	path     string

	mu   sync.Mutex
	live []Worker
}

// New creates a Scheduler.
func New(opts Options) *Scheduler {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Err == nil {
		opts.Err = io.Discard
	}
	if opts.Log == nil {
		opts.Log = eventlog.Nop()
	}
	if opts.Gate == nil {
		opts.Gate = openGate{}
	}
	if opts.Diag == nil {
		opts.Diag = logging.NopLogger()
	}
	return &Scheduler{
		opts:   opts,
		out:    styles.NewRenderer(opts.Out),
		errOut: styles.NewRenderer(opts.Err),
	}
}

// Counters returns the progress so far.
func (s *Scheduler) Counters() Counters { return s.counters }

// Status describes the process for a status query.
func (s *Scheduler) Status(pid int) cancel.Status {
	return cancel.Status{
		PID:     pid,
		Path:    absolute(s.path),
		Seen:    s.counters.Seen,
		Changed: s.counters.Changed,
	}
}

// Workers returns the pids of the workers started and not reaped yet.
func (s *Scheduler) Workers() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pids := make([]int, 0, len(s.live))
	for _, w := range s.live {
		pids = append(pids, w.PID())
	}
	return pids
}

func (s *Scheduler) track(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = append(s.live, w)
}

func (s *Scheduler) forget(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, lw := range s.live {
		if lw == w {
			s.live = append(s.live[:i:i], s.live[i+1:]...)
			return
		}
	}
}

// Run processes root: root itself, its regular files, and, when recursive,
// one worker per subdirectory. Entry errors are reported and skipped. The
// returned error is fatal: a failed spawn or an abort.
func (s *Scheduler) Run(root string) error {
	if err := s.run(root); err != nil {
		return err
	}
	// Signals queued during a run without a single directory entry are
	// handled here.
	return s.opts.Gate.Checkpoint()
}

func (s *Scheduler) run(root string) error {
	s.path = root

	info, err := os.Lstat(root)
	if err != nil {
		s.report(errors.NewEntryError("cannot access", root, err))
		return nil
	}
	if info.Mode()&os.ModeSymlink != 0 {
		s.symlink(root)
		return nil
	}

	s.MutateOne(root)
	if !s.opts.Recursive || !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		s.report(errors.NewEntryError("cannot read directory", root, err))
		return nil
	}

	var workers []Worker
	for _, entry := range entries {
		if err := s.opts.Gate.Checkpoint(); err != nil {
			return err
		}

		path := childPath(root, entry.Name())
		switch typ := entry.Type(); {
		case typ&os.ModeSymlink != 0:
			s.symlink(path)
		case typ.IsRegular():
			s.MutateOne(path)
		case typ.IsDir():
			w, err := s.spawn(path)
			if err != nil {
				s.report(err)
				if waitErr := s.reap(workers); waitErr != nil {
					return waitErr
				}
				return err
			}
			workers = append(workers, w)
			s.track(w)
			// A broadcast that raced with the fork reached this process only.
			if err := s.opts.Gate.Checkpoint(); err != nil {
				return err
			}
		default:
			s.opts.Diag.Debug("skipping special file", "path", path, "type", typ.String())
		}

		if s.opts.Pause != nil {
			s.opts.Pause()
		}
	}

	if err := s.opts.Gate.Checkpoint(); err != nil {
		return err
	}
	return s.reap(workers)
}

func (s *Scheduler) spawn(path string) (Worker, error) {
	if s.opts.Spawner == nil {
		return nil, errors.NewSpawnError(path, errors.New("no spawner configured"))
	}
	w, err := s.opts.Spawner.Spawn(path)
	if err != nil {
		var spawnErr *errors.SpawnError
		if !errors.As(err, &spawnErr) {
			err = errors.NewSpawnError(path, err)
		}
		return nil, err
	}
	return w, nil
}

// reap waits for every worker while the gate keeps handling signals.
func (s *Scheduler) reap(workers []Worker) error {
	if len(workers) == 0 {
		return nil
	}

	statuses := make([]procnode.ExitStatus, len(workers))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, w := range workers {
			statuses[i] = w.Wait()
			s.forget(w)
		}
	}()

	if err := s.opts.Gate.WaitUntil(done); err != nil {
		return err
	}

	for _, st := range statuses {
		if st.Success() {
			continue
		}
		s.opts.Diag.Warn("worker ended abnormally", "child", st.PID, "path", st.Path, "code", st.Code)
		s.reportf("%s", st)
	}
	return nil
}

// MutateOne applies the mode to path and reports the outcome. It returns the
// resulting permission bits.
func (s *Scheduler) MutateOne(path string) (os.FileMode, error) {
	s.counters.Seen++

	before, err := os.Stat(path)
	if err != nil {
		err = errors.NewEntryError("cannot access", path, err)
		s.report(err)
		return 0, err
	}

	target := mode.Resolve(before.Mode(), s.opts.Mode)
	if err := mode.Apply(path, target); err != nil {
		err = errors.NewEntryError("changing permissions of", path, err)
		s.report(err)
		return before.Mode() & mode.PermMask, err
	}

	after, err := os.Stat(path)
	if err != nil {
		err = errors.NewEntryError("cannot access", path, err)
		s.report(err)
		return 0, err
	}

	oldPerm := before.Mode() & mode.PermMask
	newPerm := after.Mode() & mode.PermMask
	if permBits(before.Mode()) == permBits(after.Mode()) {
		if s.opts.Verbosity == All {
			fmt.Fprintln(s.opts.Out, s.out.Muted(RetainedMessage(path, newPerm)))
		}
		return newPerm, nil
	}

	s.counters.Changed++
	if err := s.opts.Log.Recordf(eventlog.FileModified, "%s : %o : %o", absolute(path), uint32(oldPerm), uint32(newPerm)); err != nil {
		s.opts.Diag.Warn("failed to record modification", "path", path, "error", err)
	}
	if s.opts.Verbosity != Quiet {
		fmt.Fprintln(s.opts.Out, s.out.Changed(ChangedMessage(path, oldPerm, newPerm)))
	}
	return newPerm, nil
}

func (s *Scheduler) symlink(path string) {
	s.opts.Diag.Debug("symbolic link left alone", "path", path)
	if s.opts.Verbosity == Quiet {
		return
	}
	fmt.Fprintln(s.opts.Out, s.out.Muted(SymlinkMessage(path)))
}

func (s *Scheduler) report(err error) {
	s.reportf("%v", err)
}

func (s *Scheduler) reportf(format string, args ...any) {
	fmt.Fprintln(s.opts.Err, s.errOut.Error("xmod: "+fmt.Sprintf(format, args...)))
}

// ChangedMessage is printed for a changed entry.
func ChangedMessage(path string, from, to os.FileMode) string {
	return fmt.Sprintf("mode of '%s' changed from %s (%s) to %s (%s)",
		path, mode.OctalString(from), mode.Format(from), mode.OctalString(to), mode.Format(to))
}

// RetainedMessage is printed for an unchanged entry at All verbosity.
func RetainedMessage(path string, m os.FileMode) string {
	return fmt.Sprintf("mode of '%s' retained as %s (%s)", path, mode.OctalString(m), mode.Format(m))
}

// SymlinkMessage is printed for a symbolic link, which is never followed.
func SymlinkMessage(path string) string {
	return fmt.Sprintf("neither symbolic link '%s' nor referent has been changed", path)
}

// childPath joins without cleaning so that messages echo the user's spelling.
func childPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

func permBits(m os.FileMode) os.FileMode {
	return m & (mode.PermMask | os.ModeSetuid | os.ModeSetgid | os.ModeSticky)
}

// absolute resolves path for log records and status lines, falling back to
// the cleaned absolute form when the path cannot be resolved.
func absolute(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
