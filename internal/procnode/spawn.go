//go:build unix

package procnode

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/Iron-Ham/xmod/internal/errors"
)

// Spawner starts workers by re-executing the current binary.
//
// The worker's argv is the parent's argv with the element at PathIndex
// replaced by the subdirectory, so it runs with the same flags and mode.
type Spawner struct {
	node *Node

	// Executable is the binary to run. Defaults to os.Executable().
	Executable string
	// Argv is the parent's argv, including argv[0].
	Argv []string
	// PathIndex is the index in Argv of the path operand.
	PathIndex int
	// Env is the base environment. Defaults to os.Environ().
	Env []string
	// Stdout and Stderr are inherited by workers.
	Stdout io.Writer
	Stderr io.Writer
}

// NewSpawner returns a Spawner for node. pathIndex must address an element of argv.
func NewSpawner(node *Node, argv []string, pathIndex int) (*Spawner, error) {
	if pathIndex <= 0 || pathIndex >= len(argv) {
		return nil, errors.NewConfigError(fmt.Sprintf("path operand index %d out of range", pathIndex), errors.ErrInvalidArguments)
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "failed to locate executable")
	}
	return &Spawner{
		node:       node,
		Executable: exe,
		Argv:       append([]string(nil), argv...),
		PathIndex:  pathIndex,
		Env:        os.Environ(),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}, nil
}

// Args returns the argv for a worker on path.
func (s *Spawner) Args(path string) []string {
	args := append([]string(nil), s.Argv...)
	args[s.PathIndex] = path
	return args
}

// Command builds the command for a worker on path without starting it.
func (s *Spawner) Command(path string) (*exec.Cmd, error) {
	logFD := NoLogFD
	var extra []*os.File
	if f := s.node.Log.File(); f != nil {
		logFD = InheritedLogFD
		extra = append(extra, f)
	}

	ctx := SpawnContext{
		BaseOffsetMs: s.node.Clock.ChildBase().Milliseconds(),
		LogFD:        logFD,
		LogPath:      s.node.Log.Path(),
		RunID:        s.node.RunID,
		Root:         s.node.RootPath,
	}
	entry, err := ctx.Env()
	if err != nil {
		return nil, err
	}

	args := s.Args(path)
	cmd := exec.Command(s.Executable)
	cmd.Args = args
	cmd.Env = append(withoutSpawnContext(s.Env), entry)
	cmd.ExtraFiles = extra

	// Workers never read the terminal; only the leader prompts.
	cmd.Stdin = nil
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	// Join the caller's process group explicitly so that group broadcasts
	// reach every worker.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    s.node.PGID,
	}
	return cmd, nil
}

// Spawn starts a worker on path.
func (s *Spawner) Spawn(path string) (*Worker, error) {
	cmd, err := s.Command(path)
	if err != nil {
		return nil, errors.NewSpawnError(path, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.NewSpawnError(path, err)
	}

	w := &Worker{path: path, cmd: cmd}
	s.node.Diag.Debug("worker spawned", "child", w.PID(), "path", path)
	return w, nil
}

// Worker is a started child process.
type Worker struct {
	path string
	cmd  *exec.Cmd
}

// PID returns the worker's process id.
func (w *Worker) PID() int {
	if w.cmd.Process == nil {
		return 0
	}
	return w.cmd.Process.Pid
}

// Path returns the directory the worker handles.
func (w *Worker) Path() string { return w.path }

// Wait blocks until the worker exits and describes how it ended.
func (w *Worker) Wait() ExitStatus {
	err := w.cmd.Wait()
	st := ExitStatus{PID: w.PID(), Path: w.path}

	state := w.cmd.ProcessState
	if state == nil {
		st.Code = -1
		st.Err = err
		return st
	}
	st.Code = state.ExitCode()
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		st.Signaled = true
		st.Signal = ws.Signal()
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		st.Err = err
	}
	return st
}
