//go:build unix

// Package cancel implements the interactive cancellation protocol of the
// xmod process tree.
//
// Every process owns a Controller fed by a Source of signals. The leader
// turns an Interrupt into a confirmation round:
//
//  1. broadcast StatusQuery; every process prints its status line and every
//     worker suspends
//  2. ask the user for confirmation
//  3. on yes broadcast Terminate; every process exits with ExitAborted
//  4. on no broadcast Continue; every worker resumes where it stopped
//
// Signals are handled at safe points only: Checkpoint between two directory
// entries and WaitUntil while a process waits for its workers. A suspended
// worker blocks inside the Controller until Continue or Terminate arrives.
package cancel

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Iron-Ham/xmod/internal/errors"
	"github.com/Iron-Ham/xmod/internal/eventlog"
	"github.com/Iron-Ham/xmod/internal/logging"
	"github.com/Iron-Ham/xmod/internal/styles"
)

// Default timings.
const (
	DefaultSettleDelay    = 100 * time.Millisecond
	DefaultTerminateGrace = time.Second
)

// Status is the line a process prints in answer to StatusQuery.
type Status struct {
	PID     int
	Path    string
	Seen    int
	Changed int
}

// String renders "pid ; path ; seen ; changed".
func (s Status) String() string {
	return fmt.Sprintf("%d ; %s ; %d ; %d", s.PID, s.Path, s.Seen, s.Changed)
}

// Config wires a Controller to its process.
type Config struct {
	// Leader is true for the process group leader.
	Leader bool
	Source Source
	// Broadcaster reaches the whole group. Only the leader uses it.
	Broadcaster Broadcaster
	// Confirmer asks the user. Only the leader uses it.
	Confirmer Confirmer
	// Status reports the process's progress.
	Status func() Status
	// Log receives SIGNAL_RECV and SIGNAL_SENT records.
	Log *eventlog.Logger
	// Out receives status lines.
	Out io.Writer
	// Exit terminates the process. In production it does not return; when it
	// does, the Controller reports ErrAborted to its caller instead.
	Exit func(code int)
	// SettleDelay lets the group answer StatusQuery before the prompt.
	SettleDelay time.Duration
	// TerminateGrace bounds how long the leader waits for its own Terminate.
	TerminateGrace time.Duration
	// Workers lists the workers this process started and has not reaped.
	// Each of them is sent Terminate before the process exits on abort.
	Workers func() []int
	// Kill delivers a signal to one process. Defaults to SignalProcess.
	Kill func(pid int, sig Signal) error
	Diag *logging.Logger
}

// Controller runs the protocol for one process.
type Controller struct {
	cfg    Config
	styles *styles.Renderer

	mu      sync.Mutex
	state   State
	history []State
}

// New creates a Controller in the Running state.
func New(cfg Config) *Controller {
	if cfg.Log == nil {
		cfg.Log = eventlog.Nop()
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.Status == nil {
		cfg.Status = func() Status { return Status{} }
	}
	if cfg.Exit == nil {
		cfg.Exit = func(int) {}
	}
	if cfg.Confirmer == nil {
		cfg.Confirmer = ConfirmerFunc(func(string) (bool, error) { return false, nil })
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.TerminateGrace <= 0 {
		cfg.TerminateGrace = DefaultTerminateGrace
	}
	if cfg.Workers == nil {
		cfg.Workers = func() []int { return nil }
	}
	if cfg.Kill == nil {
		cfg.Kill = SignalProcess
	}
	if cfg.Diag == nil {
		cfg.Diag = logging.NopLogger()
	}
	return &Controller{
		cfg:     cfg,
		styles:  styles.NewRenderer(cfg.Out),
		state:   Running,
		history: []State{Running},
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns every state the controller has been in, oldest first.
func (c *Controller) History() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]State(nil), c.history...)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == s {
		return
	}
	c.cfg.Diag.Debug("protocol transition", "from", c.state.String(), "to", s.String())
	c.state = s
	c.history = append(c.history, s)
}

// Checkpoint handles every pending signal without waiting for new ones.
// It blocks only while the process is suspended.
func (c *Controller) Checkpoint() error {
	for {
		select {
		case sig := <-c.cfg.Source.Signals():
			if err := c.handle(sig); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// WaitUntil handles signals until done is closed.
func (c *Controller) WaitUntil(done <-chan struct{}) error {
	for {
		select {
		case <-done:
			return nil
		case sig := <-c.cfg.Source.Signals():
			if err := c.handle(sig); err != nil {
				return err
			}
		}
	}
}

func (c *Controller) handle(sig Signal) error {
	switch sig {
	case Interrupt:
		if !c.cfg.Leader || c.State() != Running {
			c.cfg.Diag.Debug("interrupt ignored", "state", c.State().String())
			return nil
		}
		return c.confirmationRound()
	case StatusQuery:
		c.received(sig)
		c.report()
		if c.cfg.Leader {
			return nil
		}
		c.setState(Suspended)
		return c.suspend()
	case Terminate:
		return c.abort(true)
	case Continue:
		c.received(sig)
		if c.State() == Suspended {
			c.setState(Running)
		}
		return nil
	default:
		c.cfg.Diag.Warn("unknown signal", "signal", int(sig))
		return nil
	}
}

// suspend blocks until the process is resumed or told to abort.
func (c *Controller) suspend() error {
	for sig := range c.cfg.Source.Signals() {
		switch sig {
		case Continue:
			c.received(sig)
			c.setState(Running)
			return nil
		case Terminate:
			return c.abort(true)
		case StatusQuery:
			c.received(sig)
			c.report()
		}
	}
	return nil
}

func (c *Controller) confirmationRound() error {
	c.setState(AwaitingConfirmation)
	c.received(Interrupt)
	c.broadcast(StatusQuery)

	if c.cfg.SettleDelay > 0 {
		time.Sleep(c.cfg.SettleDelay)
	}
	if err := c.drainDuringRound(); err != nil {
		return err
	}

	ok, err := c.cfg.Confirmer.Confirm(ConfirmQuestion)
	if err != nil {
		c.cfg.Diag.Warn("confirmation failed, resuming", "error", err)
		ok = false
	}

	if !ok {
		c.broadcast(Continue)
		c.setState(Running)
		return c.afterRound()
	}

	c.broadcast(Terminate)
	return c.awaitOwnTerminate()
}

// drainDuringRound handles what arrived while the group settled: the
// leader's own StatusQuery in particular.
func (c *Controller) drainDuringRound() error {
	for {
		select {
		case sig := <-c.cfg.Source.Signals():
			switch sig {
			case StatusQuery:
				c.received(sig)
				c.report()
			case Continue:
				c.received(sig)
			case Terminate:
				return c.abort(true)
			}
		default:
			return nil
		}
	}
}

// afterRound drops interrupts that arrived while the user was being asked
// and handles everything else.
func (c *Controller) afterRound() error {
	for {
		select {
		case sig := <-c.cfg.Source.Signals():
			if sig == Interrupt {
				c.cfg.Diag.Debug("interrupt during confirmation ignored")
				continue
			}
			if err := c.handle(sig); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (c *Controller) awaitOwnTerminate() error {
	timer := time.NewTimer(c.cfg.TerminateGrace)
	defer timer.Stop()

	for {
		select {
		case sig := <-c.cfg.Source.Signals():
			if sig == Terminate {
				return c.abort(true)
			}
		case <-timer.C:
			c.cfg.Diag.Warn("own terminate signal not observed, aborting anyway",
				"grace", c.cfg.TerminateGrace.String())
			return c.abort(false)
		}
	}
}

// abort ends the process. received is false when the leader stops waiting
// for its own Terminate.
func (c *Controller) abort(received bool) error {
	c.setState(Aborting)
	if received {
		c.received(Terminate)
	}
	c.terminateWorkers()
	c.cfg.Exit(errors.ExitAborted)
	return &errors.ExitError{Code: errors.ExitAborted, Err: errors.ErrAborted}
}

// terminateWorkers reaches the workers forked after the group broadcast went
// out, which never saw it.
func (c *Controller) terminateWorkers() {
	for _, pid := range c.cfg.Workers() {
		err := c.cfg.Kill(pid, Terminate)
		switch {
		case err == nil:
			c.cfg.Diag.Debug("terminate forwarded", "child", pid)
		case errors.ClassOf(err) == errors.ClassProtocol:
			c.cfg.Diag.Debug("worker already gone", "child", pid)
		default:
			c.cfg.Diag.Warn("failed to terminate worker", "child", pid, "error", err)
		}
	}
}

func (c *Controller) broadcast(sig Signal) {
	b := c.cfg.Broadcaster
	if b == nil {
		return
	}
	if err := b.Broadcast(sig); err != nil {
		// The group may already be gone; the record is still written.
		c.cfg.Diag.Warn("broadcast failed", "signal", sig.String(), "error", err)
	}
	if err := c.cfg.Log.Recordf(eventlog.SignalSent, "%s : %d", sig, b.Group()); err != nil {
		c.cfg.Diag.Warn("failed to record sent signal", "error", err)
	}
}

func (c *Controller) received(sig Signal) {
	if err := c.cfg.Log.Record(eventlog.SignalRecv, sig.String()); err != nil {
		c.cfg.Diag.Warn("failed to record received signal", "error", err)
	}
}

func (c *Controller) report() {
	if _, err := fmt.Fprintln(c.cfg.Out, c.styles.Status(c.cfg.Status().String())); err != nil {
		c.cfg.Diag.Warn("failed to print status", "error", err)
	}
}
