//go:build unix

package cancel

import (
	"github.com/Iron-Ham/xmod/internal/errors"
	"github.com/Iron-Ham/xmod/internal/event"
	"golang.org/x/sys/unix"
)

// Broadcaster delivers a signal to every member of a process group,
// the sender included.
type Broadcaster interface {
	Broadcast(sig Signal) error
	// Group identifies the target group in SIGNAL_SENT records.
	Group() int
}

// GroupBroadcaster signals an operating system process group.
type GroupBroadcaster struct {
	pgid int
}

// NewGroupBroadcaster returns a Broadcaster for the process group pgid.
func NewGroupBroadcaster(pgid int) *GroupBroadcaster {
	return &GroupBroadcaster{pgid: pgid}
}

// Group returns the process group id.
func (b *GroupBroadcaster) Group() int { return b.pgid }

// Broadcast sends sig to the whole group. A group with no members left
// yields ErrNoSuchProcess.
func (b *GroupBroadcaster) Broadcast(sig Signal) error {
	if err := unix.Kill(-b.pgid, sig.OS()); err != nil {
		if err == unix.ESRCH {
			return errors.Wrapf(errors.ErrNoSuchProcess, "signal %s to group %d", sig, b.pgid)
		}
		return errors.Wrapf(err, "signal %s to group %d", sig, b.pgid)
	}
	return nil
}

// SignalProcess sends sig to the single process pid. A process that is gone
// yields ErrNoSuchProcess.
func SignalProcess(pid int, sig Signal) error {
	if err := unix.Kill(pid, sig.OS()); err != nil {
		if err == unix.ESRCH {
			return errors.Wrapf(errors.ErrNoSuchProcess, "signal %s to process %d", sig, pid)
		}
		return errors.Wrapf(err, "signal %s to process %d", sig, pid)
	}
	return nil
}

// BusBroadcaster publishes signals on an in-memory event bus, where each
// subscribed member stands for one process of the group.
type BusBroadcaster struct {
	bus    *event.Bus
	member int
	group  int
}

// NewBusBroadcaster returns a Broadcaster that publishes as member to group.
func NewBusBroadcaster(bus *event.Bus, member, group int) *BusBroadcaster {
	return &BusBroadcaster{bus: bus, member: member, group: group}
}

// Group returns the group id.
func (b *BusBroadcaster) Group() int { return b.group }

// Broadcast publishes sig to every member of the bus.
func (b *BusBroadcaster) Broadcast(sig Signal) error {
	if len(b.bus.Members()) == 0 {
		return errors.Wrapf(errors.ErrNoSuchProcess, "signal %s to group %d", sig, b.group)
	}
	b.bus.Publish(event.NewSignalEvent(sig.String(), b.member, b.group))
	return nil
}
