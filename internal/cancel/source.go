//go:build unix

package cancel

import (
	"os"
	"os/signal"
	"sync"

	"github.com/Iron-Ham/xmod/internal/event"
	"golang.org/x/sys/unix"
)

// sourceBuffer bounds pending signals per process. Deliveries beyond it are
// dropped, the way a pending standard signal absorbs a second delivery.
const sourceBuffer = 16

// Source delivers protocol signals addressed to one process.
type Source interface {
	Signals() <-chan Signal
	Stop()
}

// ChanSource is a Source fed by Deliver.
type ChanSource struct {
	ch       chan Signal
	stopOnce sync.Once
	onStop   func()
}

// NewChanSource returns an empty ChanSource.
func NewChanSource() *ChanSource {
	return &ChanSource{ch: make(chan Signal, sourceBuffer)}
}

// Signals returns the delivery channel.
func (s *ChanSource) Signals() <-chan Signal { return s.ch }

// Deliver queues sig. It reports false when the buffer is full.
func (s *ChanSource) Deliver(sig Signal) bool {
	select {
	case s.ch <- sig:
		return true
	default:
		return false
	}
}

// Stop releases whatever feeds the source.
func (s *ChanSource) Stop() {
	s.stopOnce.Do(func() {
		if s.onStop != nil {
			s.onStop()
		}
	})
}

// NewOSSource subscribes to the protocol signals of the current process.
//
// Only the leader listens for Interrupt. Workers ignore it, so a terminal
// ^C that reaches the whole foreground group is handled once, by the leader.
func NewOSSource(leader bool) *ChanSource {
	sigs := []os.Signal{unix.SIGUSR1, unix.SIGUSR2, unix.SIGCONT}
	if leader {
		sigs = append(sigs, unix.SIGINT)
	} else {
		signal.Ignore(unix.SIGINT)
	}

	raw := make(chan os.Signal, sourceBuffer)
	signal.Notify(raw, sigs...)

	src := NewChanSource()
	done := make(chan struct{})
	src.onStop = func() {
		signal.Stop(raw)
		close(done)
	}

	go func() {
		for {
			select {
			case <-done:
				return
			case osSig := <-raw:
				if sig, ok := FromOS(osSig); ok {
					src.Deliver(sig)
				}
			}
		}
	}()
	return src
}

// JoinBus registers member on bus and returns a Source receiving every
// signal published there. Stop leaves the bus.
func JoinBus(bus *event.Bus, member int) *ChanSource {
	src := NewChanSource()
	bus.Join(member, func(e event.Event) {
		se, ok := e.(event.SignalEvent)
		if !ok {
			return
		}
		if sig, ok := ParseSignal(se.Signal); ok {
			src.Deliver(sig)
		}
	})
	src.onStop = func() { bus.Leave(member) }
	return src
}
