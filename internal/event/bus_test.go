package event

import (
	"sync"
	"testing"
)

func TestBus_PublishSignal(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Join(100, func(e Event) {
		received = e
	})

	bus.Publish(NewSignalEvent("SIGUSR1", 100, 100))

	if received == nil {
		t.Fatal("Handler should have received the event")
	}
	if received.EventType() != "signal.sigusr1" {
		t.Errorf("Expected event type 'signal.sigusr1', got '%s'", received.EventType())
	}
	sig := received.(SignalEvent)
	if sig.Signal != "SIGUSR1" || sig.Sender != 100 || sig.Group != 100 {
		t.Errorf("unexpected signal event %+v", sig)
	}
	if sig.Timestamp().IsZero() {
		t.Error("event should be timestamped")
	}
}

func TestBus_PublishWithoutMembers(t *testing.T) {
	bus := NewBus()
	bus.Publish(NewSignalEvent("SIGUSR1", 1, 1))
	if len(bus.Members()) != 0 {
		t.Error("publishing must not create members")
	}
}

func TestBus_JoinDeliversToEveryMemberIncludingSender(t *testing.T) {
	bus := NewBus()

	got := make(map[int][]string)
	for _, member := range []int{100, 101, 102} {
		m := member
		bus.Join(m, func(e Event) {
			if sig, ok := e.(SignalEvent); ok {
				got[m] = append(got[m], sig.Signal)
			}
		})
	}

	bus.Publish(NewSignalEvent("SIGUSR1", 100, 100))
	bus.Publish(NewSignalEvent("SIGCONT", 100, 100))

	for _, member := range []int{100, 101, 102} {
		if len(got[member]) != 2 || got[member][0] != "SIGUSR1" || got[member][1] != "SIGCONT" {
			t.Errorf("member %d received %v, want [SIGUSR1 SIGCONT]", member, got[member])
		}
	}
}

func TestBus_Leave(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Join(7, func(e Event) {
		if _, ok := e.(SignalEvent); ok {
			calls++
		}
	})
	var left []int
	bus.Join(8, func(e Event) {
		if ml, ok := e.(MemberLeftEvent); ok {
			left = append(left, ml.Member)
		}
	})

	if members := bus.Members(); len(members) != 2 || members[0] != 7 || members[1] != 8 {
		t.Fatalf("Members() = %v, want [7 8]", members)
	}

	if !bus.Leave(7) {
		t.Fatal("Leave should report the member was removed")
	}
	if bus.Leave(7) {
		t.Error("second Leave should report nothing removed")
	}

	bus.Publish(NewSignalEvent("SIGUSR2", 8, 8))
	if calls != 0 {
		t.Errorf("a member that left received %d signals", calls)
	}
	if len(left) != 1 || left[0] != 7 {
		t.Errorf("member.left events = %v, want [7]", left)
	}
	if members := bus.Members(); len(members) != 1 || members[0] != 8 {
		t.Errorf("Members() = %v, want [8]", members)
	}
}

func TestBus_HandlerPanicRecovery(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Join(1, func(e Event) {
		calls++
		panic("handler panic")
	})
	bus.Join(2, func(e Event) {
		calls++
	})

	bus.Publish(NewSignalEvent("SIGUSR1", 1, 1))

	if calls != 2 {
		t.Errorf("Expected both handlers to be called despite panic, got %d calls", calls)
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	calls := 0
	bus.Join(1, func(e Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(NewSignalEvent("SIGUSR1", 2, 1))
		}()
	}
	wg.Wait()

	if calls != 100 {
		t.Errorf("Expected 100 calls, got %d", calls)
	}
}
