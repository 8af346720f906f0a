package state

import (
	"sync"
	"testing"
)

type step string

func (s step) State() State { return State(s) }

func TestMemoryManagerLifecycle(t *testing.T) {
	m := NewMemoryManager[step]()

	if m.InProgress("alice") {
		t.Fatal("fresh key must be idle")
	}
	if got := m.GetState("alice"); got != StateIdle {
		t.Fatalf("GetState() = %q, want idle", got)
	}

	m.Set("alice", step("awaiting_name"))
	m.Set("bob", step("awaiting_link"))
	if got := m.GetState("alice"); got != "awaiting_name" {
		t.Fatalf("GetState(alice) = %q", got)
	}

	// last set wins
	m.Set("alice", step("awaiting_link"))
	if s, ok := m.Get("alice"); !ok || s != "awaiting_link" {
		t.Fatalf("Get(alice) = %q, %v", s, ok)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	m.Clear("alice")
	if m.InProgress("alice") {
		t.Fatal("alice still in progress after Clear")
	}
	if !m.InProgress("bob") {
		t.Fatal("clearing alice touched bob")
	}
	m.Clear("nobody")
}

func TestMemoryManagerLockPerKey(t *testing.T) {
	m := NewMemoryManager[step]()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("alice")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}

	mm := m.(*memoryManager[step])
	mm.locksMu.Lock()
	defer mm.locksMu.Unlock()
	if len(mm.locks) != 0 {
		t.Fatalf("lock table leaked %d entries", len(mm.locks))
	}
}
