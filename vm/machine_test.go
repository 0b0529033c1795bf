package vm

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Busy predicate
// ---------------------------------------------------------------------------

func TestBusyRequiresCodeAndQuota(t *testing.T) {
	m := NewMachine(Word("dup"), 5)
	if !m.Busy() {
		t.Error("machine with code and quota should be busy")
	}

	empty := NewMachine(Word("dup"), 5)
	if _, err := empty.Dequeue(); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if empty.Busy() {
		t.Error("machine with empty code should not be busy")
	}
}

func TestBusyFalseAtZeroQuota(t *testing.T) {
	m := NewMachine(Word("dup"), 0)
	if m.Busy() {
		t.Error("machine with zero quota should not be busy regardless of code")
	}
}

// ---------------------------------------------------------------------------
// Tick
// ---------------------------------------------------------------------------

func TestTickMonotonicity(t *testing.T) {
	const n = 7
	m := NewMachine(Word("dup"), n)
	for i := 0; i < n; i++ {
		if !m.Busy() {
			t.Fatalf("machine went idle after %d ticks, want %d", i, n)
		}
		m.Tick()
	}
	if m.Quota() != 0 {
		t.Errorf("quota = %d after %d ticks, want 0", m.Quota(), n)
	}
	if m.Busy() {
		t.Error("machine should not be busy at zero quota even with code pending")
	}
}

func TestRefuelRestoresBusy(t *testing.T) {
	m := NewMachine(Word("dup"), 1)
	m.Tick()
	if m.Busy() {
		t.Fatal("machine should be idle with quota spent")
	}
	m.Refuel(5)
	if m.Quota() != 5 {
		t.Errorf("quota = %d after refuel, want 5", m.Quota())
	}
	if !m.Busy() {
		t.Error("refueled machine with pending code should be busy")
	}
}

// ---------------------------------------------------------------------------
// Data stack
// ---------------------------------------------------------------------------

func TestPushPopPeek(t *testing.T) {
	m := NewMachine(Identity, 1)
	m.Push(Int(1))
	m.Push(Int(2))

	if m.Arity() != 2 {
		t.Errorf("arity = %d, want 2", m.Arity())
	}

	top, err := m.Peek()
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if top.Int != 2 {
		t.Errorf("peek = %s, want 2", top)
	}
	if m.Arity() != 2 {
		t.Error("peek should not remove the top")
	}

	got, err := m.Pop()
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if got.Int != 2 {
		t.Errorf("pop = %s, want 2", got)
	}
	if m.Arity() != 1 {
		t.Errorf("arity = %d after pop, want 1", m.Arity())
	}
}

func TestEmptyStackErrors(t *testing.T) {
	m := NewMachine(Identity, 1)
	if _, err := m.Pop(); !errors.Is(err, ErrEmptyStack) {
		t.Errorf("pop on empty data: err = %v, want ErrEmptyStack", err)
	}
	if _, err := m.Peek(); !errors.Is(err, ErrEmptyStack) {
		t.Errorf("peek on empty data: err = %v, want ErrEmptyStack", err)
	}
}

// ---------------------------------------------------------------------------
// Code queue and sequence expansion
// ---------------------------------------------------------------------------

func TestDequeueFIFO(t *testing.T) {
	m := NewMachine(Word("a"), 10)
	m.Enqueue(Word("b"))
	m.Enqueue(Word("c"))
	for _, want := range []string{"a", "b", "c"} {
		got, err := m.Dequeue()
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if got.Name != want {
			t.Errorf("dequeue = %s, want %s", got, want)
		}
	}
}

func TestEmptyQueueError(t *testing.T) {
	m := NewMachine(Word("a"), 1)
	if _, err := m.Dequeue(); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if _, err := m.Dequeue(); !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("dequeue on empty code: err = %v, want ErrEmptyQueue", err)
	}
}

func TestSequenceExpansionPreservesOrder(t *testing.T) {
	a, b := Word("a"), Word("b")
	m := NewMachine(Seq(a, b), 10)
	m.Enqueue(Word("c"))

	first, err := m.Dequeue()
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	second, err := m.Dequeue()
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	third, err := m.Dequeue()
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if first != a || second != b {
		t.Errorf("expanded sequence dequeued as %s, %s; want a, b", first, second)
	}
	if third.Name != "c" {
		t.Errorf("block after expanded sequence = %s, want c", third)
	}
}

func TestNestedSequenceExpansion(t *testing.T) {
	// ((a b) c) at the front must still come out a, b, c.
	m := NewMachine(Seq(Seq(Word("a"), Word("b")), Word("c")), 10)
	for _, want := range []string{"a", "b", "c"} {
		got, err := m.Dequeue()
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if got.Name != want {
			t.Errorf("dequeue = %s, want %s", got, want)
		}
	}
	if _, err := m.Dequeue(); !errors.Is(err, ErrEmptyQueue) {
		t.Error("code should be empty after full expansion")
	}
}

func TestExpansionConsumesNoQuota(t *testing.T) {
	m := NewMachine(Seq(Word("a"), Seq(Word("b"), Word("c"))), 3)
	for i := 0; i < 3; i++ {
		if _, err := m.Dequeue(); err != nil {
			t.Fatalf("dequeue: %v", err)
		}
	}
	if m.Quota() != 3 {
		t.Errorf("quota = %d after expansion-only dequeues, want 3", m.Quota())
	}
	if m.Arity() != 0 {
		t.Error("expansion must not touch the data stack")
	}
}

// ---------------------------------------------------------------------------
// Thunk and Dump
// ---------------------------------------------------------------------------

func TestThunkPreservesOrderAndClearsData(t *testing.T) {
	m := NewMachine(Identity, 10)
	m.Push(Word("x"))
	m.Push(Word("y"))
	m.Push(Word("z"))
	m.Thunk(Word("w"))

	if m.Arity() != 0 {
		t.Errorf("arity = %d after thunk, want 0", m.Arity())
	}

	got := m.ToBlock().Flatten(nil)
	want := []string{"x", "y", "z", "w"}
	if len(got) != len(want) {
		t.Fatalf("residual has %d leaves, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("residual leaf %d = %s, want %s", i, got[i], name)
		}
	}
}

func TestThunkStacksAboveExistingSink(t *testing.T) {
	m := NewMachine(Identity, 10)
	m.Dump(Word("old"))
	m.Push(Word("x"))
	m.Thunk(Word("w"))

	got := m.ToBlock().Flatten(nil)
	want := []string{"old", "x", "w"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("residual leaf %d = %s, want %s", i, got[i], name)
		}
	}
}

func TestDumpIgnoresData(t *testing.T) {
	m := NewMachine(Identity, 10)
	m.Push(Word("x"))
	m.Dump(Word("d"))
	if m.Arity() != 1 {
		t.Errorf("arity = %d after dump, want 1", m.Arity())
	}
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

func TestToBlockRegionOrder(t *testing.T) {
	m := NewMachine(Word("c1"), 10)
	m.Enqueue(Word("c2"))
	m.Push(Word("d1"))
	m.Push(Word("d2"))
	m.Dump(Word("s1"))
	m.Dump(Word("s2"))

	// Sink bottom→top, then data bottom→top, then code front→back.
	got := m.ToBlock().Flatten(nil)
	want := []string{"s1", "s2", "d1", "d2", "c1", "c2"}
	if len(got) != len(want) {
		t.Fatalf("residual has %d leaves, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("residual leaf %d = %s, want %s", i, got[i], name)
		}
	}
}

func TestToBlockDoesNotMutate(t *testing.T) {
	m := NewMachine(Seq(Word("a"), Word("b")), 4)
	m.Push(Int(1))
	m.Dump(Word("s"))

	before := m.ToBlock()
	codeLen, dataLen, sinkLen, quota := len(m.code), len(m.data), len(m.sink), m.quota

	after := m.ToBlock()

	if len(m.code) != codeLen || len(m.data) != dataLen || len(m.sink) != sinkLen || m.quota != quota {
		t.Error("ToBlock mutated machine state")
	}
	if !Equal(before, after) {
		t.Errorf("ToBlock not stable: %s vs %s", before, after)
	}
}

func TestToBlockEmptyMachine(t *testing.T) {
	m := NewMachine(Identity, 1)
	if _, err := m.Dequeue(); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if !m.ToBlock().IsId() {
		t.Errorf("empty machine residual = %s, want identity", m.ToBlock())
	}
}

// ---------------------------------------------------------------------------
// End-to-end scenario
// ---------------------------------------------------------------------------

func TestQuotaExhaustionScenario(t *testing.T) {
	a, b, c := Word("a"), Word("b"), Word("c")
	m := NewMachine(Seq(a, Seq(b, c)), 2)

	got, err := m.Dequeue()
	if err != nil || got != a {
		t.Fatalf("dequeue = %s, %v; want a", got, err)
	}
	m.Push(got)
	m.Tick()

	got, err = m.Dequeue()
	if err != nil || got != b {
		t.Fatalf("dequeue = %s, %v; want b", got, err)
	}
	m.Push(got)
	m.Tick()

	if m.Busy() {
		t.Error("machine should be idle with quota exhausted and c pending")
	}

	residual := m.ToBlock()
	want := Compose(a, Compose(b, c))
	if !Equal(residual, want) {
		t.Errorf("residual = %s, want %s", residual, want)
	}
}
