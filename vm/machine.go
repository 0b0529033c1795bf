package vm

import "errors"

// ---------------------------------------------------------------------------
// Machine: three-region reduction state with a fuel counter
// ---------------------------------------------------------------------------

// Machine errors. Both arise only from caller misuse: the rewrite engine is
// expected to gate Dequeue on Busy and Pop/Peek on Arity.
var (
	// ErrEmptyStack is returned by Pop and Peek when Data holds nothing.
	ErrEmptyStack = errors.New("vm: pop from empty data stack")

	// ErrEmptyQueue is returned by Dequeue when Code holds nothing.
	ErrEmptyQueue = errors.New("vm: dequeue from empty code queue")
)

// Machine holds the state of one reduction in progress.
//
// Code is the queue of blocks still to be run, front at index 0. Data is
// the working stack the rewrite engine pops operands from, top at the high
// end. Sink collects blocks that are done for good, either because a
// rewrite got stuck (Thunk) or because a block is known to need no further
// work (Dump); nothing ever leaves the sink. Quota is the remaining fuel:
// one unit per acknowledged rewrite.
//
// A machine belongs to exactly one driver; there is no internal locking.
// Independent reductions run on independent machines.
type Machine struct {
	code  []*Block
	data  []*Block
	sink  []*Block
	quota int
}

// NewMachine creates a machine ready to reduce the given block within
// quota rewrite steps.
func NewMachine(initial *Block, quota int) *Machine {
	return &Machine{
		code:  []*Block{initial},
		quota: quota,
	}
}

// Busy reports whether the machine can still make progress: pending code
// remains and fuel is strictly positive. This is the driver loop's sole
// termination condition.
func (m *Machine) Busy() bool {
	return len(m.code) > 0 && m.quota > 0
}

// Tick consumes one unit of fuel. Call it exactly once per rewrite
// actually performed; the machine does not police speculative ticks.
func (m *Machine) Tick() {
	m.quota--
}

// Quota returns the remaining fuel.
func (m *Machine) Quota() int {
	return m.quota
}

// Refuel grants n additional units of fuel. The machine itself only ever
// spends fuel; topping up is a driver decision, made when resuming a
// snapshot of a machine that stopped with its budget exhausted.
func (m *Machine) Refuel(n int) {
	m.quota += n
}

// ---------------------------------------------------------------------------
// Data: the working stack
// ---------------------------------------------------------------------------

// Push places b on top of the working stack.
func (m *Machine) Push(b *Block) {
	m.data = append(m.data, b)
}

// Pop removes and returns the top of the working stack.
func (m *Machine) Pop() (*Block, error) {
	if len(m.data) == 0 {
		return nil, ErrEmptyStack
	}
	top := m.data[len(m.data)-1]
	m.data = m.data[:len(m.data)-1]
	return top, nil
}

// Peek returns the top of the working stack without removing it.
func (m *Machine) Peek() (*Block, error) {
	if len(m.data) == 0 {
		return nil, ErrEmptyStack
	}
	return m.data[len(m.data)-1], nil
}

// Arity returns the number of operands on the working stack. Rules check
// this before popping; short stacks route to Thunk, not to ErrEmptyStack.
func (m *Machine) Arity() int {
	return len(m.data)
}

// ---------------------------------------------------------------------------
// Sink: frozen blocks
// ---------------------------------------------------------------------------

// Thunk freezes a stuck rewrite: every block on the working stack moves
// into the sink, keeping its bottom-to-top order, then b goes on top, and
// the working stack is left empty. This is the non-crashing path for a
// rewrite that cannot proceed; the frozen fragment reappears, in order, in
// ToBlock's output.
func (m *Machine) Thunk(b *Block) {
	m.sink = append(m.sink, m.data...)
	m.sink = append(m.sink, b)
	m.data = m.data[:0]
}

// Dump pushes b directly onto the sink, leaving the working stack alone.
// Used for blocks known up front to need no rewriting.
func (m *Machine) Dump(b *Block) {
	m.sink = append(m.sink, b)
}

// ---------------------------------------------------------------------------
// Code: the pending queue
// ---------------------------------------------------------------------------

// Enqueue appends b to the back of the pending queue.
func (m *Machine) Enqueue(b *Block) {
	m.code = append(m.code, b)
}

// Dequeue removes and returns the front of the pending queue. A sequence
// block at the front is first split into First followed by Second,
// repeatedly, so the caller always receives a non-sequence block.
// Splitting is free: it consumes no fuel and never touches Data or Sink.
func (m *Machine) Dequeue() (*Block, error) {
	if len(m.code) == 0 {
		return nil, ErrEmptyQueue
	}
	for m.code[0].IsSeq() {
		seq := m.code[0]
		expanded := make([]*Block, 0, len(m.code)+1)
		expanded = append(expanded, seq.First, seq.Second)
		expanded = append(expanded, m.code[1:]...)
		m.code = expanded
	}
	front := m.code[0]
	m.code = m.code[1:]
	return front, nil
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// ToBlock reassembles the whole machine state into a single block whose
// execution order is: sink bottom to top, then the working stack bottom to
// top, then pending code front to back. It reads but never mutates the
// machine, so it can be called mid-run for inspection as well as at halt.
func (m *Machine) ToBlock() *Block {
	acc := Identity
	for i := len(m.code) - 1; i >= 0; i-- {
		acc = Compose(m.code[i], acc)
	}
	for i := len(m.data) - 1; i >= 0; i-- {
		acc = Compose(m.data[i], acc)
	}
	for i := len(m.sink) - 1; i >= 0; i-- {
		acc = Compose(m.sink[i], acc)
	}
	return acc
}
