package vm

import (
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("kelp.vm")

// StepAction says what the driver did with one dequeued block.
type StepAction int

const (
	// ActionRewrite: the block was rewritten (or a literal pushed) and one
	// unit of fuel was consumed.
	ActionRewrite StepAction = iota
	// ActionThunk: the block was stuck and frozen into the sink together
	// with the working stack. Costs no fuel.
	ActionThunk
	// ActionSkip: the block was the identity and did nothing. Costs no
	// fuel.
	ActionSkip
)

var actionNames = map[StepAction]string{
	ActionRewrite: "rewrite",
	ActionThunk:   "thunk",
	ActionSkip:    "skip",
}

func (a StepAction) String() string {
	return actionNames[a]
}

// An Observer sees every driver step: the dequeued block and what became
// of it. step counts dequeues, not fuel.
type Observer func(step int, b *Block, action StepAction)

// Run drives m until it is no longer busy and returns the number of
// rewrites performed (fuel consumed).
func Run(m *Machine) int {
	return RunWithObserver(m, nil)
}

// RunWithObserver is Run with a per-step callback, used by tracing and the
// verbose CLI path. obs may be nil.
func RunWithObserver(m *Machine, obs Observer) int {
	rewrites := 0
	step := 0
	for m.Busy() {
		b, err := m.Dequeue()
		if err != nil {
			// Busy guarantees non-empty code; this cannot happen.
			panic(err)
		}
		action := Step(m, b)
		if action == ActionRewrite {
			m.Tick()
			rewrites++
		}
		log.Debugf("step %d: %s %s (quota %d, arity %d)",
			step, action, b, m.Quota(), m.Arity())
		if obs != nil {
			obs(step, b, action)
		}
		step++
	}
	return rewrites
}

// Step applies the driver policy to one dequeued block and reports what
// happened. It does not tick; the caller ticks on ActionRewrite.
//
// Policy: identity does nothing; a literal is pushed onto the working
// stack as a completed rewrite; a hole can never be rewritten and is
// thunked; a word is looked up in the rule table and thunked when unknown,
// short of operands, or rejected by its rule.
func Step(m *Machine, b *Block) StepAction {
	switch b.Kind {
	case KindId:
		return ActionSkip

	case KindInt:
		m.Push(b)
		return ActionRewrite

	case KindHole:
		m.Thunk(b)
		return ActionThunk

	case KindWord:
		rule, ok := LookupRule(b.Name)
		if !ok || m.Arity() < rule.Need() {
			m.Thunk(b)
			return ActionThunk
		}
		args := make([]*Block, rule.Need())
		for i := range args {
			args[i], _ = m.Pop()
		}
		if rule.Rewrite(m, args) {
			return ActionRewrite
		}
		// Restore the operands before freezing so the thunk captures
		// the working stack exactly as the rewrite found it.
		for i := len(args) - 1; i >= 0; i-- {
			m.Push(args[i])
		}
		m.Thunk(b)
		return ActionThunk

	case KindSeq:
		// Dequeue expands sequences; one reaching here is caller misuse,
		// and freezing it would smuggle a sequence into the sink.
		panic("vm: Step on unexpanded sequence block")

	default:
		m.Thunk(b)
		return ActionThunk
	}
}
