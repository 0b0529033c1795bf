package vm

// ---------------------------------------------------------------------------
// Rewrite rules: one table entry per combinator word
// ---------------------------------------------------------------------------

// A Rule rewrites one combinator against the machine's working stack.
//
// The driver pops Need operands before calling Rewrite (args[0] is the
// block that was on top). Rewrite pushes its results and reports true, or
// reports false without touching the machine when the operands don't fit;
// the driver then restores the operands and thunks the word.
type Rule interface {
	Need() int
	Rewrite(m *Machine, args []*Block) bool
}

// shuffleRule is a pure stack shuffle: it pushes a fixed pattern of its
// operands back, bottom first. Indices refer into args (0 = old top).
type shuffleRule struct {
	need int
	out  []int
}

func (r shuffleRule) Need() int { return r.need }

func (r shuffleRule) Rewrite(m *Machine, args []*Block) bool {
	for _, i := range r.out {
		m.Push(args[i])
	}
	return true
}

// binaryIntRule combines the top two operands, both integer literals, into
// one. op reports false for partial operations (division by zero), which
// makes the rewrite stuck rather than an error.
type binaryIntRule struct {
	op func(a, b int64) (int64, bool)
}

func (r binaryIntRule) Need() int { return 2 }

func (r binaryIntRule) Rewrite(m *Machine, args []*Block) bool {
	b, a := args[0], args[1]
	if a.Kind != KindInt || b.Kind != KindInt {
		return false
	}
	n, ok := r.op(a.Int, b.Int)
	if !ok {
		return false
	}
	m.Push(Int(n))
	return true
}

// rewriteRules is the combinator table. Words absent from it are stuck by
// definition and get thunked by the driver.
var rewriteRules = map[string]Rule{
	"nop":  shuffleRule{need: 0},
	"dup":  shuffleRule{need: 1, out: []int{0, 0}},
	"drop": shuffleRule{need: 1, out: nil},
	"swap": shuffleRule{need: 2, out: []int{0, 1}},
	"over": shuffleRule{need: 2, out: []int{1, 0, 1}},

	"add": binaryIntRule{op: func(a, b int64) (int64, bool) { return a + b, true }},
	"sub": binaryIntRule{op: func(a, b int64) (int64, bool) { return a - b, true }},
	"mul": binaryIntRule{op: func(a, b int64) (int64, bool) { return a * b, true }},
	"div": binaryIntRule{op: func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}},
	"eq": binaryIntRule{op: func(a, b int64) (int64, bool) {
		if a == b {
			return 1, true
		}
		return 0, true
	}},
}

// LookupRule returns the rule for a combinator word, if one is defined.
func LookupRule(name string) (Rule, bool) {
	r, ok := rewriteRules[name]
	return r, ok
}
