package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Block: the term representation the machine schedules and rewrites
// ---------------------------------------------------------------------------

// BlockKind tags the variant held by a Block.
type BlockKind uint8

const (
	// KindId is the neutral block: the identity of Compose. Running it
	// does nothing.
	KindId BlockKind = iota

	// KindSeq is the one structural variant: "First, then Second". It is
	// a lazy grouping device, expanded by the machine's Dequeue and never
	// rewritten directly.
	KindSeq

	// KindWord names a combinator. The rewrite engine gives words their
	// meaning; the machine treats them as opaque payload.
	KindWord

	// KindInt is an integer literal.
	KindInt

	// KindHole is an unbound placeholder. No rule can rewrite a hole, so
	// any rewrite that reaches one gets thunked.
	KindHole
)

var kindNames = map[BlockKind]string{
	KindId:   "id",
	KindSeq:  "seq",
	KindWord: "word",
	KindInt:  "int",
	KindHole: "hole",
}

func (k BlockKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Block is a node in the program term. Exactly one variant is populated,
// selected by Kind. Blocks are immutable after construction; moving one
// between machine regions transfers the pointer, never the structure.
type Block struct {
	Kind BlockKind

	// KindSeq
	First  *Block
	Second *Block

	// KindWord, KindHole
	Name string

	// KindInt
	Int int64
}

// Identity is the neutral block, shared by every machine.
var Identity = &Block{Kind: KindId}

// Seq builds the structural "first, then second" grouping.
func Seq(first, second *Block) *Block {
	return &Block{Kind: KindSeq, First: first, Second: second}
}

// Word builds a combinator reference.
func Word(name string) *Block {
	return &Block{Kind: KindWord, Name: name}
}

// Int builds an integer literal.
func Int(n int64) *Block {
	return &Block{Kind: KindInt, Int: n}
}

// Hole builds an unbound placeholder.
func Hole(name string) *Block {
	return &Block{Kind: KindHole, Name: name}
}

// IsSeq reports whether b is the structural sequence variant.
func (b *Block) IsSeq() bool {
	return b.Kind == KindSeq
}

// IsId reports whether b is the neutral block.
func (b *Block) IsId() bool {
	return b.Kind == KindId
}

// Compose joins two blocks into "a, then b". It is associative with
// Identity as both left and right identity; the identity laws are applied
// structurally so that composing with Identity allocates nothing.
func Compose(a, b *Block) *Block {
	if a.IsId() {
		return b
	}
	if b.IsId() {
		return a
	}
	return Seq(a, b)
}

// Flatten appends the execution-order leaves of b to out: sequences are
// expanded left-to-right and identity blocks vanish. Two blocks that
// flatten to the same leaves are indistinguishable to the machine, which
// is the observable equivalence Compose's associativity promises.
func (b *Block) Flatten(out []*Block) []*Block {
	switch b.Kind {
	case KindId:
		return out
	case KindSeq:
		out = b.First.Flatten(out)
		return b.Second.Flatten(out)
	default:
		return append(out, b)
	}
}

// Equal reports structural equivalence modulo sequence grouping and
// identity blocks: both sides are flattened and their leaves compared.
func Equal(a, b *Block) bool {
	la := a.Flatten(nil)
	lb := b.Flatten(nil)
	if len(la) != len(lb) {
		return false
	}
	for i := range la {
		if !leafEqual(la[i], lb[i]) {
			return false
		}
	}
	return true
}

func leafEqual(a, b *Block) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindWord, KindHole:
		return a.Name == b.Name
	case KindInt:
		return a.Int == b.Int
	default:
		return true
	}
}

// String renders b in source syntax: leaves space-separated, groups
// parenthesized, holes prefixed with '?'.
func (b *Block) String() string {
	var sb strings.Builder
	b.render(&sb, false)
	return sb.String()
}

func (b *Block) render(sb *strings.Builder, nested bool) {
	switch b.Kind {
	case KindId:
		sb.WriteString("()")
	case KindSeq:
		if nested {
			sb.WriteByte('(')
		}
		b.First.render(sb, true)
		sb.WriteByte(' ')
		b.Second.render(sb, true)
		if nested {
			sb.WriteByte(')')
		}
	case KindWord:
		sb.WriteString(b.Name)
	case KindInt:
		sb.WriteString(strconv.FormatInt(b.Int, 10))
	case KindHole:
		sb.WriteByte('?')
		sb.WriteString(b.Name)
	}
}
