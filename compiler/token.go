package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the kelp term syntax
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	TokenInteger // 42, -7
	TokenWord    // dup, add
	TokenHole    // ?x

	TokenLParen // (
	TokenRParen // )
)

var tokenNames = map[TokenType]string{
	TokenEOF:     "EOF",
	TokenError:   "ERROR",
	TokenInteger: "INTEGER",
	TokenWord:    "WORD",
	TokenHole:    "HOLE",
	TokenLParen:  "(",
	TokenRParen:  ")",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Position is a location in the source text.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // line number, 1-based
	Column int // column number, 1-based
}

// Token is one lexical unit of kelp source.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}
