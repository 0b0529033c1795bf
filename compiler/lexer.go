package compiler

import (
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: tokenizer for the kelp term syntax
// ---------------------------------------------------------------------------

// Lexer tokenizes kelp source code.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// readChar reads the next character. line and col always describe the
// character currently in ch.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		l.col++
	} else {
		r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
		l.ch = r
		l.pos = l.readPos
		l.readPos += size
		l.col++
	}
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	pos := l.position()

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Literal: "", Pos: pos}

	case l.ch == '(':
		l.readChar()
		return Token{Type: TokenLParen, Literal: "(", Pos: pos}

	case l.ch == ')':
		l.readChar()
		return Token{Type: TokenRParen, Literal: ")", Pos: pos}

	case l.ch == '?':
		l.readChar()
		if !isWordStart(l.ch) {
			return Token{Type: TokenError, Literal: "expected name after '?'", Pos: pos}
		}
		return Token{Type: TokenHole, Literal: l.readWord(), Pos: pos}

	case l.ch == '-' && unicode.IsDigit(l.peekChar()):
		return Token{Type: TokenInteger, Literal: l.readNumber(), Pos: pos}

	case unicode.IsDigit(l.ch):
		return Token{Type: TokenInteger, Literal: l.readNumber(), Pos: pos}

	case isWordStart(l.ch):
		return Token{Type: TokenWord, Literal: l.readWord(), Pos: pos}

	default:
		ch := string(l.ch)
		l.readChar()
		return Token{Type: TokenError, Literal: "unexpected character " + ch, Pos: pos}
	}
}

// skipWhitespaceAndComments skips whitespace and "--" line comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}
		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		return
	}
}

// readNumber consumes an integer literal, including a leading minus.
func (l *Lexer) readNumber() string {
	start := l.pos
	if l.ch == '-' {
		l.readChar()
	}
	for unicode.IsDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readWord consumes a word: letters, digits, '-' and '_' after the first
// character.
func (l *Lexer) readWord() string {
	start := l.pos
	for isWordPart(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func isWordStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isWordPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '-' || ch == '_'
}
