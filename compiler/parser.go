package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kelplang/kelp/vm"
)

// ---------------------------------------------------------------------------
// Parser: recursive descent parser for the kelp term syntax
// ---------------------------------------------------------------------------

// Parser parses kelp source into a block tree.
//
// Grammar:
//
//	program := term*
//	term    := INTEGER | WORD | HOLE | '(' program ')'
//
// A program of several terms becomes a right-nested sequence; the empty
// program is the identity block.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	errors    []string
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// errorf records a parse error.
func (p *Parser) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf("line %d: %s", p.curToken.Pos.Line, fmt.Sprintf(format, args...))
	p.errors = append(p.errors, msg)
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []string {
	return p.errors
}

// ParseProgram parses the whole input into one block.
func (p *Parser) ParseProgram() *vm.Block {
	blocks := p.parseTerms(TokenEOF)
	return sequence(blocks)
}

// parseTerms parses terms until the given closing token (or EOF).
func (p *Parser) parseTerms(until TokenType) []*vm.Block {
	var blocks []*vm.Block
	for !p.curTokenIs(until) && !p.curTokenIs(TokenEOF) {
		b := p.parseTerm()
		if b != nil {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// parseTerm parses a single term.
func (p *Parser) parseTerm() *vm.Block {
	switch p.curToken.Type {
	case TokenInteger:
		n, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
		if err != nil {
			p.errorf("bad integer literal %q: %v", p.curToken.Literal, err)
			p.nextToken()
			return nil
		}
		p.nextToken()
		return vm.Int(n)

	case TokenWord:
		name := p.curToken.Literal
		p.nextToken()
		return vm.Word(name)

	case TokenHole:
		name := p.curToken.Literal
		p.nextToken()
		return vm.Hole(name)

	case TokenLParen:
		p.nextToken()
		blocks := p.parseTerms(TokenRParen)
		if !p.curTokenIs(TokenRParen) {
			p.errorf("unclosed group")
		} else {
			p.nextToken()
		}
		return sequence(blocks)

	case TokenRParen:
		p.errorf("unexpected ')'")
		p.nextToken()
		return nil

	case TokenError:
		p.errorf("%s", p.curToken.Literal)
		p.nextToken()
		return nil

	default:
		p.errorf("unexpected token %s", p.curToken)
		p.nextToken()
		return nil
	}
}

// sequence folds blocks into a right-nested sequence.
func sequence(blocks []*vm.Block) *vm.Block {
	acc := vm.Identity
	for i := len(blocks) - 1; i >= 0; i-- {
		acc = vm.Compose(blocks[i], acc)
	}
	return acc
}

// Parse is the convenience entry point: source text in, block out, with
// all parse errors joined into one.
func Parse(input string) (*vm.Block, error) {
	p := NewParser(input)
	block := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("compiler: %s", strings.Join(errs, "; "))
	}
	return block, nil
}
