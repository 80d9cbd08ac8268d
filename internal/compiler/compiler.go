package compiler

import (
	"fmt"
	"strconv"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-lox/internal/bytecode"
	"github.com/xirelogy/go-lox/internal/lexer"
	"github.com/xirelogy/go-lox/internal/token"
)

var log = commonlog.GetLogger("lox.compiler")

// Compile scans and compiles src in a single pass. The first error stops
// compilation.
func Compile(src string) (*bytecode.Chunk, error) {
	c := &compiler{
		scanner: lexer.New(src),
		chunk:   bytecode.NewChunk(),
	}
	if err := c.compile(); err != nil {
		log.Debugf("compile failed: %s", err)
		return nil, err
	}
	log.Debugf("compiled %d bytes, %d constants", c.chunk.Len(), len(c.chunk.Constants))
	return c.chunk, nil
}

type compiler struct {
	scanner  *lexer.Scanner
	chunk    *bytecode.Chunk
	previous *token.Token
	current  *token.Token
}

func (c *compiler) compile() error {
	if err := c.advance(); err != nil {
		return err
	}
	if err := c.expression(); err != nil {
		return err
	}
	if err := c.consume(token.EOF, "Expect end of expression."); err != nil {
		return err
	}
	c.emit(bytecode.OP_RETURN)
	return nil
}

// advance shifts current into previous and pulls the next token. Once the
// scanner is exhausted current becomes nil.
func (c *compiler) advance() error {
	c.previous = c.current
	tok, ok := c.scanner.Next()
	if !ok {
		c.current = nil
		return nil
	}
	if tok.Type == token.Illegal {
		return c.errorAt(tok, tok.Message)
	}
	c.current = &tok
	return nil
}

func (c *compiler) consume(expected token.Type, message string) error {
	msg := fmt.Sprintf("%s - expected %s", message, expected)
	if c.current == nil {
		return c.errorf("%s: no tokens left", msg)
	}
	if c.current.Type != expected {
		return c.errorAt(*c.current, fmt.Sprintf("%s: got %s", msg, c.current.Type))
	}
	return c.advance()
}

// expression compiles the expression starting at current. Only number
// literals are accepted; any other token kind is a CompileError naming it.
func (c *compiler) expression() error {
	if c.current == nil {
		return c.errorf("expected expression: no tokens left")
	}
	tok := *c.current
	if tok.Type != token.Number {
		return c.errorAt(tok, fmt.Sprintf("unhandled token %s", tok.Type))
	}
	if err := c.number(tok); err != nil {
		return err
	}
	return c.advance()
}

func (c *compiler) number(tok token.Token) error {
	lexeme := c.scanner.Lexeme(tok)
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return c.errorAt(tok, fmt.Sprintf("invalid number %q", lexeme))
	}
	if len(c.chunk.Constants) >= bytecode.MaxConstants {
		return c.errorAt(tok, "too many constants in one chunk")
	}
	c.chunk.WriteConstant(value, tok.Line)
	return nil
}

// emit writes op at the line of the last consumed token. Tokens are only
// consumed forward, so the lines handed to the chunk never decrease.
func (c *compiler) emit(op bytecode.OpCode) {
	c.chunk.WriteOp(op, c.line())
}

func (c *compiler) line() int {
	if c.previous == nil {
		return 0
	}
	return c.previous.Line
}
