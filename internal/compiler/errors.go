package compiler

import (
	"fmt"

	"github.com/xirelogy/go-lox/internal/token"
)

// CompileError reports the first problem found in the source.
type CompileError struct {
	Message string
	// Line is 0 when the error is not tied to a token.
	Line   int
	Lexeme string
}

func (e *CompileError) Error() string {
	switch {
	case e.Line > 0 && e.Lexeme != "":
		return fmt.Sprintf("line %d at '%s': %s", e.Line, e.Lexeme, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	default:
		return e.Message
	}
}

func (c *compiler) errorAt(tok token.Token, msg string) error {
	return &CompileError{
		Message: msg,
		Line:    tok.Line,
		Lexeme:  c.scanner.Lexeme(tok),
	}
}

func (c *compiler) errorf(format string, args ...any) error {
	return &CompileError{
		Message: fmt.Sprintf(format, args...),
		Line:    c.line(),
	}
}
