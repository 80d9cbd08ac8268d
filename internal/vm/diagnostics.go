package vm

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xirelogy/go-lox/internal/bytecode"
)

// ErrStackOverflow is the cause of a RuntimeError raised when a push would
// exceed the configured stack depth.
var ErrStackOverflow = errors.New("stack overflow")

// TraceInfo describes a single instruction dispatch. Stack is a snapshot
// taken before the instruction runs, bottom first.
type TraceInfo struct {
	Offset int
	Line   int
	Op     bytecode.OpCode
	Stack  []Value
}

// TraceHook observes instruction dispatch for debugging/profiling.
type TraceHook func(TraceInfo)

// RuntimeError carries the position of a VM failure.
type RuntimeError struct {
	Message string
	// Offset and Line are -1 when the failure has no code position.
	Offset int
	Line   int
	// Op is the raw opcode byte at Offset, zero when Offset is past the
	// code.
	Op    bytecode.OpCode
	Cause error
}

func (e *RuntimeError) Error() string {
	locParts := []string{}
	if e.Line >= 0 {
		locParts = append(locParts, fmt.Sprintf("line %d", e.Line))
	}
	if e.Offset >= 0 {
		locParts = append(locParts, fmt.Sprintf("offset %04d", e.Offset))
	}
	loc := strings.Join(locParts, " ")
	if loc != "" {
		return fmt.Sprintf("%s: %s", loc, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// fail reports a failure while executing in. The line is looked up here,
// never during normal dispatch.
func (vm *VM) fail(chunk *bytecode.Chunk, in bytecode.Instruction, msg string) (Value, error) {
	return Value{}, &RuntimeError{
		Message: msg,
		Offset:  in.Offset,
		Line:    chunk.Line(in.Offset),
		Op:      in.Op,
	}
}

func (vm *VM) failWith(chunk *bytecode.Chunk, in bytecode.Instruction, err error) (Value, error) {
	return Value{}, &RuntimeError{
		Message: err.Error(),
		Offset:  in.Offset,
		Line:    chunk.Line(in.Offset),
		Op:      in.Op,
		Cause:   err,
	}
}

// errorAtEnd reports running off the end of the code, attributed to the
// line of the last byte.
func (vm *VM) errorAtEnd(chunk *bytecode.Chunk, msg string) (Value, error) {
	end := len(chunk.Code)
	return Value{}, &RuntimeError{
		Message: msg,
		Offset:  end,
		Line:    chunk.Line(end - 1),
	}
}

// wrapError turns a decode failure into a RuntimeError at offset.
func (vm *VM) wrapError(chunk *bytecode.Chunk, offset int, err error) (Value, error) {
	return Value{}, &RuntimeError{
		Message: err.Error(),
		Offset:  offset,
		Line:    chunk.Line(offset),
		Op:      opAt(chunk, offset),
		Cause:   err,
	}
}

func opAt(chunk *bytecode.Chunk, offset int) bytecode.OpCode {
	if offset < 0 || offset >= len(chunk.Code) {
		return 0
	}
	return bytecode.OpCode(chunk.Code[offset])
}

func (vm *VM) trace(chunk *bytecode.Chunk, in bytecode.Instruction) {
	if vm.traceHook == nil {
		return
	}
	vm.traceHook(TraceInfo{
		Offset: in.Offset,
		Line:   chunk.Line(in.Offset),
		Op:     in.Op,
		Stack:  append([]Value(nil), vm.stack...),
	})
}

// NewStackTracer returns a hook that prints the stack followed by the
// instruction about to run:
//
//	          [ 1.0 ][ 2.0 ]
//	0004    1 Add
func NewStackTracer(w io.Writer) TraceHook {
	return func(info TraceInfo) {
		var sb strings.Builder
		sb.WriteString("          ")
		for _, v := range info.Stack {
			fmt.Fprintf(&sb, "[ %s ]", v)
		}
		sb.WriteByte('\n')
		fmt.Fprintf(&sb, "%04d %4d %s\n", info.Offset, info.Line, info.Op)
		io.WriteString(w, sb.String())
	}
}
