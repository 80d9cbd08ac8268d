package vm_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/xirelogy/go-lox/internal/bytecode"
	"github.com/xirelogy/go-lox/internal/compiler"
	"github.com/xirelogy/go-lox/internal/vm"
)

func compileChunk(t *testing.T, src string) *bytecode.Chunk {
	t.Helper()
	chunk, err := compiler.Compile(src)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return chunk
}

// step is one instruction of a hand-assembled chunk: a constant load when
// op is OP_CONSTANT, otherwise a bare opcode.
type step struct {
	op    bytecode.OpCode
	value float64
}

func konst(v float64) step { return step{op: bytecode.OP_CONSTANT, value: v} }

func op(o bytecode.OpCode) step { return step{op: o} }

func assemble(steps ...step) *bytecode.Chunk {
	c := bytecode.NewChunk()
	for _, s := range steps {
		if s.op == bytecode.OP_CONSTANT {
			c.WriteConstant(s.value, 1)
			continue
		}
		c.WriteOp(s.op, 1)
	}
	c.WriteOp(bytecode.OP_RETURN, 1)
	return c
}

func runSteps(t *testing.T, steps ...step) vm.Value {
	t.Helper()
	v, err := vm.New().Run(assemble(steps...))
	if err != nil {
		t.Fatalf("vm run error: %v", err)
	}
	return v
}

func expectRuntimeError(t *testing.T, chunk *bytecode.Chunk) *vm.RuntimeError {
	t.Helper()
	_, err := vm.New().Run(chunk)
	if err == nil {
		t.Fatalf("expected runtime error")
	}
	var rerr *vm.RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	return rerr
}

func TestVMSubtract(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteConstant(10, 1)
	c.WriteConstant(4, 1)
	c.WriteOp(bytecode.OP_SUBTRACT, 1)
	c.WriteOp(bytecode.OP_RETURN, 1)
	v, result := vm.New().Interpret(c)
	if result != vm.InterpretOK {
		t.Fatalf("expected Ok, got %s", result)
	}
	if v.Kind != vm.KindNumber || v.Num != 6 {
		t.Fatalf("expected 6, got %#v", v)
	}
}

func TestVMArithmetic(t *testing.T) {
	add, sub, mul, div, neg := op(bytecode.OP_ADD), op(bytecode.OP_SUBTRACT), op(bytecode.OP_MULTIPLY), op(bytecode.OP_DIVIDE), op(bytecode.OP_NEGATE)
	cases := []struct {
		name  string
		steps []step
		want  float64
	}{
		{"constant", []step{konst(3)}, 3},
		{"1 + 2 * 3", []step{konst(1), konst(2), konst(3), mul, add}, 7},
		{"(1 + 2) * 3", []step{konst(1), konst(2), add, konst(3), mul}, 9},
		{"-4 / 2", []step{konst(4), neg, konst(2), div}, -2},
		{"--5", []step{konst(5), neg, neg}, 5},
		{"8 - 4 - 2", []step{konst(8), konst(4), sub, konst(2), sub}, 2},
		{"1 + 2 * 3 - -4 / (5 - 6)", []step{konst(1), konst(2), konst(3), mul, add, konst(4), neg, konst(5), konst(6), sub, div, sub}, 3},
	}
	for _, tc := range cases {
		if v := runSteps(t, tc.steps...); v.Num != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, v.Num)
		}
	}
}

func TestVMDivisionByZero(t *testing.T) {
	div, neg := op(bytecode.OP_DIVIDE), op(bytecode.OP_NEGATE)
	if v := runSteps(t, konst(1), konst(0), div); !math.IsInf(v.Num, 1) {
		t.Fatalf("expected +inf, got %v", v)
	}
	if v := runSteps(t, konst(1), neg, konst(0), div); !math.IsInf(v.Num, -1) {
		t.Fatalf("expected -inf, got %v", v)
	}
	if v := runSteps(t, konst(0), konst(0), div); !math.IsNaN(v.Num) {
		t.Fatalf("expected NaN, got %v", v)
	}
}

func TestVMCompiledNumber(t *testing.T) {
	v, err := vm.New().Run(compileChunk(t, "12.5"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.Num != 12.5 {
		t.Fatalf("expected 12.5, got %v", v)
	}
}

func TestVMLongConstants(t *testing.T) {
	c := bytecode.NewChunk()
	for i := 0; i < 300; i++ {
		c.WriteConstant(float64(i), 1)
	}
	for i := 0; i < 299; i++ {
		c.WriteOp(bytecode.OP_ADD, 1)
	}
	c.WriteOp(bytecode.OP_RETURN, 1)
	v, result := vm.New().Interpret(c)
	if result != vm.InterpretOK || v.Num != 299*300/2 {
		t.Fatalf("expected %d, got %v (%s)", 299*300/2, v, result)
	}
}

func TestVMMissingReturn(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteConstant(1, 3)
	rerr := expectRuntimeError(t, c)
	if rerr.Offset != 2 || rerr.Line != 3 {
		t.Fatalf("expected offset 2 line 3, got offset %d line %d", rerr.Offset, rerr.Line)
	}
	if _, result := vm.New().Interpret(c); result != vm.InterpretRuntimeError {
		t.Fatalf("expected RuntimeError, got %s", result)
	}
}

func TestVMEmptyChunk(t *testing.T) {
	if _, result := vm.New().Interpret(bytecode.NewChunk()); result != vm.InterpretRuntimeError {
		t.Fatalf("expected RuntimeError, got %s", result)
	}
}

func TestVMInvalidOpcode(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteConstant(1, 1)
	c.Code = append(c.Code, 0x99)
	c.Lines.Put(2)
	rerr := expectRuntimeError(t, c)
	if !errors.Is(rerr, bytecode.ErrUnknownOpCode) {
		t.Fatalf("expected ErrUnknownOpCode cause, got %v", rerr)
	}
	if rerr.Offset != 2 || rerr.Line != 2 || byte(rerr.Op) != 0x99 {
		t.Fatalf("unexpected position %+v", rerr)
	}
}

func TestVMTruncatedOperand(t *testing.T) {
	c := &bytecode.Chunk{Code: []byte{byte(bytecode.OP_CONSTANT_LONG), 0x00}, Constants: []float64{1}}
	c.Lines.Put(1)
	c.Lines.Put(1)
	rerr := expectRuntimeError(t, c)
	if !errors.Is(rerr, bytecode.ErrTruncated) {
		t.Fatalf("expected ErrTruncated cause, got %v", rerr)
	}
}

func TestVMStackUnderflow(t *testing.T) {
	for _, op := range []bytecode.OpCode{bytecode.OP_NEGATE, bytecode.OP_ADD, bytecode.OP_RETURN} {
		c := bytecode.NewChunk()
		c.WriteOp(op, 1)
		c.WriteOp(bytecode.OP_RETURN, 1)
		rerr := expectRuntimeError(t, c)
		if rerr.Message != "stack underflow" || rerr.Op != op || rerr.Offset != 0 {
			t.Fatalf("%s: unexpected error %+v", op, rerr)
		}
	}
}

func TestVMStackOverflow(t *testing.T) {
	c := bytecode.NewChunk()
	for i := 0; i < 5; i++ {
		c.WriteConstant(1, 1)
	}
	c.WriteOp(bytecode.OP_RETURN, 1)
	_, err := vm.New(vm.WithMaxStack(4)).Run(c)
	if !errors.Is(err, vm.ErrStackOverflow) {
		t.Fatalf("expected stack overflow, got %v", err)
	}
}

func TestVMRunResetsStack(t *testing.T) {
	machine := vm.New()
	bad := bytecode.NewChunk()
	bad.WriteConstant(1, 1)
	bad.WriteConstant(2, 1)
	if _, err := machine.Run(bad); err == nil {
		t.Fatalf("expected missing return error")
	}
	good := compileChunk(t, "5")
	var depths []int
	machine.SetTraceHook(func(info vm.TraceInfo) {
		depths = append(depths, len(info.Stack))
	})
	if _, err := machine.Run(good); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(depths) != 2 || depths[0] != 0 || depths[1] != 1 {
		t.Fatalf("expected stack depths [0 1], got %v", depths)
	}
}

func TestVMTraceHook(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteConstant(1, 1)
	c.WriteConstant(2, 2)
	c.WriteOp(bytecode.OP_ADD, 2)
	c.WriteOp(bytecode.OP_RETURN, 2)

	var buf bytes.Buffer
	machine := vm.New(vm.WithTraceHook(vm.NewStackTracer(&buf)))
	v, err := machine.Run(c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.Num != 3 {
		t.Fatalf("expected 3, got %v", v)
	}
	expected := strings.Join([]string{
		"          ",
		"0000    1 Constant",
		"          [ 1.0 ]",
		"0002    2 Constant",
		"          [ 1.0 ][ 2.0 ]",
		"0004    2 Add",
		"          [ 3.0 ]",
		"0005    2 Return",
	}, "\n") + "\n"
	if buf.String() != expected {
		t.Fatalf("unexpected trace:\n%s\nexpected:\n%s", buf.String(), expected)
	}

	buf.Reset()
	machine.SetTraceHook(nil)
	if _, err := machine.Run(compileChunk(t, "1")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no trace output after removing the hook")
	}
}

// manyLines builds a chunk of one constant followed by n negations, each on
// its own line with a wide gap between lines, so every line index lookup
// walks a long slice.
func manyLines(n int) *bytecode.Chunk {
	c := bytecode.NewChunk()
	c.WriteConstant(1, 1)
	for i := 1; i <= n; i++ {
		c.WriteOp(bytecode.OP_NEGATE, 1+i*50)
	}
	return c
}

func TestVMDispatchSkipsLineLookups(t *testing.T) {
	const n = 20000
	c := manyLines(n)
	c.WriteOp(bytecode.OP_RETURN, 2+n*50)

	start := time.Now()
	v, err := vm.New().Run(c)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.Num != 1 {
		t.Fatalf("expected 1 after an even number of negations, got %v", v)
	}
	if elapsed > time.Second {
		t.Fatalf("run over %d lines took %s", n, elapsed)
	}
}

func TestVMErrorLineOnSparseIndex(t *testing.T) {
	const n = 1000
	rerr := expectRuntimeError(t, manyLines(n))
	if rerr.Offset != 2+n || rerr.Line != 1+n*50 {
		t.Fatalf("expected offset %d line %d, got offset %d line %d", 2+n, 1+n*50, rerr.Offset, rerr.Line)
	}
}

func TestRuntimeErrorString(t *testing.T) {
	err := &vm.RuntimeError{Message: "stack underflow", Offset: 4, Line: 2}
	if err.Error() != "line 2 offset 0004: stack underflow" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
	bare := &vm.RuntimeError{Message: "nil chunk", Offset: -1, Line: -1}
	if bare.Error() != "nil chunk" {
		t.Fatalf("unexpected error string %q", bare.Error())
	}
}

func TestInterpretResultString(t *testing.T) {
	if vm.InterpretOK.String() != "Ok" || vm.InterpretCompileError.String() != "CompileError" || vm.InterpretRuntimeError.String() != "RuntimeError" {
		t.Fatalf("unexpected result names")
	}
}

func TestValueString(t *testing.T) {
	if got := vm.Number(2).String(); got != "2.0" {
		t.Fatalf("expected 2.0, got %q", got)
	}
	if !vm.Equal(vm.Number(1), vm.Number(1)) || vm.Equal(vm.Number(math.NaN()), vm.Number(math.NaN())) {
		t.Fatalf("unexpected equality results")
	}
}
