package vm

import (
	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-lox/internal/bytecode"
)

var log = commonlog.GetLogger("lox.vm")

// InterpretResult is the coarse outcome of interpreting a program.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	// InterpretCompileError is reported by callers that compile before
	// running; the VM itself never produces it.
	InterpretCompileError
	InterpretRuntimeError
)

func (r InterpretResult) String() string {
	switch r {
	case InterpretOK:
		return "Ok"
	case InterpretCompileError:
		return "CompileError"
	case InterpretRuntimeError:
		return "RuntimeError"
	default:
		return "Unknown"
	}
}

// VM is a stack-based bytecode interpreter. It is not safe for concurrent
// use.
type VM struct {
	stack     []Value
	maxStack  int
	traceHook TraceHook
}

const defaultMaxStack = 1024

// Option configures a VM at construction.
type Option func(*VM)

// WithMaxStack caps the value stack depth.
func WithMaxStack(n int) Option {
	return func(vm *VM) {
		vm.SetMaxStack(n)
	}
}

// WithTraceHook installs h before the first run.
func WithTraceHook(h TraceHook) Option {
	return func(vm *VM) {
		vm.traceHook = h
	}
}

// New constructs an empty VM instance.
func New(opts ...Option) *VM {
	vm := &VM{
		stack:    make([]Value, 0, 256),
		maxStack: defaultMaxStack,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// SetTraceHook registers a callback invoked before every instruction. A
// nil hook disables tracing.
func (vm *VM) SetTraceHook(h TraceHook) {
	vm.traceHook = h
}

// SetMaxStack caps the value stack depth (0 restores the default).
func (vm *VM) SetMaxStack(n int) {
	if n <= 0 {
		n = defaultMaxStack
	}
	vm.maxStack = n
}

// ResetState clears the value stack.
func (vm *VM) ResetState() {
	vm.stack = vm.stack[:0]
}

// Interpret runs chunk and folds any failure into InterpretRuntimeError.
func (vm *VM) Interpret(chunk *bytecode.Chunk) (Value, InterpretResult) {
	val, err := vm.Run(chunk)
	if err != nil {
		log.Debugf("interpret: %s", err)
		return Value{}, InterpretRuntimeError
	}
	return val, InterpretOK
}

// Run executes chunk from offset 0 on a fresh stack and returns the value
// popped by OP_RETURN.
func (vm *VM) Run(chunk *bytecode.Chunk) (Value, error) {
	vm.ResetState()
	if chunk == nil {
		return Value{}, &RuntimeError{Message: "nil chunk", Offset: -1, Line: -1}
	}

	ip := 0
	for {
		if ip >= len(chunk.Code) {
			return vm.errorAtEnd(chunk, "reached end of code without Return")
		}
		in, err := chunk.Decode(ip)
		if err != nil {
			return vm.wrapError(chunk, ip, err)
		}
		vm.trace(chunk, in)

		switch in.Op {
		case bytecode.OP_CONSTANT, bytecode.OP_CONSTANT_LONG:
			if err := vm.push(Number(in.Value)); err != nil {
				return vm.failWith(chunk, in, err)
			}
		case bytecode.OP_NEGATE:
			if len(vm.stack) == 0 {
				return vm.fail(chunk, in, "stack underflow")
			}
			top := &vm.stack[len(vm.stack)-1]
			n, ok := top.AsNumber()
			if !ok {
				return vm.fail(chunk, in, "operand must be a number")
			}
			top.Num = -n
		case bytecode.OP_ADD, bytecode.OP_SUBTRACT, bytecode.OP_MULTIPLY, bytecode.OP_DIVIDE:
			if len(vm.stack) < 2 {
				return vm.fail(chunk, in, "stack underflow")
			}
			right := vm.pop()
			left := vm.pop()
			res, ok := binaryOp(in.Op, left, right)
			if !ok {
				return vm.fail(chunk, in, "operands must be numbers")
			}
			vm.stack = append(vm.stack, res)
		case bytecode.OP_RETURN:
			if len(vm.stack) == 0 {
				return vm.fail(chunk, in, "stack underflow")
			}
			return vm.pop(), nil
		default:
			return vm.fail(chunk, in, "unhandled opcode "+in.Op.String())
		}
		ip = in.Next()
	}
}

func binaryOp(op bytecode.OpCode, left, right Value) (Value, bool) {
	a, ok := left.AsNumber()
	if !ok {
		return Value{}, false
	}
	b, ok := right.AsNumber()
	if !ok {
		return Value{}, false
	}
	switch op {
	case bytecode.OP_ADD:
		return Number(a + b), true
	case bytecode.OP_SUBTRACT:
		return Number(a - b), true
	case bytecode.OP_MULTIPLY:
		return Number(a * b), true
	case bytecode.OP_DIVIDE:
		return Number(a / b), true
	default:
		return Value{}, false
	}
}

func (vm *VM) push(v Value) error {
	if len(vm.stack) >= vm.maxStack {
		return ErrStackOverflow
	}
	vm.stack = append(vm.stack, v)
	return nil
}

// pop assumes the caller checked the depth.
func (vm *VM) pop() Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}
