package bytecode

import (
	"errors"
	"fmt"
)

// OpCode enumerates bytecode operations.
type OpCode byte

const (
	OP_CONSTANT OpCode = iota
	OP_NEGATE
	OP_MULTIPLY
	OP_DIVIDE
	OP_ADD
	OP_SUBTRACT
	OP_CONSTANT_LONG
	OP_RETURN
)

// ErrUnknownOpCode is returned when a byte does not name an instruction.
var ErrUnknownOpCode = errors.New("unknown opcode")

// DecodeOpCode converts a raw code byte to an OpCode.
func DecodeOpCode(b byte) (OpCode, error) {
	op := OpCode(b)
	if op > OP_RETURN {
		return 0, fmt.Errorf("%w 0x%02X", ErrUnknownOpCode, b)
	}
	return op, nil
}

// OperandWidth is the number of operand bytes following the opcode.
func (op OpCode) OperandWidth() int {
	switch op {
	case OP_CONSTANT:
		return 1
	case OP_CONSTANT_LONG:
		return 3
	default:
		return 0
	}
}

// String is the mnemonic used in listings and traces.
func (op OpCode) String() string {
	switch op {
	case OP_CONSTANT:
		return "Constant"
	case OP_NEGATE:
		return "Negate"
	case OP_MULTIPLY:
		return "Multiply"
	case OP_DIVIDE:
		return "Divide"
	case OP_ADD:
		return "Add"
	case OP_SUBTRACT:
		return "Subtract"
	case OP_CONSTANT_LONG:
		return "ConstantLong"
	case OP_RETURN:
		return "Return"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", byte(op))
	}
}
