package bytecode

import (
	"errors"
	"fmt"
)

// Value is a constant pool entry.
type Value = float64

const (
	// MaxShortConstant is the first pool index that needs OP_CONSTANT_LONG.
	MaxShortConstant = 255
	// MaxConstants is the pool size addressable by a 24-bit operand.
	MaxConstants = 1 << 24
)

// ErrTruncated is returned when an instruction is missing operand bytes.
var ErrTruncated = errors.New("unexpected end of bytecode")

// Chunk is a compiled bytecode sequence with its constant pool and line
// index. Code always holds whole instructions.
type Chunk struct {
	Code      []byte
	Constants []Value
	Lines     LineIndex
}

// NewChunk returns an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 64),
		Constants: make([]Value, 0, 16),
	}
}

// Instruction is one decoded instruction.
type Instruction struct {
	Offset int
	Op     OpCode
	// Width counts the opcode byte and its operands.
	Width int
	// Index and Value are set for constant loads only.
	Index int
	Value Value
}

// Next is the offset of the following instruction.
func (in Instruction) Next() int {
	return in.Offset + in.Width
}

// IsConstant reports whether the instruction loads a constant.
func (in Instruction) IsConstant() bool {
	return in.Op == OP_CONSTANT || in.Op == OP_CONSTANT_LONG
}

// WriteOp appends an opcode attributed to line.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.write(byte(op), line)
}

// WriteConstant adds v to the pool and emits the load for it, using the
// long form once the index no longer fits in one byte. It returns the
// pool index. Entries are not deduplicated.
//
// The pool holds at most MaxConstants entries; WriteConstant panics past
// that, so builders must check the pool size first.
func (c *Chunk) WriteConstant(v Value, line int) int {
	if len(c.Constants) >= MaxConstants {
		panic(fmt.Sprintf("constant pool full: %d entries", len(c.Constants)))
	}
	idx := c.AddConstant(v)
	if idx < MaxShortConstant {
		c.WriteOp(OP_CONSTANT, line)
		c.write(byte(idx), line)
		return idx
	}
	c.WriteOp(OP_CONSTANT_LONG, line)
	c.write(byte(idx>>16), line)
	c.write(byte(idx>>8), line)
	c.write(byte(idx), line)
	return idx
}

// AddConstant appends v to the pool and returns its index.
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Line returns the source line of the byte at offset.
func (c *Chunk) Line(offset int) int {
	return c.Lines.Get(offset)
}

// Len returns the number of code bytes.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// Decode reads the instruction starting at offset. The offset must be an
// instruction boundary, i.e. 0 or the Next of a previous instruction.
// Decode does not consult the line index; callers that need the source
// line ask Line for it.
func (c *Chunk) Decode(offset int) (Instruction, error) {
	if offset < 0 || offset >= len(c.Code) {
		return Instruction{}, fmt.Errorf("offset %d: %w", offset, ErrTruncated)
	}
	op, err := DecodeOpCode(c.Code[offset])
	if err != nil {
		return Instruction{}, fmt.Errorf("offset %d: %w", offset, err)
	}
	in := Instruction{
		Offset: offset,
		Op:     op,
		Width:  1 + op.OperandWidth(),
	}
	if offset+in.Width > len(c.Code) {
		return Instruction{}, fmt.Errorf("offset %d: %s: %w", offset, op, ErrTruncated)
	}
	switch op {
	case OP_CONSTANT:
		in.Index = int(c.Code[offset+1])
	case OP_CONSTANT_LONG:
		in.Index = ReadU24(c.Code, offset+1)
	default:
		return in, nil
	}
	if in.Index >= len(c.Constants) {
		return Instruction{}, fmt.Errorf("offset %d: const index out of range: %d", offset, in.Index)
	}
	in.Value = c.Constants[in.Index]
	return in, nil
}

// Reset empties the chunk for reuse.
func (c *Chunk) Reset() {
	c.Code = c.Code[:0]
	c.Constants = c.Constants[:0]
	c.Lines.Reset()
}

// ReadU24 decodes a big-endian 24-bit operand at code[at:at+3].
func ReadU24(code []byte, at int) int {
	return int(code[at])<<16 | int(code[at+1])<<8 | int(code[at+2])
}

func (c *Chunk) write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines.Put(line)
}
