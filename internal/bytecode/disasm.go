package bytecode

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Disassembler formats bytecode as a readable assembly-style dump.
type Disassembler struct {
	w io.Writer
}

// NewDisassembler constructs a disassembler that writes to w.
func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{w: w}
}

// Disassemble writes a header naming the chunk followed by one line per
// instruction.
func (d *Disassembler) Disassemble(chunk *Chunk, description string) error {
	if chunk == nil {
		return fmt.Errorf("nil chunk")
	}
	if _, err := fmt.Fprintf(d.w, "== %s ==\n", description); err != nil {
		return err
	}
	for offset := 0; offset < len(chunk.Code); {
		next, err := d.Instruction(chunk, offset)
		if err != nil {
			return err
		}
		offset = next
	}
	return nil
}

// Instruction writes the instruction at offset and returns the offset of
// the one after it.
func (d *Disassembler) Instruction(chunk *Chunk, offset int) (int, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d ", offset)
	line := chunk.Line(offset)
	switch {
	case offset > 0 && line == chunk.Line(offset-1):
		sb.WriteString("   | ")
	case line < 0:
		sb.WriteString("   - ")
	default:
		fmt.Fprintf(&sb, "%4d ", line)
	}

	in, err := chunk.Decode(offset)
	if errors.Is(err, ErrUnknownOpCode) {
		fmt.Fprintf(&sb, "%s\n", OpCode(chunk.Code[offset]))
		_, err = io.WriteString(d.w, sb.String())
		return offset + 1, err
	}
	if err != nil {
		return 0, err
	}

	switch in.Op {
	case OP_CONSTANT:
		fmt.Fprintf(&sb, "%-16s %4d '%s'\n", in.Op, in.Index, FormatValue(in.Value))
	case OP_CONSTANT_LONG:
		fmt.Fprintf(&sb, "%-16s %12d '%s'\n", in.Op, in.Index, FormatValue(in.Value))
	default:
		fmt.Fprintf(&sb, "%s\n", in.Op)
	}
	if _, err := io.WriteString(d.w, sb.String()); err != nil {
		return 0, err
	}
	return in.Next(), nil
}

// FormatValue renders a number in its shortest round-trip form, always
// with a fractional part or an exponent: 3.0, 0.25, 1e16, 1e-5, NaN, inf.
func FormatValue(v Value) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
		sign := ""
		if strings.HasPrefix(exp, "-") {
			sign = "-"
		}
		exp = strings.TrimLeft(strings.TrimLeft(exp, "+-"), "0")
		return mant + "e" + sign + exp
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
