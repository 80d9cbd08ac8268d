package vm

import "github.com/xirelogy/go-lox/internal/bytecode"

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNumber Kind = iota
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Value is a stack slot. Only numbers exist today; new kinds add a tag
// and a payload field.
type Value struct {
	Kind Kind
	Num  float64
}

func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// AsNumber returns the payload of a number value.
func (v Value) AsNumber() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return bytecode.FormatValue(v.Num)
	default:
		return "<" + v.Kind.String() + ">"
	}
}

// Equal compares values by kind and payload. NaN is not equal to itself.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNumber:
		return a.Num == b.Num
	default:
		return false
	}
}
