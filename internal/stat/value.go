package stat

import (
	"encoding/json"
	"fmt"
	"math"
)

// Kind tags the numeric representation carried by a Value.
type Kind uint8

const (
	KindU32 Kind = iota
	KindU64
	KindF32
	KindF64
)

func (k Kind) String() string {
	switch k {
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsFloat reports whether values of this kind carry a fractional part.
func (k Kind) IsFloat() bool { return k == KindF32 || k == KindF64 }

// ParseKind maps the metadata spelling of a kind ("u32", "f32", ...) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "u32":
		return KindU32, nil
	case "u64":
		return KindU64, nil
	case "f32":
		return KindF32, nil
	case "f64":
		return KindF64, nil
	}
	return 0, fmt.Errorf("unknown value kind %q", s)
}

// Value is a tagged union over u32, u64, f32 and f64.
// Integer kinds live in n, float kinds in f. F32 results are rounded to
// float32 after every operation so a Value never holds more precision than its kind.
type Value struct {
	kind Kind
	n    uint64
	f    float64
}

func U32(v uint32) Value  { return Value{kind: KindU32, n: uint64(v)} }
func U64(v uint64) Value  { return Value{kind: KindU64, n: v} }
func F32(v float32) Value { return Value{kind: KindF32, f: float64(v)} }
func F64(v float64) Value { return Value{kind: KindF64, f: v} }

// Zero returns the additive identity for kind.
func Zero(kind Kind) Value { return Value{kind: kind} }

// FromFloat converts f into a Value of the given kind. Integer kinds
// truncate toward zero and clamp negatives to zero.
func FromFloat(kind Kind, f float64) Value {
	switch kind {
	case KindU32:
		if f <= 0 {
			return U32(0)
		}
		if f >= math.MaxUint32 {
			return U32(math.MaxUint32)
		}
		return U32(uint32(f))
	case KindU64:
		if f <= 0 {
			return U64(0)
		}
		if f >= math.MaxUint64 {
			return U64(math.MaxUint64)
		}
		return U64(uint64(f))
	case KindF32:
		return F32(float32(f))
	default:
		return F64(f)
	}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) U32() uint32  { return uint32(v.n) }
func (v Value) U64() uint64  { return v.n }
func (v Value) F32() float32 { return float32(v.f) }
func (v Value) F64() float64 { return v.f }
func (v Value) IsZero() bool { return v.n == 0 && v.f == 0 }

// Float64 widens any kind to float64.
func (v Value) Float64() float64 {
	if v.kind.IsFloat() {
		return v.f
	}
	return float64(v.n)
}

func (v Value) mustMatch(o Value, op string) {
	if v.kind != o.kind {
		panic(fmt.Sprintf("stat: %s on mismatched kinds %s and %s", op, v.kind, o.kind))
	}
}

func (v Value) round() Value {
	if v.kind == KindF32 {
		v.f = float64(float32(v.f))
	}
	return v
}

// Add panics when the operand kinds differ.
func (v Value) Add(o Value) Value {
	v.mustMatch(o, "add")
	switch v.kind {
	case KindU32:
		return U32(uint32(v.n) + uint32(o.n))
	case KindU64:
		return U64(v.n + o.n)
	default:
		v.f += o.f
		return v.round()
	}
}

// Sub saturates at zero for unsigned kinds.
func (v Value) Sub(o Value) Value {
	v.mustMatch(o, "sub")
	switch v.kind {
	case KindU32, KindU64:
		if o.n >= v.n {
			return Zero(v.kind)
		}
		v.n -= o.n
		return v
	default:
		v.f -= o.f
		return v.round()
	}
}

func (v Value) Mul(o Value) Value {
	v.mustMatch(o, "mul")
	switch v.kind {
	case KindU32:
		return U32(uint32(v.n) * uint32(o.n))
	case KindU64:
		return U64(v.n * o.n)
	default:
		v.f *= o.f
		return v.round()
	}
}

// Div panics on integer division by zero.
func (v Value) Div(o Value) Value {
	v.mustMatch(o, "div")
	switch v.kind {
	case KindU32, KindU64:
		if o.n == 0 {
			panic("stat: integer division by zero")
		}
		v.n /= o.n
		return v
	default:
		v.f /= o.f
		return v.round()
	}
}

// Less orders two values of the same kind.
func (v Value) Less(o Value) bool {
	v.mustMatch(o, "compare")
	if v.kind.IsFloat() {
		return v.f < o.f
	}
	return v.n < o.n
}

func (v Value) String() string {
	switch v.kind {
	case KindU32, KindU64:
		return fmt.Sprintf("%d", v.n)
	case KindF32:
		return fmt.Sprintf("%g", float32(v.f))
	default:
		return fmt.Sprintf("%g", v.f)
	}
}

type valueJSON struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	var raw []byte
	var err error
	switch v.kind {
	case KindU32, KindU64:
		raw, err = json.Marshal(v.n)
	case KindF32:
		raw, err = json.Marshal(float32(v.f))
	default:
		raw, err = json.Marshal(v.f)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Kind: v.kind.String(), Value: raw})
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw valueJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	kind, err := ParseKind(raw.Kind)
	if err != nil {
		return err
	}
	switch kind {
	case KindU32, KindU64:
		var n uint64
		if err := json.Unmarshal(raw.Value, &n); err != nil {
			return fmt.Errorf("decode %s value: %w", kind, err)
		}
		if kind == KindU32 && n > math.MaxUint32 {
			return fmt.Errorf("u32 value %d out of range", n)
		}
		*v = Value{kind: kind, n: n}
	case KindF32:
		var f float32
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			return fmt.Errorf("decode f32 value: %w", err)
		}
		*v = F32(f)
	default:
		var f float64
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			return fmt.Errorf("decode f64 value: %w", err)
		}
		*v = F64(f)
	}
	return nil
}
