package stat

import (
	"fmt"
	"strconv"
)

// StatID identifies a stat. Ordering is numeric.
type StatID uint16

// Stat pairs a stat identifier with its current value.
type Stat struct {
	ID    StatID `json:"id"`
	Value Value  `json:"value"`
}

// ModifierID identifies a modifier within the stat lists it was inserted into.
type ModifierID uint32

// Operation selects which of the four modifier sequences a modifier joins.
type Operation uint8

const (
	OpAdd Operation = iota
	OpSub
	OpMul
	OpDiv
)

func (o Operation) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	default:
		return fmt.Sprintf("Operation(%d)", uint8(o))
	}
}

// ParseOperation maps metadata spellings to an Operation.
func ParseOperation(s string) (Operation, error) {
	switch s {
	case "add":
		return OpAdd, nil
	case "sub":
		return OpSub, nil
	case "mul":
		return OpMul, nil
	case "div":
		return OpDiv, nil
	}
	return 0, fmt.Errorf("unknown modifier operation %q", s)
}

// Format is display-only: it never changes how a modifier aggregates.
type Format uint8

const (
	FormatFlat Format = iota
	FormatPercent
)

// ModifierKind records where a modifier came from.
type ModifierKind uint8

const (
	ModNormal ModifierKind = iota
	ModBase
	ModGlobal
)

// Modifier is immutable once created; copies are inserted into stat lists.
// Mul/Div values are percentage points (10 means 10%).
type Modifier struct {
	ID     ModifierID   `json:"id"`
	Stat   StatID       `json:"stat"`
	Value  Value        `json:"value"`
	Op     Operation    `json:"op"`
	Format Format       `json:"format"`
	Kind   ModifierKind `json:"kind"`
}

// FormatModifier renders m for display, e.g. "+12", "-3.5", "+10.0%".
func FormatModifier(m Modifier) string {
	sign := "+"
	if m.Op == OpSub || m.Op == OpDiv {
		sign = "-"
	}
	if m.Format == FormatPercent {
		return sign + strconv.FormatFloat(m.Value.Float64(), 'f', 1, 64) + "%"
	}
	switch m.Value.Kind() {
	case KindF32:
		return sign + strconv.FormatFloat(m.Value.Float64(), 'f', -1, 32)
	case KindF64:
		return sign + strconv.FormatFloat(m.Value.Float64(), 'f', -1, 64)
	default:
		return sign + strconv.FormatUint(m.Value.U64(), 10)
	}
}
