package stat

import (
	"encoding/json"
	"fmt"
)

// ModifierList keeps one ordered sequence per operation.
type ModifierList struct {
	add []Modifier
	sub []Modifier
	mul []Modifier
	div []Modifier
}

func (l *ModifierList) seq(op Operation) *[]Modifier {
	switch op {
	case OpAdd:
		return &l.add
	case OpSub:
		return &l.sub
	case OpMul:
		return &l.mul
	case OpDiv:
		return &l.div
	}
	panic(fmt.Sprintf("stat: invalid operation %d", op))
}

func (l *ModifierList) insert(m Modifier) {
	s := l.seq(m.Op)
	*s = append(*s, m)
}

// remove deletes the first modifier with id, searching add, sub, mul, div in turn.
func (l *ModifierList) remove(id ModifierID) bool {
	for _, op := range [...]Operation{OpAdd, OpSub, OpMul, OpDiv} {
		s := l.seq(op)
		for i, m := range *s {
			if m.ID != id {
				continue
			}
			*s = append((*s)[:i], (*s)[i+1:]...)
			if len(*s) == 0 {
				*s = nil
			}
			return true
		}
	}
	return false
}

// Len returns the number of registered modifiers across all operations.
func (l *ModifierList) Len() int {
	return len(l.add) + len(l.sub) + len(l.mul) + len(l.div)
}

// All returns the modifiers in add, sub, mul, div order.
func (l *ModifierList) All() []Modifier {
	out := make([]Modifier, 0, l.Len())
	out = append(out, l.add...)
	out = append(out, l.sub...)
	out = append(out, l.mul...)
	return append(out, l.div...)
}

func sum(kind Kind, mods []Modifier) Value {
	total := Zero(kind)
	for _, m := range mods {
		total = total.Add(m.Value)
	}
	return total
}

// StatList aggregates the modifiers registered against a single stat.
//
// The cached sums are recomputed only by ComputeSum. Mutating the list marks it
// stale until the owner recomputes; Stale exposes that window.
type StatList struct {
	kind   Kind
	mods   ModifierList
	addSum Value
	mulSum Value
	stale  bool
}

func NewStatList(kind Kind) *StatList {
	return &StatList{kind: kind, addSum: Zero(kind), mulSum: Zero(kind)}
}

func (s *StatList) Kind() Kind { return s.kind }

// Add registers m. Modifiers must carry the list's value kind.
func (s *StatList) Add(m Modifier) error {
	if m.Value.Kind() != s.kind {
		return fmt.Errorf("modifier %d kind %s does not match stat kind %s", m.ID, m.Value.Kind(), s.kind)
	}
	s.mods.insert(m)
	s.stale = true
	return nil
}

// Remove unregisters the modifier with id and reports whether it was present.
func (s *StatList) Remove(id ModifierID) bool {
	if !s.mods.remove(id) {
		return false
	}
	s.stale = true
	return true
}

// ComputeSum recomputes add_sum = Σadd − Σsub and mul_sum = Σmul − Σdiv
// from scratch.
func (s *StatList) ComputeSum() {
	s.addSum = sum(s.kind, s.mods.add).Sub(sum(s.kind, s.mods.sub))
	s.mulSum = sum(s.kind, s.mods.mul).Sub(sum(s.kind, s.mods.div))
	s.stale = false
}

func (s *StatList) AddSum() Value         { return s.addSum }
func (s *StatList) MulSum() Value         { return s.mulSum }
func (s *StatList) Stale() bool           { return s.stale }
func (s *StatList) Modifiers() []Modifier { return s.mods.All() }

func (s *StatList) Has(id ModifierID) bool {
	for _, m := range s.mods.All() {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Apply returns (base + add_sum) scaled by (1 + mul_sum/100).
func (s *StatList) Apply(base Value) Value {
	flat := base.Add(s.addSum)
	scaled := flat.Float64() * (1 + s.mulSum.Float64()/100)
	return FromFloat(s.kind, scaled)
}

type statListJSON struct {
	Kind      string     `json:"kind"`
	Modifiers []Modifier `json:"modifiers,omitempty"`
}

func (s *StatList) MarshalJSON() ([]byte, error) {
	return json.Marshal(statListJSON{Kind: s.kind.String(), Modifiers: s.mods.All()})
}

// UnmarshalJSON rebuilds the list and recomputes its sums.
func (s *StatList) UnmarshalJSON(b []byte) error {
	var raw statListJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	kind, err := ParseKind(raw.Kind)
	if err != nil {
		return err
	}
	*s = *NewStatList(kind)
	for _, m := range raw.Modifiers {
		if err := s.Add(m); err != nil {
			return err
		}
	}
	s.ComputeSum()
	return nil
}
