package unit

import (
	"errors"
	"fmt"
	"slices"

	"github.com/emberfall/server/internal/stat"
)

type PassiveNodeID uint32

// PassiveNode is one node of the class passive tree, as loaded from metadata.
type PassiveNode struct {
	ID        PassiveNodeID
	Requires  []PassiveNodeID
	Modifiers []stat.Modifier
}

// PassiveSkillGraph is the per-hero allocation state of the passive tree.
type PassiveSkillGraph struct {
	Points    uint32          `json:"points"`
	Allocated []PassiveNodeID `json:"allocated,omitempty"`
}

var (
	ErrNoPassivePoints    = errors.New("no passive points left")
	ErrPassiveAllocated   = errors.New("passive node already allocated")
	ErrPassiveUnreachable = errors.New("passive node not connected to allocated nodes")
)

func (g *PassiveSkillGraph) Has(id PassiveNodeID) bool {
	return slices.Contains(g.Allocated, id)
}

// AllocatePassive spends a point on node and applies its modifiers to u.
// A node with requirements needs at least one of them allocated.
func (u *Unit) AllocatePassive(g *PassiveSkillGraph, node PassiveNode) error {
	if g.Points == 0 {
		return ErrNoPassivePoints
	}
	if g.Has(node.ID) {
		return ErrPassiveAllocated
	}
	if len(node.Requires) > 0 && !slices.ContainsFunc(node.Requires, g.Has) {
		return ErrPassiveUnreachable
	}
	for i, m := range node.Modifiers {
		if err := u.AddModifier(m); err != nil {
			for _, done := range node.Modifiers[:i] {
				u.RemoveModifier(done.Stat, done.ID)
			}
			return fmt.Errorf("allocate passive %d: %w", node.ID, err)
		}
	}
	g.Points--
	g.Allocated = append(g.Allocated, node.ID)
	return nil
}
