package data

import (
	"fmt"

	"github.com/emberfall/server/internal/stat"
	"github.com/emberfall/server/internal/unit"
)

// PassiveTable is the passive tree shared by every class.
type PassiveTable struct {
	nodes map[unit.PassiveNodeID]*unit.PassiveNode
}

func (t *PassiveTable) Get(id unit.PassiveNodeID) *unit.PassiveNode {
	return t.nodes[id]
}

func (t *PassiveTable) Count() int {
	return len(t.nodes)
}

type passiveEntry struct {
	ID        unit.PassiveNodeID   `yaml:"id"`
	Requires  []unit.PassiveNodeID `yaml:"requires"`
	Modifiers []modifierEntry      `yaml:"modifiers"`
}

type passiveListFile struct {
	Passives []passiveEntry `yaml:"passives"`
}

const passiveModifierFlag stat.ModifierID = 1 << 31

func loadPassiveTable(src source, stats *StatTable) (*PassiveTable, error) {
	var f passiveListFile
	if err := src.decode("passives.yaml", &f); err != nil {
		return nil, err
	}
	t := &PassiveTable{nodes: make(map[unit.PassiveNodeID]*unit.PassiveNode, len(f.Passives))}
	for _, e := range f.Passives {
		if _, dup := t.nodes[e.ID]; dup {
			return nil, fmt.Errorf("passives: duplicate id %d", e.ID)
		}
		owner := fmt.Sprintf("node %d", e.ID)
		base := passiveModifierFlag | stat.ModifierID(e.ID)<<8
		mods, err := stats.modifiers("passives", owner, base, stat.ModGlobal, e.Modifiers)
		if err != nil {
			return nil, err
		}
		t.nodes[e.ID] = &unit.PassiveNode{ID: e.ID, Requires: e.Requires, Modifiers: mods}
	}
	for _, n := range t.nodes {
		for _, req := range n.Requires {
			if t.nodes[req] == nil {
				return nil, missing("passives", "node %d requires node %d", n.ID, req)
			}
		}
	}
	return t, nil
}
