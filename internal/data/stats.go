package data

import (
	"fmt"

	"github.com/emberfall/server/internal/stat"
	"github.com/emberfall/server/internal/unit"
)

// StatInfo is one row of stats.yaml.
type StatInfo struct {
	ID   stat.StatID
	Name string
	Kind stat.Kind
}

// StatTable holds stat definitions indexed by id and by name.
type StatTable struct {
	byID   map[stat.StatID]*StatInfo
	byName map[string]*StatInfo
}

func (t *StatTable) Get(id stat.StatID) *StatInfo {
	return t.byID[id]
}

func (t *StatTable) ByName(name string) *StatInfo {
	return t.byName[name]
}

func (t *StatTable) Count() int {
	return len(t.byID)
}

// Values converts a name → number map into typed values, filling every stat
// the table defines. Unlisted stats start at zero.
func (t *StatTable) Values(table, owner string, raw map[string]float64) (map[stat.StatID]stat.Value, error) {
	out := make(map[stat.StatID]stat.Value, len(t.byID))
	for id, info := range t.byID {
		out[id] = stat.Zero(info.Kind)
	}
	for name, v := range raw {
		info := t.byName[name]
		if info == nil {
			return nil, missing(table, "%s references stat %q", owner, name)
		}
		out[info.ID] = stat.FromFloat(info.Kind, v)
	}
	return out, nil
}

// baseModifierFlag marks modifiers built from template base values.
const baseModifierFlag stat.ModifierID = 3 << 30

// baseResistances moves authored resistance values out of values and into
// percent Base modifiers, the only form mitigation reads.
func baseResistances(values map[stat.StatID]stat.Value) []stat.Modifier {
	var out []stat.Modifier
	for _, id := range unit.Resistances {
		v, ok := values[id]
		if !ok || v.IsZero() {
			continue
		}
		out = append(out, stat.Modifier{
			ID:     baseModifierFlag | stat.ModifierID(id),
			Stat:   id,
			Value:  v,
			Op:     stat.OpMul,
			Format: stat.FormatPercent,
			Kind:   stat.ModBase,
		})
		values[id] = stat.Zero(v.Kind())
	}
	return out
}

// applyBase registers template modifiers on a freshly built unit. The stat
// table guarantees every stat exists, so errors cannot occur.
func applyBase(u *unit.Unit, mods []stat.Modifier) {
	for _, m := range mods {
		_ = u.AddModifier(m)
	}
	u.Dirty = false
}

// --- YAML loading ---

type statEntry struct {
	ID   stat.StatID `yaml:"id"`
	Name string      `yaml:"name"`
	Kind string      `yaml:"kind"`
}

type statListFile struct {
	Stats []statEntry `yaml:"stats"`
}

func loadStatTable(src source) (*StatTable, error) {
	var f statListFile
	if err := src.decode("stats.yaml", &f); err != nil {
		return nil, err
	}
	t := &StatTable{
		byID:   make(map[stat.StatID]*StatInfo, len(f.Stats)),
		byName: make(map[string]*StatInfo, len(f.Stats)),
	}
	for _, e := range f.Stats {
		kind, err := stat.ParseKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("stats: stat %q: %w", e.Name, err)
		}
		if _, dup := t.byID[e.ID]; dup {
			return nil, fmt.Errorf("stats: duplicate id %d", e.ID)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, fmt.Errorf("stats: duplicate name %q", e.Name)
		}
		info := &StatInfo{ID: e.ID, Name: e.Name, Kind: kind}
		t.byID[e.ID] = info
		t.byName[e.Name] = info
	}
	for _, id := range unit.RequiredStats {
		if t.byID[id] == nil {
			return nil, missing("stats", "required stat id %d", id)
		}
	}
	return t, nil
}

// --- modifiers shared by items and passives ---

type modifierEntry struct {
	Stat    string  `yaml:"stat"`
	Op      string  `yaml:"op"`
	Value   float64 `yaml:"value"`
	Percent bool    `yaml:"percent"`
}

// modifiers builds typed modifiers. IDs are base+index so the set an item or
// passive node applies can be removed again as a unit.
func (t *StatTable) modifiers(table, owner string, base stat.ModifierID, kind stat.ModifierKind, in []modifierEntry) ([]stat.Modifier, error) {
	out := make([]stat.Modifier, 0, len(in))
	for i, e := range in {
		info := t.byName[e.Stat]
		if info == nil {
			return nil, missing(table, "%s modifier references stat %q", owner, e.Stat)
		}
		op, err := stat.ParseOperation(e.Op)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", table, owner, err)
		}
		m := stat.Modifier{
			ID:    base + stat.ModifierID(i),
			Stat:  info.ID,
			Value: stat.FromFloat(info.Kind, e.Value),
			Op:    op,
			Kind:  kind,
		}
		if e.Percent {
			m.Format = stat.FormatPercent
		}
		out = append(out, m)
	}
	return out, nil
}
