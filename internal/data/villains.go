package data

import (
	"fmt"

	"github.com/emberfall/server/internal/stat"
	"github.com/emberfall/server/internal/unit"
)

type VillainID uint32

// Drop is one entry of a villain's loot table. Chance is in percent.
type Drop struct {
	Item   unit.ItemID `yaml:"item"`
	Chance float64     `yaml:"chance"`
}

// VillainInfo is a villain template. Spawned villains carry the template name
// as their class so rewards can be looked up on death.
type VillainInfo struct {
	ID     VillainID
	Name   string
	Level  uint32
	XP     uint64
	Stats  map[stat.StatID]stat.Value
	Base   []stat.Modifier
	Skills SkillSlots
	Drops  []Drop
}

func (v *VillainInfo) NewVillain(uid unit.Uid) *unit.Unit {
	u := unit.New(uid, v.Name, unit.Villain, v.Name, v.Level, v.Stats)
	applyBase(u, v.Base)
	v.Skills.apply(u)
	return u
}

type VillainTable struct {
	byID   map[VillainID]*VillainInfo
	byName map[string]*VillainInfo
}

func (t *VillainTable) Get(id VillainID) *VillainInfo {
	return t.byID[id]
}

func (t *VillainTable) ByName(name string) *VillainInfo {
	return t.byName[name]
}

func (t *VillainTable) Count() int {
	return len(t.byID)
}

// --- YAML loading ---

type villainEntry struct {
	ID     VillainID          `yaml:"id"`
	Name   string             `yaml:"name"`
	Level  uint32             `yaml:"level"`
	XP     uint64             `yaml:"xp"`
	Stats  map[string]float64 `yaml:"stats"`
	Skills SkillSlots         `yaml:"skills"`
	Drops  []Drop             `yaml:"drops"`
}

type villainListFile struct {
	Villains []villainEntry `yaml:"villains"`
}

func loadVillainTable(src source, stats *StatTable, skills *SkillTable, items *ItemTable) (*VillainTable, error) {
	var f villainListFile
	if err := src.decode("villains.yaml", &f); err != nil {
		return nil, err
	}
	t := &VillainTable{
		byID:   make(map[VillainID]*VillainInfo, len(f.Villains)),
		byName: make(map[string]*VillainInfo, len(f.Villains)),
	}
	for _, e := range f.Villains {
		if _, dup := t.byID[e.ID]; dup {
			return nil, fmt.Errorf("villains: duplicate id %d", e.ID)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, fmt.Errorf("villains: duplicate name %q", e.Name)
		}
		values, err := stats.Values("villains", e.Name, e.Stats)
		if err != nil {
			return nil, err
		}
		if err := e.Skills.check("villains", e.Name, skills); err != nil {
			return nil, err
		}
		for _, d := range e.Drops {
			if items.Get(d.Item) == nil {
				return nil, missing("villains", "%s drops item %d", e.Name, d.Item)
			}
		}
		info := &VillainInfo{
			ID:     e.ID,
			Name:   e.Name,
			Level:  max(e.Level, 1),
			XP:     e.XP,
			Stats:  values,
			Base:   baseResistances(values),
			Skills: e.Skills,
			Drops:  e.Drops,
		}
		t.byID[e.ID] = info
		t.byName[e.Name] = info
	}
	return t, nil
}
