package data

import (
	"fmt"

	"github.com/emberfall/server/internal/stat"
	"github.com/emberfall/server/internal/unit"
)

// SkillSlots is the default skill loadout of a class or villain.
type SkillSlots struct {
	Primary   unit.SkillID `yaml:"primary"`
	Secondary unit.SkillID `yaml:"secondary"`
}

func (s SkillSlots) apply(u *unit.Unit) {
	u.SetSkill(unit.SlotPrimary, s.Primary)
	u.SetSkill(unit.SlotSecondary, s.Secondary)
}

func (s SkillSlots) check(table, owner string, skills *SkillTable) error {
	for _, id := range []unit.SkillID{s.Primary, s.Secondary} {
		if id == 0 {
			continue
		}
		if _, ok := skills.Skill(id); !ok {
			return missing(table, "%s references skill %d", owner, id)
		}
	}
	return nil
}

// ClassInfo is a playable hero class.
type ClassInfo struct {
	Name          string
	Stats         map[stat.StatID]stat.Value
	Base          []stat.Modifier
	Skills        SkillSlots
	PassivePoints uint32
}

// NewHero builds a level 1 hero of this class.
func (c *ClassInfo) NewHero(uid unit.Uid, name string) *unit.Unit {
	u := unit.New(uid, name, unit.Hero, c.Name, 1, c.Stats)
	applyBase(u, c.Base)
	c.Skills.apply(u)
	return u
}

type ClassTable struct {
	classes map[string]*ClassInfo
	order   []string
}

func (t *ClassTable) Get(name string) *ClassInfo {
	return t.classes[name]
}

// Names returns class names in file order.
func (t *ClassTable) Names() []string {
	return t.order
}

func (t *ClassTable) Count() int {
	return len(t.classes)
}

// --- YAML loading ---

type classEntry struct {
	Name          string             `yaml:"name"`
	Stats         map[string]float64 `yaml:"stats"`
	Skills        SkillSlots         `yaml:"skills"`
	PassivePoints uint32             `yaml:"passive_points"`
}

type classListFile struct {
	Classes []classEntry `yaml:"classes"`
}

func loadClassTable(src source, stats *StatTable, skills *SkillTable) (*ClassTable, error) {
	var f classListFile
	if err := src.decode("classes.yaml", &f); err != nil {
		return nil, err
	}
	t := &ClassTable{classes: make(map[string]*ClassInfo, len(f.Classes))}
	for _, e := range f.Classes {
		if _, dup := t.classes[e.Name]; dup {
			return nil, fmt.Errorf("classes: duplicate class %q", e.Name)
		}
		values, err := stats.Values("classes", e.Name, e.Stats)
		if err != nil {
			return nil, err
		}
		if err := e.Skills.check("classes", e.Name, skills); err != nil {
			return nil, err
		}
		t.classes[e.Name] = &ClassInfo{
			Name:          e.Name,
			Stats:         values,
			Base:          baseResistances(values),
			Skills:        e.Skills,
			PassivePoints: e.PassivePoints,
		}
		t.order = append(t.order, e.Name)
	}
	if len(t.order) == 0 {
		return nil, missing("classes", "at least one class")
	}
	return t, nil
}
