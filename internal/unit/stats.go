package unit

import "github.com/emberfall/server/internal/stat"

// Well-known stat ids. The stats metadata table must define every one of them.
const (
	StatHealth stat.StatID = iota + 1
	StatEnergy
	StatMana
	StatHealthRegen
	StatEnergyRegen
	StatManaRegen
	StatDamage
	StatBlock
	StatDodge
	StatCritChance
	StatCritMultiplier
	StatPhysicalRes
	StatFireRes
	StatColdRes
	StatLightningRes
	StatMoveSpeed
)

// RequiredStats lists the stat ids the simulation reads directly.
var RequiredStats = []stat.StatID{
	StatHealth, StatEnergy, StatMana,
	StatHealthRegen, StatEnergyRegen, StatManaRegen,
	StatDamage, StatBlock, StatDodge, StatCritChance, StatCritMultiplier,
	StatPhysicalRes, StatFireRes, StatColdRes, StatLightningRes,
	StatMoveSpeed,
}

// Resistances are read by mitigation through their modifier sums only, so a
// base value on them has no effect.
var Resistances = []stat.StatID{StatPhysicalRes, StatFireRes, StatColdRes, StatLightningRes}

// StatEntry is one row of a unit's stat table: the class base value and the
// modifiers layered on top of it.
type StatEntry struct {
	Base stat.Value     `json:"base"`
	List *stat.StatList `json:"list"`
}

func NewStatEntry(base stat.Value) *StatEntry {
	return &StatEntry{Base: base, List: stat.NewStatList(base.Kind())}
}

// Value is the resultant value with every modifier applied.
func (e *StatEntry) Value() stat.Value { return e.List.Apply(e.Base) }

// Change tells the owning client which way a vital moved.
type Change uint8

const (
	Gain Change = iota
	Loss
)

func (c Change) String() string {
	if c == Gain {
		return "gain"
	}
	return "loss"
}

// StatUpdate is produced whenever a vital changes during a tick.
type StatUpdate struct {
	ID     stat.StatID
	Total  stat.Value
	Change Change
}
