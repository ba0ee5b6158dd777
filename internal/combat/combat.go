package combat

import (
	"fmt"

	"github.com/emberfall/server/internal/stat"
	"github.com/emberfall/server/internal/unit"
)

type DamageKind uint8

const (
	Physical DamageKind = iota
	Fire
	Cold
	Lightning
)

func (k DamageKind) String() string {
	switch k {
	case Physical:
		return "physical"
	case Fire:
		return "fire"
	case Cold:
		return "cold"
	case Lightning:
		return "lightning"
	default:
		return fmt.Sprintf("DamageKind(%d)", uint8(k))
	}
}

// ParseDamageKind maps a metadata spelling to a DamageKind.
func ParseDamageKind(s string) (DamageKind, error) {
	for k := Physical; k <= Lightning; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown damage kind %q", s)
}

// Resistance is the defender stat that mitigates damage of kind k.
func (k DamageKind) Resistance() stat.StatID {
	switch k {
	case Fire:
		return unit.StatFireRes
	case Cold:
		return unit.StatColdRes
	case Lightning:
		return unit.StatLightningRes
	default:
		return unit.StatPhysicalRes
	}
}

// Damage is an attack as rolled by the attacker, before mitigation.
type Damage struct {
	Kind   DamageKind
	Amount float32
}

// DamageResult is what actually landed on the defender.
type DamageResult struct {
	Damage Damage
	Total  float32
	IsCrit bool
}

type ResultKind uint8

const (
	ResultDamage ResultKind = iota
	ResultVillainDeath
	ResultHeroDeath
	ResultBlocked
	ResultDodged
)

func (k ResultKind) String() string {
	switch k {
	case ResultDamage:
		return "damage"
	case ResultVillainDeath:
		return "villain_death"
	case ResultHeroDeath:
		return "hero_death"
	case ResultBlocked:
		return "blocked"
	case ResultDodged:
		return "dodged"
	default:
		return fmt.Sprintf("ResultKind(%d)", uint8(k))
	}
}

// Reward is granted to the killer of a villain.
type Reward struct {
	XP    uint64
	Items []unit.Item
}

// Result is the single outcome of one resolved attack. Hit is set for
// Damage and both death kinds; Reward only for VillainDeath.
type Result struct {
	Kind   ResultKind
	Hit    DamageResult
	Reward Reward
}

// Landed reports whether damage reached the defender.
func (r Result) Landed() bool {
	return r.Kind == ResultDamage || r.Kind == ResultVillainDeath || r.Kind == ResultHeroDeath
}

// Killed reports whether the defender died from this attack.
func (r Result) Killed() bool {
	return r.Kind == ResultVillainDeath || r.Kind == ResultHeroDeath
}
