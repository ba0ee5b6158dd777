package combat

import (
	"github.com/emberfall/server/internal/unit"
)

// Rand is the randomness source for combat rolls. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// Rewards computes what a killer earns for a villain.
type Rewards interface {
	KillReward(killer, victim *unit.Unit) Reward
}

// Resolver turns a rolled attack into exactly one Result and applies the hp
// loss to the defender.
type Resolver struct {
	rand    Rand
	rewards Rewards
}

func NewResolver(r Rand, rewards Rewards) *Resolver {
	return &Resolver{rand: r, rewards: rewards}
}

// roll succeeds with chance percent (0-100).
func (r *Resolver) roll(chance float64) bool {
	if chance <= 0 {
		return false
	}
	return r.rand.Float64()*100 < chance
}

// Resolve runs dodge, block, mitigation and crit in that order. A corpse
// defender blocks everything without changing state.
func (r *Resolver) Resolve(attacker, defender *unit.Unit, dmg Damage) Result {
	if defender.IsCorpse() {
		return Result{Kind: ResultBlocked}
	}
	if r.roll(defender.StatF(unit.StatDodge)) {
		return Result{Kind: ResultDodged}
	}
	if r.roll(defender.StatF(unit.StatBlock)) {
		return Result{Kind: ResultBlocked}
	}

	total := Mitigate(defender, dmg)
	crit := false
	if attacker != nil && total > 0 && r.roll(attacker.StatF(unit.StatCritChance)) {
		crit = true
		total *= float32(max(attacker.StatF(unit.StatCritMultiplier), 100) / 100)
	}
	return r.land(attacker, defender, DamageResult{Damage: dmg, Total: total, IsCrit: crit})
}

// ResolvePeriodic applies damage-over-time ticks: mitigation applies, but
// dodge, block and crit do not.
func (r *Resolver) ResolvePeriodic(attacker, defender *unit.Unit, dmg Damage) Result {
	if defender.IsCorpse() {
		return Result{Kind: ResultBlocked}
	}
	return r.land(attacker, defender, DamageResult{Damage: dmg, Total: Mitigate(defender, dmg)})
}

func (r *Resolver) land(attacker, defender *unit.Unit, hit DamageResult) Result {
	if !defender.TakeDamage(float64(hit.Total)) {
		return Result{Kind: ResultDamage, Hit: hit}
	}
	if defender.Kind == unit.Hero {
		return Result{Kind: ResultHeroDeath, Hit: hit}
	}
	res := Result{Kind: ResultVillainDeath, Hit: hit}
	if r.rewards != nil && attacker != nil {
		res.Reward = r.rewards.KillReward(attacker, defender)
	}
	return res
}

// Mitigate applies the defender's resistance for dmg.Kind:
// amount·(1 − mul_sum/100) − add_sum, floored at zero.
func Mitigate(defender *unit.Unit, dmg Damage) float32 {
	total := float64(dmg.Amount)
	if list, ok := defender.StatList(dmg.Kind.Resistance()); ok {
		total = total*(1-list.MulSum().Float64()/100) - list.AddSum().Float64()
	}
	return float32(max(total, 0))
}
