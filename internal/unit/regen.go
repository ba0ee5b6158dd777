package unit

import (
	"time"

	"github.com/emberfall/server/internal/stat"
)

type vitalRule struct {
	vital *stat.Stat
	max   stat.StatID
	regen stat.StatID
}

func (u *Unit) vitalRules() [3]vitalRule {
	return [3]vitalRule{
		{&u.Vitals.HP, StatHealth, StatHealthRegen},
		{&u.Vitals.EP, StatEnergy, StatEnergyRegen},
		{&u.Vitals.MP, StatMana, StatManaRegen},
	}
}

// Regenerate applies per-second regen scaled by dt to every vital, clamped to
// [0, max]. Only vitals whose value changed are reported. Corpses never regenerate.
func (u *Unit) Regenerate(dt time.Duration) []StatUpdate {
	if u.State == Corpse {
		return nil
	}
	var updates []StatUpdate
	secs := dt.Seconds()
	for _, r := range u.vitalRules() {
		cur := r.vital.Value
		limit := u.StatF(r.max)
		next := cur.Float64() + u.StatF(r.regen)*secs
		next = min(max(next, 0), limit)

		nv := stat.FromFloat(cur.Kind(), next)
		if nv == cur {
			continue
		}
		change := Gain
		if nv.Less(cur) {
			change = Loss
		}
		r.vital.Value = nv
		updates = append(updates, StatUpdate{ID: r.vital.ID, Total: nv, Change: change})
	}
	return updates
}

// Refill restores every vital to its maximum.
func (u *Unit) Refill() {
	for _, r := range u.vitalRules() {
		r.vital.Value = stat.FromFloat(r.vital.Value.Kind(), u.StatF(r.max))
	}
}

// CanAfford reports whether the vitals cover a cost. Hp must stay above zero
// after paying, so a unit at zero hp can afford nothing.
func (u *Unit) CanAfford(hp, ep, mp float64) bool {
	if u.Vitals.HP.Value.Float64() <= hp {
		return false
	}
	return u.Vitals.EP.Value.Float64() >= ep && u.Vitals.MP.Value.Float64() >= mp
}
