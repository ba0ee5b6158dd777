package scripting

import (
	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/stat"
	"github.com/emberfall/server/internal/unit"
)

// Rewards computes villain kill rewards from the villain table and the Lua
// formulas. It is the resolver's combat.Rewards.
type Rewards struct {
	engine   *Engine
	villains *data.VillainTable
	items    *data.ItemTable
	rand     combat.Rand
	itemFind stat.StatID
}

var _ combat.Rewards = (*Rewards)(nil)

func NewRewards(engine *Engine, tables *data.Tables, rnd combat.Rand) *Rewards {
	r := &Rewards{
		engine:   engine,
		villains: tables.Villains,
		items:    tables.Items,
		rand:     rnd,
	}
	if info := tables.Stats.ByName("item_find"); info != nil {
		r.itemFind = info.ID
	}
	return r
}

func (r *Rewards) KillReward(killer, victim *unit.Unit) combat.Reward {
	v := r.villains.ByName(victim.Class)
	if v == nil {
		return combat.Reward{}
	}
	ctx := KillContext{
		KillerLevel: killer.Level,
		VictimLevel: victim.Level,
		BaseXP:      v.XP,
	}
	if r.itemFind != 0 {
		ctx.ItemFind = killer.StatF(r.itemFind)
	}

	reward := combat.Reward{XP: r.engine.KillXP(ctx)}
	for _, d := range v.Drops {
		ctx.BaseChance = d.Chance
		if r.rand.Float64()*100 >= r.engine.DropChance(ctx) {
			continue
		}
		if info := r.items.Get(d.Item); info != nil {
			reward.Items = append(reward.Items, info.Instance())
		}
	}
	return reward
}
