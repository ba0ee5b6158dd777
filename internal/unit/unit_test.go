package unit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/stat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseStats() map[stat.StatID]stat.Value {
	return map[stat.StatID]stat.Value{
		StatHealth:         stat.F32(100),
		StatEnergy:         stat.F32(50),
		StatMana:           stat.F32(30),
		StatHealthRegen:    stat.F32(2),
		StatEnergyRegen:    stat.F32(1),
		StatManaRegen:      stat.F32(1),
		StatDamage:         stat.F32(10),
		StatBlock:          stat.F32(0),
		StatDodge:          stat.F32(0),
		StatCritChance:     stat.F32(5),
		StatCritMultiplier: stat.F32(150),
		StatPhysicalRes:    stat.F32(0),
		StatFireRes:        stat.F32(0),
		StatColdRes:        stat.F32(0),
		StatLightningRes:   stat.F32(0),
		StatMoveSpeed:      stat.F32(5),
	}
}

func newHero() *Unit {
	return New(1, "ash", Hero, "warrior", 1, baseStats())
}

func TestNew_StartsWithFullVitals(t *testing.T) {
	u := newHero()
	assert.Equal(t, stat.F32(100), u.Vitals.HP.Value)
	assert.Equal(t, stat.F32(50), u.Vitals.EP.Value)
	assert.Equal(t, stat.F32(30), u.Vitals.MP.Value)
	assert.Equal(t, StatHealth, u.Vitals.HP.ID)
	assert.Equal(t, Alive, u.State)
}

func TestNextUid_Monotonic(t *testing.T) {
	n := NewNextUid(41)
	assert.Equal(t, Uid(41), n.Next())
	assert.Equal(t, Uid(42), n.Next())
	assert.Equal(t, uint64(43), n.Peek())

	assert.Equal(t, Uid(1), NewNextUid(0).Next(), "zero is reserved")
}

func TestRegenerate_ClampsAtMax(t *testing.T) {
	u := newHero()
	u.Vitals.HP.Value = stat.F32(99)

	updates := u.Regenerate(time.Second)

	require.Len(t, updates, 1)
	assert.Equal(t, StatUpdate{ID: StatHealth, Total: stat.F32(100), Change: Gain}, updates[0])
	assert.Equal(t, stat.F32(100), u.Vitals.HP.Value)
}

func TestRegenerate_FullVitalsProduceNothing(t *testing.T) {
	u := newHero()
	assert.Empty(t, u.Regenerate(5*time.Second))
}

func TestRegenerate_ScalesWithDelta(t *testing.T) {
	u := newHero()
	u.Vitals.MP.Value = stat.F32(10)

	updates := u.Regenerate(500 * time.Millisecond)

	require.Len(t, updates, 1)
	assert.Equal(t, StatMana, updates[0].ID)
	assert.Equal(t, stat.F32(10.5), updates[0].Total)
}

func TestRegenerate_LossWhenMaxDrops(t *testing.T) {
	u := newHero()
	require.NoError(t, u.AddModifier(stat.Modifier{ID: 7, Stat: StatHealth, Value: stat.F32(40), Op: stat.OpSub}))

	updates := u.Regenerate(time.Second)

	require.Len(t, updates, 1)
	assert.Equal(t, Loss, updates[0].Change)
	assert.Equal(t, stat.F32(60), u.Vitals.HP.Value)
}

func TestRegenerate_CorpseNeverRegenerates(t *testing.T) {
	u := newHero()
	u.Kill(3 * time.Second)

	assert.Nil(t, u.Regenerate(10*time.Second))
	assert.Equal(t, stat.F32(0), u.Vitals.HP.Value)
}

func TestTickDeath(t *testing.T) {
	u := newHero()
	assert.False(t, u.TickDeath(time.Hour), "alive units have no corpse timer")

	u.Kill(time.Second)
	assert.False(t, u.TickDeath(600*time.Millisecond))
	assert.True(t, u.TickDeath(600*time.Millisecond))
}

func TestCanAfford(t *testing.T) {
	tests := []struct {
		name       string
		hp         float32
		hpCost     float64
		epCost     float64
		affordable bool
	}{
		{"free", 100, 0, 0, true},
		{"energy", 100, 0, 50, true},
		{"too much energy", 100, 0, 51, false},
		{"hp would hit zero", 20, 20, 0, false},
		{"hp stays positive", 21, 20, 0, true},
		{"dead hp", 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newHero()
			u.Vitals.HP.Value = stat.F32(tt.hp)
			assert.Equal(t, tt.affordable, u.CanAfford(tt.hpCost, tt.epCost, 0))
		})
	}
}

func TestCooldowns(t *testing.T) {
	u := newHero()
	u.StartCooldown(3, time.Second)
	assert.True(t, u.OnCooldown(3))

	u.TickCooldowns(400 * time.Millisecond)
	assert.True(t, u.OnCooldown(3))

	u.TickCooldowns(600 * time.Millisecond)
	assert.False(t, u.OnCooldown(3))
	assert.Empty(t, u.Cooldowns)
}

func TestEquip_AppliesAndRemovesModifiers(t *testing.T) {
	u := newHero()
	sword := &Item{ID: 10, Name: "sword", Slot: SlotWeapon, Modifiers: []stat.Modifier{
		{ID: 100, Stat: StatDamage, Value: stat.F32(5), Op: stat.OpAdd},
		{ID: 101, Stat: StatDamage, Value: stat.F32(50), Op: stat.OpMul, Format: stat.FormatPercent},
	}}

	prev, err := u.Equip(sword)
	require.NoError(t, err)
	assert.Nil(t, prev)
	assert.Equal(t, stat.F32(22.5), u.StatValue(StatDamage))

	axe := &Item{ID: 11, Name: "axe", Slot: SlotWeapon, Modifiers: []stat.Modifier{
		{ID: 102, Stat: StatDamage, Value: stat.F32(1), Op: stat.OpAdd},
	}}
	prev, err = u.Equip(axe)
	require.NoError(t, err)
	assert.Same(t, sword, prev)
	assert.Equal(t, stat.F32(11), u.StatValue(StatDamage))

	_, err = u.Unequip(SlotWeapon)
	require.NoError(t, err)
	assert.Equal(t, stat.F32(10), u.StatValue(StatDamage))

	_, err = u.Unequip(SlotWeapon)
	assert.ErrorIs(t, err, ErrSlotEmpty)
}

func TestEquip_RollsBackOnUnknownStat(t *testing.T) {
	u := newHero()
	bad := &Item{ID: 12, Name: "cursed", Slot: SlotRing, Modifiers: []stat.Modifier{
		{ID: 1, Stat: StatDamage, Value: stat.F32(5), Op: stat.OpAdd},
		{ID: 2, Stat: 999, Value: stat.F32(5), Op: stat.OpAdd},
	}}

	_, err := u.Equip(bad)
	assert.ErrorIs(t, err, ErrUnknownStat)
	assert.Equal(t, stat.F32(10), u.StatValue(StatDamage))
	assert.NotContains(t, u.Equipment, SlotRing)
}

func TestAllocatePassive(t *testing.T) {
	u := newHero()
	g := &PassiveSkillGraph{Points: 1}
	root := PassiveNode{ID: 1, Modifiers: []stat.Modifier{
		{ID: 500, Stat: StatHealth, Value: stat.F32(10), Op: stat.OpMul},
	}}
	leaf := PassiveNode{ID: 2, Requires: []PassiveNodeID{1}}

	assert.ErrorIs(t, u.AllocatePassive(g, leaf), ErrPassiveUnreachable)
	require.NoError(t, u.AllocatePassive(g, root))
	assert.Equal(t, stat.F32(110), u.StatValue(StatHealth))
	assert.Equal(t, uint32(0), g.Points)

	assert.ErrorIs(t, u.AllocatePassive(g, leaf), ErrNoPassivePoints)
	g.Points = 1
	assert.ErrorIs(t, u.AllocatePassive(g, root), ErrPassiveAllocated)
	require.NoError(t, u.AllocatePassive(g, leaf))
	assert.Equal(t, []PassiveNodeID{1, 2}, g.Allocated)
}

type curve map[uint32]uint64

func (c curve) XPForLevel(level uint32) uint64 { return c[level] }

func TestGrantXP_LevelsUpAcrossThresholds(t *testing.T) {
	u := newHero()
	c := curve{2: 100, 3: 250}

	assert.Equal(t, 0, u.GrantXP(99, c))
	assert.Equal(t, 2, u.GrantXP(200, c))
	assert.Equal(t, uint32(3), u.Level)
	assert.Equal(t, 0, u.GrantXP(1000, c), "level 4 is not on the curve")
}

func TestJSONRoundTrip(t *testing.T) {
	u := newHero()
	u.Position = geom.V(1.5, 0, -3.25)
	u.SetSkill(SlotPrimary, 7)
	u.StartCooldown(7, 1500*time.Millisecond)
	_, err := u.Equip(&Item{ID: 3, Name: "cap", Level: 2, Slot: SlotHelmet, Modifiers: []stat.Modifier{
		{ID: 9, Stat: StatFireRes, Value: stat.F32(12.5), Op: stat.OpAdd, Kind: stat.ModBase},
	}})
	require.NoError(t, err)
	u.Dirty = false

	storage := &UnitStorage{Gold: 1234, Items: []Item{{ID: 4, Name: "ring", Slot: SlotRing}}}
	passive := &PassiveSkillGraph{Points: 3, Allocated: []PassiveNodeID{1, 5}}

	t.Run("unit", func(t *testing.T) {
		raw, err := json.Marshal(u)
		require.NoError(t, err)
		var got Unit
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, u, &got)
	})
	t.Run("storage", func(t *testing.T) {
		raw, err := json.Marshal(storage)
		require.NoError(t, err)
		var got UnitStorage
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, storage, &got)
	})
	t.Run("passive", func(t *testing.T) {
		raw, err := json.Marshal(passive)
		require.NoError(t, err)
		var got PassiveSkillGraph
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, passive, &got)
	})
}

func TestRevive(t *testing.T) {
	u := newHero()
	u.TakeDamage(1e9)
	u.Kill(time.Second)
	require.True(t, u.IsCorpse())

	u.Revive()
	assert.False(t, u.IsCorpse())
	assert.Zero(t, u.DeathTimer)
	assert.Equal(t, u.StatF(StatHealth), u.Vitals.HP.Value.Float64())
}
