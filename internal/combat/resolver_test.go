package combat

import (
	"math/rand/v2"
	"testing"

	"github.com/emberfall/server/internal/stat"
	"github.com/emberfall/server/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seq replays fixed rolls in [0,1).
type seq []float64

func (s *seq) Float64() float64 {
	v := (*s)[0]
	*s = (*s)[1:]
	return v
}

type fixedReward Reward

func (f fixedReward) KillReward(_, _ *unit.Unit) Reward { return Reward(f) }

func newUnit(kind unit.Kind, hp, dodge, block, crit float32) *unit.Unit {
	base := map[stat.StatID]stat.Value{}
	for _, id := range unit.RequiredStats {
		base[id] = stat.F32(0)
	}
	base[unit.StatHealth] = stat.F32(hp)
	base[unit.StatDodge] = stat.F32(dodge)
	base[unit.StatBlock] = stat.F32(block)
	base[unit.StatCritChance] = stat.F32(crit)
	base[unit.StatCritMultiplier] = stat.F32(200)
	return unit.New(1, "u", kind, "test", 1, base)
}

func TestResolve_Order(t *testing.T) {
	tests := []struct {
		name  string
		rolls seq
		want  ResultKind
		hp    float32
	}{
		{"dodged first", seq{0.05}, ResultDodged, 100},
		{"blocked second", seq{0.5, 0.1}, ResultBlocked, 100},
		{"lands", seq{0.5, 0.5, 0.9}, ResultDamage, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := newUnit(unit.Hero, 100, 0, 0, 10)
			def := newUnit(unit.Villain, 100, 10, 20, 0)
			rolls := tt.rolls
			r := NewResolver(&rolls, nil)

			res := r.Resolve(att, def, Damage{Kind: Physical, Amount: 30})
			assert.Equal(t, tt.want, res.Kind)
			assert.Equal(t, stat.F32(tt.hp), def.Vitals.HP.Value)
			assert.Empty(t, rolls, "every roll consumed")
		})
	}
}

func TestResolve_Crit(t *testing.T) {
	att := newUnit(unit.Hero, 100, 0, 0, 50)
	def := newUnit(unit.Villain, 100, 0, 0, 0)
	rolls := seq{0.1}
	r := NewResolver(&rolls, nil)

	res := r.Resolve(att, def, Damage{Kind: Fire, Amount: 20})
	require.Equal(t, ResultDamage, res.Kind)
	assert.True(t, res.Hit.IsCrit)
	assert.Equal(t, float32(40), res.Hit.Total)
}

func TestMitigate(t *testing.T) {
	def := newUnit(unit.Hero, 100, 0, 0, 0)
	require.NoError(t, def.AddModifier(stat.Modifier{ID: 1, Stat: unit.StatColdRes, Value: stat.F32(25), Op: stat.OpMul}))
	require.NoError(t, def.AddModifier(stat.Modifier{ID: 2, Stat: unit.StatColdRes, Value: stat.F32(5), Op: stat.OpAdd}))

	assert.Equal(t, float32(70), Mitigate(def, Damage{Kind: Cold, Amount: 100}))
	assert.Equal(t, float32(100), Mitigate(def, Damage{Kind: Fire, Amount: 100}), "other kinds unaffected")
	assert.Equal(t, float32(0), Mitigate(def, Damage{Kind: Cold, Amount: 4}), "floored at zero")
}

func TestResolve_Deaths(t *testing.T) {
	t.Run("villain", func(t *testing.T) {
		att := newUnit(unit.Hero, 100, 0, 0, 0)
		def := newUnit(unit.Villain, 10, 0, 0, 0)
		r := NewResolver(&seq{}, fixedReward{XP: 40})

		res := r.Resolve(att, def, Damage{Amount: 25})
		assert.Equal(t, ResultVillainDeath, res.Kind)
		assert.Equal(t, uint64(40), res.Reward.XP)
		assert.True(t, res.Killed())
	})
	t.Run("hero", func(t *testing.T) {
		att := newUnit(unit.Villain, 100, 0, 0, 0)
		def := newUnit(unit.Hero, 10, 0, 0, 0)
		r := NewResolver(&seq{}, fixedReward{XP: 40})

		res := r.Resolve(att, def, Damage{Amount: 25})
		assert.Equal(t, ResultHeroDeath, res.Kind)
		assert.Zero(t, res.Reward.XP)
	})
}

func TestResolve_CorpseBlocks(t *testing.T) {
	def := newUnit(unit.Villain, 10, 0, 0, 0)
	def.Kill(0)
	r := NewResolver(&seq{}, nil)

	assert.Equal(t, ResultBlocked, r.Resolve(nil, def, Damage{Amount: 5}).Kind)
	assert.Equal(t, ResultBlocked, r.ResolvePeriodic(nil, def, Damage{Amount: 5}).Kind)
}

func TestResolve_ExactlyOneResult(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	r := NewResolver(rng, fixedReward{XP: 1})
	seen := map[ResultKind]int{}

	for i := 0; i < 2000; i++ {
		kind := unit.Villain
		if i%2 == 0 {
			kind = unit.Hero
		}
		att := newUnit(unit.Hero, 100, 0, 0, 30)
		def := newUnit(kind, float32(1+rng.IntN(60)), 15, 15, 0)

		res := r.Resolve(att, def, Damage{Kind: DamageKind(rng.IntN(4)), Amount: float32(rng.IntN(40))})
		if !res.Landed() {
			assert.Zero(t, res.Hit, "no hit data when nothing landed")
		}
		assert.Equal(t, res.Killed(), def.Vitals.HP.Value.IsZero() && res.Landed())
		seen[res.Kind]++
	}
	for _, k := range []ResultKind{ResultDamage, ResultVillainDeath, ResultHeroDeath, ResultBlocked, ResultDodged} {
		assert.Positive(t, seen[k], "result %s never produced", k)
	}
}
