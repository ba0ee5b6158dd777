package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestXPForLevel(t *testing.T) {
	e := newEngine(t, "")
	assert.Equal(t, uint64(0), e.XPForLevel(1))
	assert.Equal(t, uint64(100), e.XPForLevel(2))
	assert.Equal(t, uint64(282), e.XPForLevel(3))
	assert.Equal(t, uint64(519), e.XPForLevel(4))
	assert.Equal(t, uint64(0), e.XPForLevel(51), "above the cap")
}

func TestGrantXP_UsesLuaCurve(t *testing.T) {
	e := newEngine(t, "")
	u := &unit.Unit{Level: 1}
	assert.Equal(t, 2, u.GrantXP(300, e))
	assert.Equal(t, uint32(3), u.Level)
}

func TestKillXP(t *testing.T) {
	e := newEngine(t, "")
	tests := []struct {
		name           string
		killer, victim uint32
		want           uint64
	}{
		{"even", 4, 4, 20},
		{"victim above", 1, 3, 24},
		{"victim far below", 10, 1, 2},
		{"victim far above", 1, 30, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.KillXP(KillContext{KillerLevel: tt.killer, VictimLevel: tt.victim, BaseXP: 20})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDropChance(t *testing.T) {
	e := newEngine(t, "")
	assert.InDelta(t, 10, e.DropChance(KillContext{KillerLevel: 1, VictimLevel: 1, BaseChance: 10}), 1e-9)
	assert.InDelta(t, 15, e.DropChance(KillContext{KillerLevel: 1, VictimLevel: 1, BaseChance: 10, ItemFind: 50}), 1e-9)
	assert.InDelta(t, 5, e.DropChance(KillContext{KillerLevel: 10, VictimLevel: 1, BaseChance: 10}), 1e-9)
	assert.InDelta(t, 100, e.DropChance(KillContext{BaseChance: 250}), 1e-9)
}

func TestOverrideScripts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "curve.lua"),
		[]byte("function xp_for_level(level) return level * 10 end\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	e := newEngine(t, dir)
	assert.Equal(t, uint64(50), e.XPForLevel(5))
	assert.Equal(t, uint64(20), e.KillXP(KillContext{BaseXP: 20}), "builtins stay loaded")
}

func TestScriptFailureFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.lua"), []byte(`
function kill_xp(ctx) error("boom") end
function drop_chance(ctx) return "lots" end
`), 0o644))

	e := newEngine(t, dir)
	assert.Equal(t, uint64(33), e.KillXP(KillContext{BaseXP: 33}))
	assert.Equal(t, 7.5, e.DropChance(KillContext{BaseChance: 7.5}))
}

func TestNewEngine_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("function ("), 0o644))
	_, err := NewEngine(dir, zap.NewNop())
	assert.ErrorContains(t, err, "bad.lua")
}

// rolls replays fixed values in [0,1).
type rolls []float64

func (r *rolls) Float64() float64 {
	v := (*r)[0]
	*r = (*r)[1:]
	return v
}

func TestRewards_KillReward(t *testing.T) {
	tables, err := data.Load("")
	require.NoError(t, err)
	e := newEngine(t, "")

	killer := tables.Classes.Get("warrior").NewHero(1, "ash")
	victim := tables.Villains.ByName("ghoul").NewVillain(2)

	// ghoul drops: rusted_sword at 10%, leather_cap at 8%.
	rnd := rolls{0.05, 0.5}
	r := NewRewards(e, tables, &rnd)
	reward := r.KillReward(killer, victim)

	assert.Equal(t, uint64(20), reward.XP)
	require.Len(t, reward.Items, 1)
	assert.Equal(t, "rusted_sword", reward.Items[0].Name)
	assert.Empty(t, rnd)
}

func TestRewards_UnknownVillain(t *testing.T) {
	tables, err := data.Load("")
	require.NoError(t, err)
	e := newEngine(t, "")

	killer := tables.Classes.Get("warrior").NewHero(1, "ash")
	stranger := tables.Classes.Get("sorcerer").NewHero(2, "bo")
	rnd := rolls{}
	reward := NewRewards(e, tables, &rnd).KillReward(killer, stranger)
	assert.Zero(t, reward.XP)
	assert.Empty(t, reward.Items)
}
