package world

import (
	"testing"

	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/session"
	"github.com/emberfall/server/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T) (*State, *data.Tables) {
	t.Helper()
	tables, err := data.Load("")
	require.NoError(t, err)
	return NewState(ecs.NewWorld(), tables.Zones, unit.NewNextUid(1)), tables
}

func spawnHero(t *testing.T, s *State, tables *data.Tables, client session.ClientID, zone uint32, pos geom.Vec3) *unit.Unit {
	t.Helper()
	u := tables.Classes.Get("warrior").NewHero(s.NextUid(), "hero")
	u.Position = pos
	_, err := s.Spawn(u, zone, &Hero{Client: client, Storage: &unit.UnitStorage{}, Passive: &unit.PassiveSkillGraph{}})
	require.NoError(t, err)
	return u
}

func uidsWithin(s *State, zone uint32, center geom.Vec3, r float32) []unit.Uid {
	var out []unit.Uid
	s.UnitsWithin(zone, center, r, func(u *unit.Unit) { out = append(out, u.Uid) })
	return out
}

func TestSpawnZoneVillains(t *testing.T) {
	s, tables := newState(t)

	n, err := s.SpawnZoneVillains(tables.Villains)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, s.Len())
	assert.Len(t, s.UnitsInZone(1), 3)
	assert.Len(t, s.UnitsInZone(2), 1)

	ghoul, ok := s.Unit(1)
	require.True(t, ok)
	assert.Equal(t, "ghoul", ghoul.Class)
	assert.Equal(t, geom.V(20, 0, 20), ghoul.Position)
	_, isHero := s.Hero(1)
	assert.False(t, isHero)
}

func TestSpawn(t *testing.T) {
	s, tables := newState(t)

	t.Run("outside bounds lands on zone spawn", func(t *testing.T) {
		u := spawnHero(t, s, tables, 7, 2, geom.V(500, 0, 0))
		assert.Equal(t, geom.V(0, 0, -28), u.Position)
		assert.Equal(t, uint32(2), u.Zone)
	})

	t.Run("inside a blocker lands on zone spawn", func(t *testing.T) {
		u := spawnHero(t, s, tables, 8, 1, geom.V(11, 1, 0))
		assert.Equal(t, geom.V(0, 0, 0), u.Position)
	})

	t.Run("unknown zone", func(t *testing.T) {
		u := tables.Classes.Get("warrior").NewHero(s.NextUid(), "lost")
		_, err := s.Spawn(u, 99, nil)
		assert.ErrorIs(t, err, ErrNoSuchZone)
	})

	t.Run("duplicate uid", func(t *testing.T) {
		u := tables.Classes.Get("warrior").NewHero(1, "twin")
		_, err := s.Spawn(u, 1, nil)
		assert.ErrorIs(t, err, ErrDuplicateUid)
	})
}

func TestUnitsWithin(t *testing.T) {
	s, tables := newState(t)
	_, err := s.SpawnZoneVillains(tables.Villains)
	require.NoError(t, err)

	assert.Equal(t, []unit.Uid{1, 2}, uidsWithin(s, 1, geom.V(22, 0, 19), 5))
	assert.Equal(t, []unit.Uid{1}, uidsWithin(s, 1, geom.V(20, 0, 20), 1))
	assert.Empty(t, uidsWithin(s, 2, geom.V(22, 0, 19), 5), "other zones are invisible")

	ghoul, _ := s.Unit(1)
	ghoul.Kill(0)
	assert.Equal(t, []unit.Uid{2}, uidsWithin(s, 1, geom.V(22, 0, 19), 5), "corpses are skipped")
}

func TestMove(t *testing.T) {
	s, tables := newState(t)
	u := spawnHero(t, s, tables, 1, 1, geom.V(0, 0, 0))

	t.Run("clamped to bounds", func(t *testing.T) {
		require.True(t, s.Move(u, geom.V(100, 0, 0)))
		assert.Equal(t, geom.V(64, 0, 0), u.Position)
		assert.True(t, u.Dirty)
	})

	t.Run("blocked destination refused", func(t *testing.T) {
		require.True(t, s.Move(u, geom.V(8, 0, 0)))
		assert.False(t, s.Move(u, geom.V(11, 0, 0)))
		assert.Equal(t, geom.V(8, 0, 0), u.Position)
	})

	t.Run("grid follows the unit", func(t *testing.T) {
		require.True(t, s.Move(u, geom.V(-40, 0, -40)))
		assert.Equal(t, []unit.Uid{u.Uid}, uidsWithin(s, 1, geom.V(-40, 0, -40), 1))
		assert.Empty(t, uidsWithin(s, 1, geom.V(8, 0, 0), 1))
	})
}

func TestDespawn(t *testing.T) {
	s, tables := newState(t)
	u := spawnHero(t, s, tables, 3, 1, geom.V(0, 0, 0))
	e, ok := s.Entity(u.Uid)
	require.True(t, ok)

	got, ok := s.Despawn(u.Uid)
	require.True(t, ok)
	assert.Same(t, u, got)

	_, ok = s.Unit(u.Uid)
	assert.False(t, ok)
	assert.Empty(t, uidsWithin(s, 1, geom.V(0, 0, 0), 2))
	assert.True(t, s.ECS().Alive(e), "entity lives until cleanup")

	s.ECS().FlushDestroyQueue()
	assert.False(t, s.ECS().Alive(e))
	assert.Zero(t, s.Len())

	_, ok = s.Despawn(u.Uid)
	assert.False(t, ok)
}

func TestClientsInZone(t *testing.T) {
	s, tables := newState(t)
	spawnHero(t, s, tables, 9, 1, geom.V(0, 0, 0))
	spawnHero(t, s, tables, 4, 1, geom.V(1, 0, 1))
	spawnHero(t, s, tables, 5, 2, geom.V(0, 0, 0))
	_, err := s.SpawnZoneVillains(tables.Villains)
	require.NoError(t, err)

	assert.Equal(t, []session.ClientID{4, 9}, s.ClientsInZone(1))
	assert.Equal(t, []session.ClientID{5}, s.ClientsInZone(2))
}
