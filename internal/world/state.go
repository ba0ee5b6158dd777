package world

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/session"
	"github.com/emberfall/server/internal/unit"
	"github.com/google/uuid"
)

var (
	ErrNoSuchZone   = errors.New("no such zone")
	ErrDuplicateUid = errors.New("uid already in world")
)

// Hero is the player-only part of a hero unit: who controls it and the save
// slot it loads from and writes back to.
type Hero struct {
	Client    session.ClientID
	Account   uint64
	Character uuid.UUID
	Storage   *unit.UnitStorage
	Passive   *unit.PassiveSkillGraph

	// Moved is the distance travelled on request this tick.
	Moved float32
}

// State is the authoritative unit arena. Units live as ECS entities and are
// addressed by Uid. Accessed only from the game loop goroutine.
type State struct {
	ecs    *ecs.World
	units  *ecs.PtrComponentStore[unit.Unit]
	heroes *ecs.PtrComponentStore[Hero]
	byUid  map[unit.Uid]ecs.EntityID
	grid   *Grid
	zones  *data.ZoneTable
	uids   *unit.NextUid
}

func NewState(w *ecs.World, zones *data.ZoneTable, uids *unit.NextUid) *State {
	s := &State{
		ecs:    w,
		units:  ecs.NewPtrComponentStore[unit.Unit](),
		heroes: ecs.NewPtrComponentStore[Hero](),
		byUid:  make(map[unit.Uid]ecs.EntityID),
		grid:   NewGrid(),
		zones:  zones,
		uids:   uids,
	}
	w.Registry().Register(s.units)
	w.Registry().Register(s.heroes)
	return s
}

func (s *State) ECS() *ecs.World        { return s.ecs }
func (s *State) Zones() *data.ZoneTable { return s.zones }

// NextUid hands out a fresh unit id.
func (s *State) NextUid() unit.Uid { return s.uids.Next() }

// UidCounter is the value persisted in the server metadata.
func (s *State) UidCounter() uint64 { return s.uids.Peek() }

// Len returns the number of units in the arena.
func (s *State) Len() int { return len(s.byUid) }

// Spawn places u in zone. A position outside the zone bounds or inside a
// blocker is replaced by the zone spawn point. hero is nil for villains.
func (s *State) Spawn(u *unit.Unit, zone uint32, hero *Hero) (ecs.EntityID, error) {
	z := s.zones.Get(zone)
	if z == nil {
		return 0, fmt.Errorf("%w: %d", ErrNoSuchZone, zone)
	}
	if _, dup := s.byUid[u.Uid]; dup {
		return 0, fmt.Errorf("%w: %d", ErrDuplicateUid, u.Uid)
	}
	u.Zone = zone
	if !z.Bounds.Contains(u.Position) || z.Blocked(u.Position) {
		u.Position = z.Spawn
	}

	e := s.ecs.CreateEntity()
	s.units.Set(e, u)
	if hero != nil {
		s.heroes.Set(e, hero)
	}
	s.byUid[u.Uid] = e
	s.grid.Add(u.Uid, zone, u.Position)
	return e, nil
}

// Despawn removes the unit from lookups immediately. Its entity is destroyed
// in the cleanup phase.
func (s *State) Despawn(uid unit.Uid) (*unit.Unit, bool) {
	e, ok := s.byUid[uid]
	if !ok {
		return nil, false
	}
	u, _ := s.units.Get(e)
	delete(s.byUid, uid)
	s.grid.Remove(uid, u.Zone, u.Position)
	s.ecs.MarkForDestruction(e)
	return u, true
}

func (s *State) Entity(uid unit.Uid) (ecs.EntityID, bool) {
	e, ok := s.byUid[uid]
	return e, ok
}

func (s *State) Unit(uid unit.Uid) (*unit.Unit, bool) {
	e, ok := s.byUid[uid]
	if !ok {
		return nil, false
	}
	return s.units.Get(e)
}

func (s *State) Hero(uid unit.Uid) (*Hero, bool) {
	e, ok := s.byUid[uid]
	if !ok {
		return nil, false
	}
	return s.heroes.Get(e)
}

// UnitsWithin calls fn for every living unit of zone within radius of center,
// in ascending uid order.
func (s *State) UnitsWithin(zone uint32, center geom.Vec3, radius float32, fn func(*unit.Unit)) {
	uids := s.grid.Nearby(zone, center, radius)
	slices.Sort(uids)
	for _, uid := range uids {
		u, ok := s.Unit(uid)
		if !ok || u.IsCorpse() || !u.Position.Within(center, radius) {
			continue
		}
		fn(u)
	}
}

// Move puts u at pos clamped to its zone bounds. A destination inside a
// blocker is refused and reported false.
func (s *State) Move(u *unit.Unit, pos geom.Vec3) bool {
	z := s.zones.Get(u.Zone)
	if z == nil {
		return false
	}
	pos = z.Bounds.Clamp(pos)
	if z.Blocked(pos) {
		return false
	}
	s.grid.Move(u.Uid, u.Zone, u.Position, pos)
	u.Position = pos
	u.Dirty = true
	return true
}

// Displace is Move for forced movement such as knockback.
func (s *State) Displace(u *unit.Unit, pos geom.Vec3) {
	s.Move(u, pos)
}

// EachUnit visits every unit in entity order.
func (s *State) EachUnit(fn func(*unit.Unit)) {
	s.units.Each(func(_ ecs.EntityID, u *unit.Unit) { fn(u) })
}

// EachHero visits every hero with its unit in entity order.
func (s *State) EachHero(fn func(*unit.Unit, *Hero)) {
	ecs.Each2(s.units, s.heroes, func(_ ecs.EntityID, u *unit.Unit, h *Hero) { fn(u, h) })
}

// ResetMoveBudgets starts a new tick of requested movement for every hero.
func (s *State) ResetMoveBudgets() {
	s.heroes.Each(func(_ ecs.EntityID, h *Hero) { h.Moved = 0 })
}

// ClientsInZone returns the controlling clients of every hero in zone, in
// ascending order.
func (s *State) ClientsInZone(zone uint32) []session.ClientID {
	var out []session.ClientID
	s.EachHero(func(u *unit.Unit, h *Hero) {
		if u.Zone == zone {
			out = append(out, h.Client)
		}
	})
	slices.Sort(out)
	return out
}

// UnitsInZone returns every unit of zone in ascending uid order.
func (s *State) UnitsInZone(zone uint32) []*unit.Unit {
	var out []*unit.Unit
	s.EachUnit(func(u *unit.Unit) {
		if u.Zone == zone {
			out = append(out, u)
		}
	})
	slices.SortFunc(out, func(a, b *unit.Unit) int { return cmp.Compare(a.Uid, b.Uid) })
	return out
}

// SpawnZoneVillains places the villains listed by every zone. It returns how
// many were spawned.
func (s *State) SpawnZoneVillains(villains *data.VillainTable) (int, error) {
	n := 0
	for _, id := range s.zones.IDs() {
		z := s.zones.Get(id)
		for _, sp := range z.Villains {
			info := villains.Get(sp.Villain)
			if info == nil {
				return n, fmt.Errorf("zone %s: unknown villain %d", z.Name, sp.Villain)
			}
			u := info.NewVillain(s.uids.Next())
			u.Position = sp.Position
			if _, err := s.Spawn(u, id, nil); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}
