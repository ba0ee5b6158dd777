package system

import (
	"time"

	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/unit"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// DeathSystem advances corpse timers. An expired villain corpse despawns. An
// expired hero is revived at its zone spawn, saved and returned to character
// select. Phase 3 (PostUpdate).
type DeathSystem struct {
	deps  *handler.Deps
	saver HeroSaver
}

func NewDeathSystem(deps *handler.Deps, saver HeroSaver) *DeathSystem {
	return &DeathSystem{deps: deps, saver: saver}
}

func (s *DeathSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *DeathSystem) Update(dt time.Duration) {
	var expired []*unit.Unit
	s.deps.World.EachUnit(func(u *unit.Unit) {
		if u.TickDeath(dt) {
			expired = append(expired, u)
		}
	})
	for _, u := range expired {
		if h, ok := s.deps.World.Hero(u.Uid); ok {
			s.releaseHero(u, h)
			continue
		}
		removeUnit(s.deps, u)
	}
}

// releaseHero takes the hero out of the world before moving it to the spawn
// point, so the grid forgets the cell it died in.
func (s *DeathSystem) releaseHero(u *unit.Unit, h *world.Hero) {
	removeUnit(s.deps, u)
	u.Revive()
	if z := s.deps.World.Zones().Get(u.Zone); z != nil {
		u.Position = z.Spawn
	}
	if err := s.saver.SaveHero(u, h); err != nil {
		s.deps.Log.Error("save after death failed", zap.String("name", u.Name), zap.Error(err))
	}
	if c, ok := s.deps.Clients.Get(h.Client); ok {
		c.Detach()
	}
}

// removeUnit tells the zone the unit is gone, cancels its skills and takes it
// out of the world. The despawn notice goes out first so the owner gets it too.
func removeUnit(d *handler.Deps, u *unit.Unit) {
	handler.QueueZone(d.Out, d.World, u.Zone, &protocol.SCUnitDespawn{Uid: uint64(u.Uid)})
	d.Skills.CancelOwner(u.Uid)
	d.World.Despawn(u.Uid)
}
