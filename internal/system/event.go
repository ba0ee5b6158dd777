package system

import (
	"time"

	"github.com/emberfall/server/internal/core/event"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/unit"
	"go.uber.org/zap"
)

// EventDispatchSystem delivers the events emitted during the previous tick.
// Phase 1 (PreUpdate).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// SubscribeRewards grants kill rewards to heroes: xp on the level curve,
// items into storage and one passive point per level gained. A level-up
// refills the hero's vitals.
func SubscribeRewards(bus *event.Bus, deps *handler.Deps, curve unit.LevelCurve) {
	event.Subscribe(bus, func(e event.UnitKilled) {
		killer, ok := deps.World.Unit(e.Killer)
		if !ok || !killer.IsHero() {
			return
		}
		h, ok := deps.World.Hero(killer.Uid)
		if !ok {
			return
		}
		r := e.Result.Reward
		for _, it := range r.Items {
			h.Storage.Add(it)
		}
		gained := killer.GrantXP(r.XP, curve)
		if len(r.Items) > 0 {
			killer.Dirty = true
		}
		if gained == 0 {
			return
		}
		h.Passive.Points += uint32(gained)
		event.Emit(bus, event.HeroLeveled{Uid: killer.Uid, Level: killer.Level, Gained: gained})
	})

	event.Subscribe(bus, func(e event.HeroLeveled) {
		u, ok := deps.World.Unit(e.Uid)
		if !ok || u.IsCorpse() {
			return
		}
		u.Refill()
		if h, ok := deps.World.Hero(u.Uid); ok {
			deps.Out.Send(h.Client, handler.VitalSnapshot(u))
		}
		deps.Log.Info("hero leveled",
			zap.String("name", u.Name),
			zap.Uint32("level", e.Level),
		)
	})
}
