package system

import (
	"time"

	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/unit"
)

// RegenSystem regenerates vitals of every living unit. Heroes get their
// changed vitals. Phase 3 (PostUpdate).
type RegenSystem struct {
	deps *handler.Deps
}

func NewRegenSystem(deps *handler.Deps) *RegenSystem {
	return &RegenSystem{deps: deps}
}

func (s *RegenSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RegenSystem) Update(dt time.Duration) {
	s.deps.World.EachUnit(func(u *unit.Unit) {
		updates := u.Regenerate(dt)
		if len(updates) == 0 || !u.IsHero() {
			return
		}
		if h, ok := s.deps.World.Hero(u.Uid); ok {
			s.deps.Out.Send(h.Client, &protocol.SCStatUpdates{Uid: uint64(u.Uid), Updates: updates})
		}
	})
}
