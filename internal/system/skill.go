package system

import (
	"time"

	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/skill"
	"github.com/emberfall/server/internal/unit"
	"github.com/emberfall/server/internal/world"
)

// SkillSystem steps active skill uses and afflictions, then cooldowns.
// Phase 2 (Update).
type SkillSystem struct {
	engine *skill.Engine
	world  *world.State
}

func NewSkillSystem(engine *skill.Engine, ws *world.State) *SkillSystem {
	return &SkillSystem{engine: engine, world: ws}
}

func (s *SkillSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SkillSystem) Update(dt time.Duration) {
	s.engine.Step(dt)
	s.world.EachUnit(func(u *unit.Unit) { u.TickCooldowns(dt) })
}
