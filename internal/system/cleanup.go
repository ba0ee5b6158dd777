package system

import (
	"time"

	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// CleanupSystem destroys the entities of units despawned this tick. Once the
// queue is flushed every live entity must still be addressable by Uid.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewCleanupSystem(ws *world.State, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: ws, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	ecs := s.world.ECS()
	if ecs.FlushDestroyQueue() == 0 {
		return
	}
	if live, units := ecs.Pool().Live(), s.world.Len(); live != units {
		s.log.Warn("entity pool out of step with unit arena",
			zap.Int("live", live),
			zap.Int("units", units),
		)
	}
}
