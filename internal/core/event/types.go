package event

import (
	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/unit"
)

// UnitKilled is emitted when combat drops a unit to zero hp.
type UnitKilled struct {
	Killer unit.Uid // zero when the killer already despawned
	Victim unit.Uid
	Result combat.Result
}

// HeroLeveled is emitted when a hero gains one or more levels.
type HeroLeveled struct {
	Uid    unit.Uid
	Level  uint32
	Gained int
}
