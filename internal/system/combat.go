package system

import (
	"time"

	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/core/event"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/skill"
	"github.com/emberfall/server/internal/unit"
)

// CombatSink turns skill outcomes into messages and death events. A killed
// defender becomes a corpse at once so later hits in the same tick are blocked.
type CombatSink struct {
	deps   *handler.Deps
	bus    *event.Bus
	corpse time.Duration
}

var _ skill.Sink = (*CombatSink)(nil)

func NewCombatSink(deps *handler.Deps, bus *event.Bus, corpse time.Duration) *CombatSink {
	return &CombatSink{deps: deps, bus: bus, corpse: corpse}
}

func (s *CombatSink) Hit(_ skill.UseID, attacker, defender *unit.Unit, res combat.Result) {
	d := s.deps
	handler.QueueZone(d.Out, d.World, defender.Zone, &protocol.SCCombatResult{
		Attacker: uint64(attacker.Uid),
		Defender: uint64(defender.Uid),
		Kind:     uint8(res.Kind),
		Amount:   res.Hit.Total,
		Crit:     res.Hit.IsCrit,
	})
	if !res.Landed() {
		return
	}
	if h, ok := d.World.Hero(defender.Uid); ok {
		hp := defender.Vitals.HP
		d.Out.Send(h.Client, &protocol.SCStatUpdates{
			Uid:     uint64(defender.Uid),
			Updates: []unit.StatUpdate{{ID: hp.ID, Total: hp.Value, Change: unit.Loss}},
		})
	}
	if res.Killed() {
		defender.Kill(s.corpse)
		event.Emit(s.bus, event.UnitKilled{Killer: attacker.Uid, Victim: defender.Uid, Result: res})
	}
}

// Moved reports forced movement to the zone and corrects the owner.
func (s *CombatSink) Moved(u *unit.Unit) {
	d := s.deps
	handler.QueueZone(d.Out, d.World, u.Zone, &protocol.SCUnitMove{Uid: uint64(u.Uid), Position: u.Position})
	if h, ok := d.World.Hero(u.Uid); ok {
		d.Out.Send(h.Client, &protocol.SCMovePlayer{Position: u.Position})
	}
}
