package handler

import (
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/session"
	"github.com/emberfall/server/internal/skill"
	"github.com/emberfall/server/internal/unit"
	"go.uber.org/zap"
)

// controlled returns the living unit c controls.
func controlled(c *session.Client, d *Deps) (*unit.Unit, bool) {
	if !c.InGame() {
		d.Log.Debug("in-game message outside the game", zap.Uint64("client", uint64(c.ID)))
		return nil, false
	}
	u, ok := d.World.Unit(c.Unit)
	if !ok || u.IsCorpse() {
		return nil, false
	}
	return u, true
}

// Budget left below this is treated as spent.
const moveEpsilon = 1e-4

// HandleMove steps the hero toward the requested point. All moves in one tick
// share a single tick of move speed. A refused or unfunded step is answered
// with the current position so the client can correct itself.
func HandleMove(c *session.Client, m *protocol.CSMovePlayer, d *Deps) {
	u, ok := controlled(c, d)
	if !ok {
		return
	}
	h, ok := d.World.Hero(u.Uid)
	if !ok {
		return
	}
	step := float32(u.StatF(unit.StatMoveSpeed) * d.Config.Network.TickRate.Seconds())
	budget := step - h.Moved
	from := u.Position
	moved := budget > moveEpsilon && d.World.Move(u, from.MoveToward(m.Target, budget))
	d.Out.Send(c.ID, &protocol.SCMovePlayer{Position: u.Position})
	if !moved {
		return
	}
	h.Moved += from.Dist(u.Position)
	QueueZoneExcept(d.Out, d.World, u.Zone, c.ID, &protocol.SCUnitMove{Uid: uint64(u.Uid), Position: u.Position})
}

func HandleRotate(c *session.Client, m *protocol.CSRotPlayer, d *Deps) {
	u, ok := controlled(c, d)
	if !ok {
		return
	}
	dir := m.Direction.Flat()
	if dir.IsZero() {
		return
	}
	u.Direction = dir.Normalize()
	u.Dirty = true
	d.Out.Send(c.ID, &protocol.SCRotPlayer{Direction: u.Direction})
}

func HandleSkillUse(c *session.Client, m *protocol.CSSkillUse, d *Deps) {
	u, ok := controlled(c, d)
	if !ok {
		return
	}
	slot := unit.SkillSlot(m.Slot)
	res := skill.UseBlocked
	if slot.Valid() {
		res, _ = d.Skills.Use(u, slot, m.Target)
	}
	d.Out.Send(c.ID, &protocol.SCSkillUseResult{Slot: m.Slot, Result: uint8(res)})
}
