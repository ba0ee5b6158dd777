package handler

import (
	"slices"

	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/session"
	"github.com/emberfall/server/internal/unit"
	"github.com/emberfall/server/internal/world"
)

func SpawnMessage(u *unit.Unit) *protocol.SCPlayerSpawn {
	return &protocol.SCPlayerSpawn{
		Uid:       uint64(u.Uid),
		Name:      u.Name,
		Kind:      uint8(u.Kind),
		Position:  u.Position,
		Direction: u.Direction,
	}
}

// VitalSnapshot reports the current value of every vital.
func VitalSnapshot(u *unit.Unit) *protocol.SCStatUpdates {
	return &protocol.SCStatUpdates{
		Uid: uint64(u.Uid),
		Updates: []unit.StatUpdate{
			{ID: u.Vitals.HP.ID, Total: u.Vitals.HP.Value, Change: unit.Gain},
			{ID: u.Vitals.EP.ID, Total: u.Vitals.EP.Value, Change: unit.Gain},
			{ID: u.Vitals.MP.ID, Total: u.Vitals.MP.Value, Change: unit.Gain},
		},
	}
}

// QueueZone queues msg for every client with a hero in zone.
func QueueZone(out *Outbox, w *world.State, zone uint32, msg protocol.Message) {
	if ids := w.ClientsInZone(zone); len(ids) > 0 {
		out.Queue(protocol.Only(ids...), msg)
	}
}

// QueueZoneExcept is QueueZone without one client, usually the actor who
// already got a direct reply.
func QueueZoneExcept(out *Outbox, w *world.State, zone uint32, skip session.ClientID, msg protocol.Message) {
	ids := slices.DeleteFunc(w.ClientsInZone(zone), func(id session.ClientID) bool { return id == skip })
	if len(ids) > 0 {
		out.Queue(protocol.Only(ids...), msg)
	}
}
