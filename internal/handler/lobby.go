package handler

import (
	"github.com/emberfall/server/internal/lobby"
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/session"
	"go.uber.org/zap"
)

func lobbyInfo(l *lobby.Lobby) protocol.LobbyInfo {
	members := make([]uint64, len(l.Members))
	for i, m := range l.Members {
		members[i] = uint64(m)
	}
	return protocol.LobbyInfo{ID: uint64(l.ID), Mode: uint8(l.Mode), Owner: uint64(l.Owner), Members: members}
}

func HandleLobbyCreate(c *session.Client, m *protocol.CSLobbyCreate, d *Deps) {
	l, err := d.Lobbies.Create(c.ID, lobby.GameMode(m.Mode))
	if err != nil {
		d.Out.Send(c.ID, &protocol.SCLobbyCreateError{Reason: err.Error()})
		return
	}
	d.Out.Send(c.ID, &protocol.SCLobbyCreateSuccess{Lobby: lobbyInfo(l)})
}

// HandleLobbyJoin sends the new roster to every member.
func HandleLobbyJoin(c *session.Client, m *protocol.CSLobbyJoin, d *Deps) {
	l, err := d.Lobbies.Join(c.ID, lobby.ID(m.Lobby))
	if err != nil {
		d.Out.Send(c.ID, &protocol.SCLobbyJoinError{Reason: err.Error()})
		return
	}
	d.Out.Queue(protocol.Only(l.Members...), &protocol.SCLobbyJoinSuccess{Lobby: lobbyInfo(l)})
}

func HandleLobbyLeave(c *session.Client, _ *protocol.CSLobbyLeave, d *Deps) {
	LeaveLobby(c.ID, d)
}

// LeaveLobby removes id from its lobby and sends the remaining members the
// new roster. It is also run on disconnect.
func LeaveLobby(id session.ClientID, d *Deps) {
	l, err := d.Lobbies.Leave(id)
	if err != nil {
		d.Log.Debug("lobby leave", zap.Uint64("client", uint64(id)), zap.Error(err))
		return
	}
	d.Out.Send(id, &protocol.SCLobbyLeaveSuccess{})
	if l != nil {
		d.Out.Queue(protocol.Only(l.Members...), &protocol.SCLobbyJoinSuccess{Lobby: lobbyInfo(l)})
	}
}

func HandleLobbyMessage(c *session.Client, m *protocol.CSLobbyMessage, d *Deps) {
	msg, to, err := d.Lobbies.Say(c.ID, senderName(c, d), m.Text)
	if err != nil {
		d.Log.Debug("lobby message", zap.Uint64("client", uint64(c.ID)), zap.Error(err))
		return
	}
	d.Out.Queue(protocol.Only(to...), &protocol.SCLobbyMessage{Message: protocol.LobbyLine{
		ID:     msg.ID,
		Lobby:  uint64(msg.Lobby),
		Sender: msg.SenderName,
		Text:   msg.Text,
	}})
}
