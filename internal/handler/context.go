package handler

import (
	"context"
	"time"

	"github.com/emberfall/server/internal/account"
	"github.com/emberfall/server/internal/chat"
	"github.com/emberfall/server/internal/config"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/lobby"
	"github.com/emberfall/server/internal/persist"
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/session"
	"github.com/emberfall/server/internal/skill"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// storeTimeout bounds every synchronous account store call made from the
// game loop.
const storeTimeout = 5 * time.Second

// ChatArchive receives every channel message once it is delivered.
type ChatArchive interface {
	Record(msg chat.Message)
}

// Deps holds shared dependencies injected into all message handlers.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Clients  *session.Table
	Mode     *session.Mode
	World    *world.State
	Tables   *data.Tables
	Accounts account.Store
	Saves    *persist.CharacterStore
	Skills   *skill.Engine
	Chat     *chat.Manager
	Lobbies  *lobby.Manager
	Archive  ChatArchive // nil when the chat log is disabled
	Out      *Outbox
	Now      func() time.Time
}

func (d *Deps) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// RegisterAll registers all message handlers on the router.
func RegisterAll(r *protocol.Router, deps *Deps) {
	// Account
	r.Register(protocol.OpCSNewAccount, protocol.Open, protocol.Handle(func(c *session.Client, m *protocol.CSNewAccount) {
		HandleNewAccount(c, m, deps)
	}))
	r.Register(protocol.OpCSLoadAccount, protocol.Open, protocol.Handle(func(c *session.Client, m *protocol.CSLoadAccount) {
		HandleLoadAccount(c, m, deps)
	}))
	r.Register(protocol.OpCSCreatePlayer, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSCreatePlayer) {
		HandleCreatePlayer(c, m, deps)
	}))
	r.Register(protocol.OpCSJoinPlayer, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSJoinPlayer) {
		HandleJoinPlayer(c, m, deps)
	}))

	// In game
	r.Register(protocol.OpCSMovePlayer, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSMovePlayer) {
		HandleMove(c, m, deps)
	}))
	r.Register(protocol.OpCSRotPlayer, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSRotPlayer) {
		HandleRotate(c, m, deps)
	}))
	r.Register(protocol.OpCSSkillUse, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSSkillUse) {
		HandleSkillUse(c, m, deps)
	}))

	// Chat
	r.Register(protocol.OpCSChatJoin, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSChatJoin) {
		HandleChatJoin(c, m, deps)
	}))
	r.Register(protocol.OpCSChatLeave, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSChatLeave) {
		HandleChatLeave(c, m, deps)
	}))
	r.Register(protocol.OpCSChatChannelMessage, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSChatChannelMessage) {
		HandleChatMessage(c, m, deps)
	}))
	r.Register(protocol.OpCSChatScroll, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSChatScroll) {
		HandleChatScroll(c, m, deps)
	}))

	// Lobby
	r.Register(protocol.OpCSLobbyCreate, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSLobbyCreate) {
		HandleLobbyCreate(c, m, deps)
	}))
	r.Register(protocol.OpCSLobbyJoin, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSLobbyJoin) {
		HandleLobbyJoin(c, m, deps)
	}))
	r.Register(protocol.OpCSLobbyLeave, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSLobbyLeave) {
		HandleLobbyLeave(c, m, deps)
	}))
	r.Register(protocol.OpCSLobbyMessage, protocol.RequireAuth, protocol.Handle(func(c *session.Client, m *protocol.CSLobbyMessage) {
		HandleLobbyMessage(c, m, deps)
	}))
}
