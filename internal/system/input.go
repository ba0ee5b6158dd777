package system

import (
	"time"

	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/session"
	"go.uber.org/zap"
)

// InputSystem accepts new sessions, tears down closed ones and drains message
// queues through the router. Every connect and disconnect of a tick is handled
// before the first message. Phase 0 (Input).
type InputSystem struct {
	hub        *net.Hub
	store      *net.SessionStore
	router     *protocol.Router
	deps       *handler.Deps
	saver      HeroSaver
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(hub *net.Hub, store *net.SessionStore, router *protocol.Router, deps *handler.Deps, saver HeroSaver, maxPerTick int) *InputSystem {
	return &InputSystem{
		hub:        hub,
		store:      store,
		router:     router,
		deps:       deps,
		saver:      saver,
		maxPerTick: maxPerTick,
		log:        deps.Log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.hub.NewSessions():
			s.accept(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	ids := s.store.IDs()
	for _, id := range ids {
		if sess, _ := s.store.Get(id); sess.IsClosed() {
			s.disconnect(sess)
		}
	}

	s.deps.World.ResetMoveBudgets()

	// Sessions are drained in id order so arrival order decides ties.
	for _, id := range ids {
		sess, ok := s.store.Get(id)
		if !ok {
			continue
		}
		c, ok := s.deps.Clients.Get(id)
		if !ok {
			continue
		}
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case data := <-sess.InQueue:
				if err := s.router.Dispatch(c, data); err != nil {
					s.log.Debug("dispatch failed",
						zap.Uint64("client", uint64(id)),
						zap.Error(err),
					)
				}
			default:
				goto nextSession
			}
		}
	nextSession:
	}
}

func (s *InputSystem) accept(sess *net.Session) {
	s.store.Add(sess)
	s.deps.Clients.Add(sess.ID)
	s.deps.Mode.OnConnect()
	s.deps.Out.Send(sess.ID, &protocol.SCHello{
		Server: s.deps.Config.Server.Name,
		Client: uint64(sess.ID),
	})
}

// disconnect saves and removes the client's hero, then drops it from every
// channel and lobby.
func (s *InputSystem) disconnect(sess *net.Session) {
	id := sess.ID
	if c, ok := s.deps.Clients.Remove(id); ok && c.InGame() {
		s.leaveGame(c)
	}
	s.deps.Chat.LeaveAll(id)
	if _, ok := s.deps.Lobbies.Of(id); ok {
		handler.LeaveLobby(id, s.deps)
	}
	s.store.Remove(id)
	s.log.Info("client disconnected", zap.Uint64("client", uint64(id)), zap.String("addr", sess.Addr))
}

func (s *InputSystem) leaveGame(c *session.Client) {
	u, ok := s.deps.World.Unit(c.Unit)
	if !ok {
		return
	}
	if h, ok := s.deps.World.Hero(u.Uid); ok {
		if err := s.saver.SaveHero(u, h); err != nil {
			s.log.Error("save on disconnect failed", zap.String("name", u.Name), zap.Error(err))
		}
	}
	removeUnit(s.deps, u)
	c.Detach()
}
