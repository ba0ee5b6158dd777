package net

import (
	"sync/atomic"

	"github.com/emberfall/server/internal/config"
	"github.com/emberfall/server/internal/session"
	"go.uber.org/zap"
)

// Hub turns accepted connections from every transport into Sessions and
// hands them to the game loop.
type Hub struct {
	nextID    atomic.Uint64
	newConns  chan *Session
	inSize    int
	outSize   int
	pktPerSec int
	log       *zap.Logger
}

func NewHub(cfg config.NetworkConfig, log *zap.Logger) *Hub {
	return &Hub{
		newConns:  make(chan *Session, 64),
		inSize:    cfg.InQueueSize,
		outSize:   cfg.OutQueueSize,
		pktPerSec: cfg.PacketsPerSecond,
		log:       log,
	}
}

// Attach starts a session for conn and queues it for the game loop. It
// returns nil and closes conn when the connect queue is full.
func (h *Hub) Attach(conn Conn) *Session {
	id := session.ClientID(h.nextID.Add(1))
	sess := NewSession(conn, id, h.inSize, h.outSize, h.pktPerSec, h.log)

	select {
	case h.newConns <- sess:
	default:
		h.log.Warn("connect queue full, rejecting connection", zap.String("addr", sess.Addr))
		conn.Close()
		return nil
	}
	sess.Start()
	h.log.Info("client connected", zap.Uint64("client", uint64(id)), zap.String("addr", sess.Addr))
	return sess
}

// NewSessions returns the channel of newly connected sessions.
func (h *Hub) NewSessions() <-chan *Session {
	return h.newConns
}
