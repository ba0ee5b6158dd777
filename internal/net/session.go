package net

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/session"
	"go.uber.org/zap"
)

type outgoing struct {
	data []byte
	ch   protocol.Channel
}

// Session is the transport side of one client. Network I/O runs in
// dedicated goroutines; everything else is touched only by the game loop.
type Session struct {
	ID   session.ClientID
	Addr string
	conn Conn

	InQueue  chan []byte // game loop reads messages from here
	OutQueue chan []byte // writer goroutine reads from here

	outBuf []outgoing // buffered by handlers, flushed by the output system

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second message rate limiter (readLoop goroutine only).
	pktPerSec  int
	pktCount   int
	pktResetAt int64

	log *zap.Logger
}

func NewSession(conn Conn, id session.ClientID, inSize, outSize, pktPerSec int, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:        id,
		Addr:      conn.RemoteAddr(),
		conn:      conn,
		InQueue:   make(chan []byte, inSize),
		OutQueue:  make(chan []byte, outSize),
		ctx:       ctx,
		cancel:    cancel,
		pktPerSec: pktPerSec,
		log:       log.With(zap.Uint64("client", uint64(id))),
	}
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers an encoded message. Nothing reaches the connection until
// FlushOutput runs. Game loop only.
func (s *Session) Send(data []byte, ch protocol.Channel) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, outgoing{data: data, ch: ch})
}

// Pending returns the number of buffered, unflushed messages.
func (s *Session) Pending() int { return len(s.outBuf) }

// FlushOutput moves buffered messages to OutQueue without blocking. When the
// queue is full an unreliable message is dropped and a reliable one closes
// the session.
func (s *Session) FlushOutput() {
	defer func() { s.outBuf = s.outBuf[:0] }()
	for _, m := range s.outBuf {
		select {
		case s.OutQueue <- m.data:
			continue
		default:
		}
		if m.ch == protocol.Unreliable {
			s.log.Debug("unreliable message dropped under backpressure")
			continue
		}
		s.log.Warn("output queue full, closing slow client")
		s.Close()
		return
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool { return s.closed.Load() }

// Done is closed once the session closes.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// allow applies the per-second rate limit.
func (s *Session) allow(now time.Time) bool {
	if s.pktPerSec <= 0 {
		return true
	}
	sec := now.Unix()
	if sec != s.pktResetAt {
		s.pktCount = 0
		s.pktResetAt = sec
	}
	s.pktCount++
	return s.pktCount <= s.pktPerSec
}

// readLoop pushes every received message onto InQueue. A full queue blocks
// this client only.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		data, err := s.conn.Read(s.ctx)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if !s.allow(time.Now()) {
			s.log.Warn("message rate exceeded, disconnecting", zap.Int("per_sec", s.pktCount))
			return
		}
		select {
		case s.InQueue <- data:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			if err := s.conn.Write(s.ctx, data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}
