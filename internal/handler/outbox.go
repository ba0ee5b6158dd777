package handler

import (
	"github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/session"
	"go.uber.org/zap"
)

type envelope struct {
	target protocol.Target
	msg    protocol.Message
}

// Outbox collects outgoing messages during a tick. The output system flushes
// it once per tick, encoding each message once for all its recipients.
type Outbox struct {
	queue []envelope
	log   *zap.Logger
}

func NewOutbox(log *zap.Logger) *Outbox {
	return &Outbox{log: log}
}

func (o *Outbox) Queue(target protocol.Target, msg protocol.Message) {
	o.queue = append(o.queue, envelope{target: target, msg: msg})
}

// Send queues msg for one client.
func (o *Outbox) Send(id session.ClientID, msg protocol.Message) {
	o.Queue(protocol.Only(id), msg)
}

func (o *Outbox) Len() int { return len(o.queue) }

// Flush hands every queued message to the sessions of its recipients, in
// queue order. Recipients without a session are skipped.
func (o *Outbox) Flush(sessions *net.SessionStore) {
	for _, env := range o.queue {
		data := protocol.Encode(env.msg)
		ch := protocol.ChannelOf(env.msg.Opcode())

		ids := env.target.IDs()
		if env.target.IsAll() {
			ids = sessions.IDs()
		}
		for _, id := range ids {
			sess, ok := sessions.Get(id)
			if !ok {
				o.log.Debug("no session for recipient",
					zap.Uint64("client", uint64(id)),
					zap.Stringer("op", env.msg.Opcode()),
				)
				continue
			}
			sess.Send(data, ch)
		}
	}
	clear(o.queue)
	o.queue = o.queue[:0]
}
