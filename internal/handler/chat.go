package handler

import (
	"github.com/emberfall/server/internal/chat"
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/session"
	"go.uber.org/zap"
)

// senderName is the hero name in game, else the account name.
func senderName(c *session.Client, d *Deps) string {
	if c.InGame() {
		if u, ok := d.World.Unit(c.Unit); ok {
			return u.Name
		}
	}
	return c.Name
}

func chatLine(m chat.Message) protocol.ChatLine {
	return protocol.ChatLine{
		ID:      m.ID,
		Channel: m.Channel,
		Sender:  m.SenderName,
		Text:    m.Text,
		SentAt:  m.SentAt.UnixMilli(),
	}
}

func HandleChatJoin(c *session.Client, m *protocol.CSChatJoin, d *Deps) {
	name, err := d.Chat.Join(c.ID, m.Channel)
	if err != nil {
		d.Out.Send(c.ID, &protocol.SCChatJoinError{Channel: m.Channel, Reason: err.Error()})
		return
	}
	d.Out.Send(c.ID, &protocol.SCChatJoinSuccess{Channel: name})
}

func HandleChatLeave(c *session.Client, m *protocol.CSChatLeave, d *Deps) {
	if err := d.Chat.Leave(c.ID, m.Channel); err != nil {
		d.Log.Debug("chat leave", zap.Uint64("client", uint64(c.ID)), zap.Error(err))
	}
}

// HandleChatMessage delivers to every subscriber, the sender included, and
// archives the message.
func HandleChatMessage(c *session.Client, m *protocol.CSChatChannelMessage, d *Deps) {
	msg, to, err := d.Chat.Post(c.ID, senderName(c, d), m.Channel, m.Text, d.now())
	if err != nil {
		d.Log.Debug("chat post", zap.Uint64("client", uint64(c.ID)), zap.Error(err))
		return
	}
	d.Out.Queue(protocol.Only(to...), &protocol.SCChatMessage{Message: chatLine(msg)})
	if d.Archive != nil {
		d.Archive.Record(msg)
	}
}

func HandleChatScroll(c *session.Client, m *protocol.CSChatScroll, d *Deps) {
	msg, ok, err := d.Chat.Scroll(c.ID, m.Channel, m.Older)
	if err != nil {
		d.Log.Debug("chat scroll", zap.Uint64("client", uint64(c.ID)), zap.Error(err))
		return
	}
	if ok {
		d.Out.Send(c.ID, &protocol.SCChatMessage{Message: chatLine(msg)})
	}
}
