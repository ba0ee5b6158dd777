package chat

import (
	"errors"
	"sort"
	"time"

	"github.com/emberfall/server/internal/session"
)

var (
	ErrNotSubscribed     = errors.New("not subscribed to channel")
	ErrAlreadySubscribed = errors.New("already subscribed to channel")
)

// MessageIDs hands out server-wide message ids. Backed by the persisted
// server metadata.
type MessageIDs interface {
	AllocMessageID() uint64
}

// Message is one line posted to a channel.
type Message struct {
	ID         uint64
	Channel    string
	Sender     session.ClientID
	SenderName string
	Text       string
	SentAt     time.Time
}

type channel struct {
	name        string
	subscribers map[session.ClientID]*HistoryIndex
	history     []Message // oldest first
}

func (ch *channel) record(m Message, limit int) {
	ch.history = append(ch.history, m)
	if over := len(ch.history) - limit; over > 0 {
		ch.history = append(ch.history[:0], ch.history[over:]...)
	}
}

func (ch *channel) members() []session.ClientID {
	ids := make([]session.ClientID, 0, len(ch.subscribers))
	for id := range ch.subscribers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Manager owns every chat channel. Channels appear on first join and vanish
// when their last subscriber leaves. Game loop only.
type Manager struct {
	channels map[string]*channel
	history  int
	ids      MessageIDs
}

func NewManager(history int, ids MessageIDs) *Manager {
	return &Manager{
		channels: make(map[string]*channel),
		history:  max(history, 1),
		ids:      ids,
	}
}

// Join subscribes c to the channel and returns the normalised name.
func (m *Manager) Join(c session.ClientID, name string) (string, error) {
	name, err := NormalizeChannel(name)
	if err != nil {
		return "", err
	}
	ch, ok := m.channels[name]
	if !ok {
		ch = &channel{name: name, subscribers: make(map[session.ClientID]*HistoryIndex)}
		m.channels[name] = ch
	}
	if _, ok := ch.subscribers[c]; ok {
		return name, ErrAlreadySubscribed
	}
	ch.subscribers[c] = &HistoryIndex{}
	return name, nil
}

func (m *Manager) Leave(c session.ClientID, name string) error {
	name, err := NormalizeChannel(name)
	if err != nil {
		return err
	}
	ch, ok := m.channels[name]
	if !ok {
		return ErrNotSubscribed
	}
	if _, ok := ch.subscribers[c]; !ok {
		return ErrNotSubscribed
	}
	m.drop(ch, c)
	return nil
}

// LeaveAll removes c from every channel, on disconnect.
func (m *Manager) LeaveAll(c session.ClientID) {
	for _, ch := range m.channels {
		if _, ok := ch.subscribers[c]; ok {
			m.drop(ch, c)
		}
	}
}

func (m *Manager) drop(ch *channel, c session.ClientID) {
	delete(ch.subscribers, c)
	if len(ch.subscribers) == 0 {
		delete(m.channels, ch.name)
	}
}

// Post records a message from a subscriber and returns it together with the
// clients it must be delivered to.
func (m *Manager) Post(c session.ClientID, sender, name, text string, now time.Time) (Message, []session.ClientID, error) {
	name, err := NormalizeChannel(name)
	if err != nil {
		return Message{}, nil, err
	}
	ch, ok := m.channels[name]
	if !ok {
		return Message{}, nil, ErrNotSubscribed
	}
	if _, ok := ch.subscribers[c]; !ok {
		return Message{}, nil, ErrNotSubscribed
	}
	text, err = NormalizeText(text)
	if err != nil {
		return Message{}, nil, err
	}

	msg := Message{
		ID:         m.ids.AllocMessageID(),
		Channel:    name,
		Sender:     c,
		SenderName: sender,
		Text:       text,
		SentAt:     now,
	}
	ch.record(msg, m.history)
	for _, idx := range ch.subscribers {
		idx.Reset()
	}
	return msg, ch.members(), nil
}

// Scroll moves c's scrollback one line older or newer and returns the line
// now under the cursor. ok is false when the cursor is back at live.
func (m *Manager) Scroll(c session.ClientID, name string, older bool) (msg Message, ok bool, err error) {
	name, err = NormalizeChannel(name)
	if err != nil {
		return Message{}, false, err
	}
	ch, found := m.channels[name]
	if !found {
		return Message{}, false, ErrNotSubscribed
	}
	idx, found := ch.subscribers[c]
	if !found {
		return Message{}, false, ErrNotSubscribed
	}
	if older {
		idx.Inc(len(ch.history) - 1)
	} else {
		idx.Dec()
	}
	i, set := idx.Get()
	if !set {
		return Message{}, false, nil
	}
	return ch.history[len(ch.history)-1-i], true, nil
}

// Subscribers returns the members of a channel in id order.
func (m *Manager) Subscribers(name string) []session.ClientID {
	name, err := NormalizeChannel(name)
	if err != nil {
		return nil
	}
	if ch, ok := m.channels[name]; ok {
		return ch.members()
	}
	return nil
}

// History returns a copy of the channel's retained lines, oldest first.
func (m *Manager) History(name string) []Message {
	name, err := NormalizeChannel(name)
	if err != nil {
		return nil
	}
	if ch, ok := m.channels[name]; ok {
		return append([]Message(nil), ch.history...)
	}
	return nil
}

func (m *Manager) Channels() int { return len(m.channels) }
