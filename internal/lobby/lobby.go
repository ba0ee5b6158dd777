package lobby

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/emberfall/server/internal/chat"
	"github.com/emberfall/server/internal/session"
)

var (
	ErrFull           = errors.New("lobby is full")
	ErrNoSuchLobby    = errors.New("no such lobby")
	ErrAlreadyInLobby = errors.New("already in a lobby")
	ErrNotInLobby     = errors.New("not in a lobby")
	ErrInvalidMode    = errors.New("invalid game mode")
)

type GameMode uint8

const (
	ModeCoop GameMode = iota
	ModeVersus
	numModes
)

func (m GameMode) Valid() bool { return m < numModes }

func (m GameMode) String() string {
	switch m {
	case ModeCoop:
		return "coop"
	case ModeVersus:
		return "versus"
	default:
		return fmt.Sprintf("GameMode(%d)", uint8(m))
	}
}

type ID uint64

// Lobby is a pre-game room. Members are kept in join order; the first member
// is the owner.
type Lobby struct {
	ID      ID
	Mode    GameMode
	Owner   session.ClientID
	Members []session.ClientID
}

func (l *Lobby) Has(c session.ClientID) bool { return slices.Contains(l.Members, c) }

// Message is one line said inside a lobby.
type Message struct {
	ID         uint64
	Lobby      ID
	Sender     session.ClientID
	SenderName string
	Text       string
}

// Manager owns all lobbies. A client is in at most one lobby. Game loop only.
type Manager struct {
	lobbies  map[ID]*Lobby
	byClient map[session.ClientID]ID
	capacity int
	nextID   ID
	ids      chat.MessageIDs
}

func NewManager(capacity int, ids chat.MessageIDs) *Manager {
	return &Manager{
		lobbies:  make(map[ID]*Lobby),
		byClient: make(map[session.ClientID]ID),
		capacity: max(capacity, 1),
		ids:      ids,
	}
}

func (m *Manager) Create(c session.ClientID, mode GameMode) (*Lobby, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	if _, ok := m.byClient[c]; ok {
		return nil, ErrAlreadyInLobby
	}
	m.nextID++
	l := &Lobby{ID: m.nextID, Mode: mode, Owner: c, Members: []session.ClientID{c}}
	m.lobbies[l.ID] = l
	m.byClient[c] = l.ID
	return l, nil
}

func (m *Manager) Join(c session.ClientID, id ID) (*Lobby, error) {
	if _, ok := m.byClient[c]; ok {
		return nil, ErrAlreadyInLobby
	}
	l, ok := m.lobbies[id]
	if !ok {
		return nil, ErrNoSuchLobby
	}
	if len(l.Members) >= m.capacity {
		return nil, ErrFull
	}
	l.Members = append(l.Members, c)
	m.byClient[c] = id
	return l, nil
}

// Leave removes c from its lobby. When the owner leaves, the longest-standing
// member takes over. The lobby is returned, or nil if it is now gone.
func (m *Manager) Leave(c session.ClientID) (*Lobby, error) {
	id, ok := m.byClient[c]
	if !ok {
		return nil, ErrNotInLobby
	}
	delete(m.byClient, c)
	l := m.lobbies[id]
	l.Members = slices.DeleteFunc(l.Members, func(x session.ClientID) bool { return x == c })
	if len(l.Members) == 0 {
		delete(m.lobbies, id)
		return nil, nil
	}
	if l.Owner == c {
		l.Owner = l.Members[0]
	}
	return l, nil
}

func (m *Manager) Of(c session.ClientID) (*Lobby, bool) {
	id, ok := m.byClient[c]
	if !ok {
		return nil, false
	}
	return m.lobbies[id], true
}

func (m *Manager) Get(id ID) (*Lobby, bool) {
	l, ok := m.lobbies[id]
	return l, ok
}

// List returns every lobby ordered by id.
func (m *Manager) List() []*Lobby {
	out := make([]*Lobby, 0, len(m.lobbies))
	for _, l := range m.lobbies {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Say posts text to c's lobby and returns the message and its recipients.
func (m *Manager) Say(c session.ClientID, sender, text string) (Message, []session.ClientID, error) {
	l, ok := m.Of(c)
	if !ok {
		return Message{}, nil, ErrNotInLobby
	}
	text, err := chat.NormalizeText(text)
	if err != nil {
		return Message{}, nil, err
	}
	msg := Message{
		ID:         m.ids.AllocMessageID(),
		Lobby:      l.ID,
		Sender:     c,
		SenderName: sender,
		Text:       text,
	}
	return msg, slices.Clone(l.Members), nil
}
