package session

import "fmt"

// ServerMode is the coarse server lifecycle phase.
type ServerMode uint8

const (
	Offline ServerMode = iota
	Idle
	Lobby
	Game
)

func (m ServerMode) String() string {
	switch m {
	case Offline:
		return "offline"
	case Idle:
		return "idle"
	case Lobby:
		return "lobby"
	case Game:
		return "game"
	default:
		return fmt.Sprintf("ServerMode(%d)", uint8(m))
	}
}

// Mode holds the current ServerMode. Transitions that do not apply to the
// current mode are ignored and report false.
type Mode struct {
	cur ServerMode
}

func (m *Mode) Current() ServerMode { return m.cur }

func (m *Mode) Start() bool { return m.move(Offline, Idle) }

// OnConnect fires for every transport connection; only the first one while
// idle opens the lobby.
func (m *Mode) OnConnect() bool { return m.move(Idle, Lobby) }

func (m *Mode) EnterGame() bool { return m.move(Lobby, Game) }

func (m *Mode) Stop() {
	m.cur = Offline
}

func (m *Mode) move(from, to ServerMode) bool {
	if m.cur != from {
		return false
	}
	m.cur = to
	return true
}
