package net

import (
	"slices"

	"github.com/emberfall/server/internal/session"
)

// SessionStore tracks live sessions by client id. Game loop only.
type SessionStore struct {
	sessions map[session.ClientID]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[session.ClientID]*Session)}
}

func (s *SessionStore) Add(sess *Session) { s.sessions[sess.ID] = sess }

func (s *SessionStore) Remove(id session.ClientID) { delete(s.sessions, id) }

func (s *SessionStore) Get(id session.ClientID) (*Session, bool) {
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *SessionStore) Len() int { return len(s.sessions) }

// IDs returns every session id in ascending order.
func (s *SessionStore) IDs() []session.ClientID {
	ids := make([]session.ClientID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ForEach visits sessions in ascending id order.
func (s *SessionStore) ForEach(fn func(*Session)) {
	for _, id := range s.IDs() {
		fn(s.sessions[id])
	}
}
