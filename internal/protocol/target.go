package protocol

import (
	"slices"

	"github.com/emberfall/server/internal/session"
)

// Target selects which clients receive a message. It is computed by the
// server from account, lobby and channel membership, never from the message.
type Target struct {
	all bool
	ids []session.ClientID
}

// All targets every connected client.
func All() Target { return Target{all: true} }

// Only targets exactly the listed clients. An empty list reaches nobody.
func Only(ids ...session.ClientID) Target {
	return Target{ids: slices.Clone(ids)}
}

func (t Target) IsAll() bool { return t.all }

func (t Target) Includes(id session.ClientID) bool {
	return t.all || slices.Contains(t.ids, id)
}

// IDs returns the explicit recipients; nil for All.
func (t Target) IDs() []session.ClientID { return t.ids }
