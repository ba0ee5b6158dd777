package session

import (
	"fmt"
	"sort"
)

// Table is the connection table. It is mutated only during the connect and
// disconnect part of the input phase.
type Table struct {
	clients map[ClientID]*Client
}

func NewTable() *Table {
	return &Table{clients: make(map[ClientID]*Client)}
}

// Add registers a new unauthenticated client. Adding an id twice returns the
// existing record.
func (t *Table) Add(id ClientID) *Client {
	if c, ok := t.clients[id]; ok {
		return c
	}
	c := NewClient(id)
	t.clients[id] = c
	return c
}

// Remove deletes the client and returns its last state. After Remove returns,
// Get for the same id reports false.
func (t *Table) Remove(id ClientID) (*Client, bool) {
	c, ok := t.clients[id]
	if !ok {
		return nil, false
	}
	delete(t.clients, id)
	return c, true
}

func (t *Table) Get(id ClientID) (*Client, bool) {
	c, ok := t.clients[id]
	return c, ok
}

// MustGet is for ids that already passed an authentication check. A miss
// means the table and the caller disagree, which is a programming error.
func (t *Table) MustGet(id ClientID) *Client {
	c, ok := t.clients[id]
	if !ok {
		panic(fmt.Sprintf("session: client %d missing from connection table", id))
	}
	return c
}

func (t *Table) Len() int { return len(t.clients) }

// ForEach visits clients in ascending id order.
func (t *Table) ForEach(fn func(*Client)) {
	for _, id := range t.IDs() {
		fn(t.clients[id])
	}
}

// IDs returns all connected client ids in ascending order.
func (t *Table) IDs() []ClientID {
	ids := make([]ClientID, 0, len(t.clients))
	for id := range t.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ByAccount finds the authenticated client logged in as account.
func (t *Table) ByAccount(account uint64) (*Client, bool) {
	for _, c := range t.clients {
		if id, ok := c.Account(); ok && id == account {
			return c, true
		}
	}
	return nil, false
}
