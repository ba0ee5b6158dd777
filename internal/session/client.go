package session

import (
	"errors"
	"fmt"

	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/unit"
)

// ClientID identifies one transport connection for its whole lifetime.
type ClientID uint64

type ClientKind uint8

const (
	KindUnknown ClientKind = iota
	KindPlayer
	KindAdmin
)

func (k ClientKind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindPlayer:
		return "player"
	case KindAdmin:
		return "admin"
	default:
		return fmt.Sprintf("ClientKind(%d)", uint8(k))
	}
}

// ClientType says who is behind a connection. Account is meaningful only for
// Player and Admin.
type ClientType struct {
	Kind    ClientKind
	Account uint64
}

func Player(account uint64) ClientType { return ClientType{Kind: KindPlayer, Account: account} }
func Admin(account uint64) ClientType  { return ClientType{Kind: KindAdmin, Account: account} }

type AuthStatus uint8

const (
	Unauthenticated AuthStatus = iota
	Authenticated
)

var ErrUnknownClientType = errors.New("cannot authenticate as unknown client type")

// Client is the server-side record of one connected peer.
type Client struct {
	ID   ClientID
	Type ClientType
	Auth AuthStatus
	Name string // account name once authenticated

	// Entity and Unit are zero until a character joins the game.
	Entity ecs.EntityID
	Unit   unit.Uid
}

func NewClient(id ClientID) *Client {
	return &Client{ID: id}
}

func (c *Client) IsAuthenticated() bool { return c.Auth == Authenticated }
func (c *Client) InGame() bool          { return c.Unit != 0 }

// Authenticate assigns the client type and marks the client authenticated in
// one step. A client is never authenticated while its type is unknown.
func (c *Client) Authenticate(t ClientType) error {
	if t.Kind == KindUnknown {
		return ErrUnknownClientType
	}
	c.Type = t
	c.Auth = Authenticated
	return nil
}

// Account returns the logged in account id.
func (c *Client) Account() (uint64, bool) {
	if !c.IsAuthenticated() {
		return 0, false
	}
	return c.Type.Account, true
}

// Attach binds the client to the unit it controls.
func (c *Client) Attach(e ecs.EntityID, uid unit.Uid) {
	c.Entity = e
	c.Unit = uid
}

func (c *Client) Detach() {
	c.Entity = 0
	c.Unit = 0
}
