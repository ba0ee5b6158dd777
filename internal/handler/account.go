package handler

import (
	"errors"

	"github.com/emberfall/server/internal/account"
	"github.com/emberfall/server/internal/persist"
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/session"
	"github.com/emberfall/server/internal/unit"
	"github.com/emberfall/server/internal/world"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordLen = 72

var (
	errAlreadyLoggedIn = errors.New("already logged in")
	errAccountInUse    = errors.New("account already in use")
	errBadPassword     = errors.New("invalid password")
	errUnknownClass    = errors.New("unknown class")
	errAlreadyInGame   = errors.New("already in game")
	errCharacterInGame = errors.New("character already in game")
	errInternal        = errors.New("internal error")
)

// reason maps a store error to the text sent to the client. Errors outside
// known are logged and reported as internal.
func reason(d *Deps, c *session.Client, what string, err error, known ...error) string {
	for _, k := range known {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	d.Log.Error(what+" failed", zap.Uint64("client", uint64(c.ID)), zap.Error(err))
	return errInternal.Error()
}

func HandleNewAccount(c *session.Client, m *protocol.CSNewAccount, d *Deps) {
	if c.IsAuthenticated() {
		d.Out.Send(c.ID, &protocol.SCAccountError{Reason: errAlreadyLoggedIn.Error()})
		return
	}
	if m.Password == "" || len(m.Password) > maxPasswordLen {
		d.Out.Send(c.ID, &protocol.SCAccountError{Reason: errBadPassword.Error()})
		return
	}

	ctx, cancel := d.storeCtx()
	defer cancel()
	acc, err := d.Accounts.Create(ctx, m.Name, m.Password)
	if err != nil {
		d.Out.Send(c.ID, &protocol.SCAccountError{
			Reason: reason(d, c, "create account", err, account.ErrNameTaken, account.ErrInvalidName),
		})
		return
	}
	d.Log.Info("account created", zap.Uint64("account", acc.ID), zap.String("name", acc.Name))
	login(c, acc, d)
}

func HandleLoadAccount(c *session.Client, m *protocol.CSLoadAccount, d *Deps) {
	if c.IsAuthenticated() {
		d.Out.Send(c.ID, &protocol.SCAccountError{Reason: errAlreadyLoggedIn.Error()})
		return
	}

	ctx, cancel := d.storeCtx()
	defer cancel()
	acc, err := d.Accounts.Login(ctx, m.Name, m.Password)
	if err != nil {
		d.Out.Send(c.ID, &protocol.SCAccountError{
			Reason: reason(d, c, "login", err, account.ErrInvalidCredentials),
		})
		return
	}
	login(c, acc, d)
}

func login(c *session.Client, acc *account.Account, d *Deps) {
	if other, ok := d.Clients.ByAccount(acc.ID); ok && other.ID != c.ID {
		d.Out.Send(c.ID, &protocol.SCAccountError{Reason: errAccountInUse.Error()})
		return
	}
	if err := c.Authenticate(session.Player(acc.ID)); err != nil {
		d.Out.Send(c.ID, &protocol.SCAccountError{Reason: reason(d, c, "authenticate", err)})
		return
	}
	c.Name = acc.Name

	infos := make([]protocol.CharacterInfo, 0, len(acc.Characters))
	for _, ref := range acc.Characters {
		infos = append(infos, characterInfo(ref))
	}
	d.Out.Send(c.ID, &protocol.SCAccountSuccess{Account: acc.ID, Characters: infos})
	d.Log.Info("account logged in",
		zap.Uint64("client", uint64(c.ID)),
		zap.Uint64("account", acc.ID),
	)
}

func characterInfo(ref account.CharacterRef) protocol.CharacterInfo {
	return protocol.CharacterInfo{ID: ref.ID, Name: ref.Name, Class: ref.Class, Level: ref.Level}
}

// HandleCreatePlayer writes a fresh save slot for a new character. The files
// are written before the character is listed on the account, so a listed
// character always has a save.
func HandleCreatePlayer(c *session.Client, m *protocol.CSCreatePlayer, d *Deps) {
	accID, _ := c.Account()
	fail := func(r string) { d.Out.Send(c.ID, &protocol.SCPlayerCreateError{Reason: r}) }

	class := d.Tables.Classes.Get(m.Class)
	if class == nil {
		fail(errUnknownClass.Error())
		return
	}
	name, err := account.NormalizeName(m.Name)
	if err != nil {
		fail(err.Error())
		return
	}
	zone := d.Tables.Zones.Get(d.Config.Simulation.StartZone)
	if zone == nil {
		fail(reason(d, c, "create player", world.ErrNoSuchZone))
		return
	}

	u := class.NewHero(0, name)
	u.Zone = zone.ID
	u.Position = zone.Spawn
	ch := &persist.Character{
		Unit:    u,
		Storage: &unit.UnitStorage{},
		Passive: &unit.PassiveSkillGraph{Points: class.PassivePoints},
	}
	ref := account.CharacterRef{ID: uuid.New(), Name: name, Class: class.Name, Level: u.Level}
	if err := d.Saves.Save(accID, ref.ID, ch); err != nil {
		fail(reason(d, c, "save new character", err))
		return
	}

	ctx, cancel := d.storeCtx()
	defer cancel()
	if err := d.Accounts.AddCharacter(ctx, accID, ref); err != nil {
		fail(reason(d, c, "add character", err, account.ErrNameTaken, account.ErrInvalidName))
		return
	}
	d.Out.Send(c.ID, &protocol.SCPlayerCreateSuccess{Character: characterInfo(ref)})
	d.Log.Info("character created",
		zap.Uint64("account", accID),
		zap.String("character", ref.ID.String()),
		zap.String("class", ref.Class),
	)
}

// HandleJoinPlayer loads a character the account owns and spawns it into its
// saved zone. A character saved as a corpse comes back revived.
func HandleJoinPlayer(c *session.Client, m *protocol.CSJoinPlayer, d *Deps) {
	fail := func(r string) { d.Out.Send(c.ID, &protocol.SCPlayerJoinError{Reason: r}) }
	if c.InGame() {
		fail(errAlreadyInGame.Error())
		return
	}
	accID, _ := c.Account()

	ctx, cancel := d.storeCtx()
	defer cancel()
	refs, err := d.Accounts.Characters(ctx, accID)
	if err != nil {
		fail(reason(d, c, "list characters", err))
		return
	}
	acc := account.Account{ID: accID, Characters: refs}
	ref, ok := acc.Character(m.Character)
	if !ok {
		fail(account.ErrNoSuchCharacter.Error())
		return
	}
	if characterInGame(d.World, ref.ID) {
		fail(errCharacterInGame.Error())
		return
	}

	ch, err := d.Saves.Load(accID, ref.ID)
	if err != nil {
		fail(reason(d, c, "load character", err))
		return
	}
	u := ch.Unit
	u.Uid = d.World.NextUid()
	u.Kind = unit.Hero
	if u.IsCorpse() {
		u.Revive()
	}
	zone := u.Zone
	if d.Tables.Zones.Get(zone) == nil {
		zone = d.Config.Simulation.StartZone
	}

	hero := &world.Hero{
		Client:    c.ID,
		Account:   accID,
		Character: ref.ID,
		Storage:   ch.Storage,
		Passive:   ch.Passive,
	}
	e, err := d.World.Spawn(u, zone, hero)
	if err != nil {
		fail(reason(d, c, "spawn character", err))
		return
	}
	u.Dirty = false
	c.Attach(e, u.Uid)
	d.Mode.EnterGame()

	d.Out.Send(c.ID, &protocol.SCPlayerJoinSuccess{Uid: uint64(u.Uid), Zone: u.Zone})
	d.Out.Send(c.ID, &protocol.SCZoneLoad{Zone: u.Zone})
	d.Out.Queue(protocol.Only(d.World.ClientsInZone(u.Zone)...), SpawnMessage(u))
	for _, o := range d.World.UnitsInZone(u.Zone) {
		if o.Uid != u.Uid {
			d.Out.Send(c.ID, SpawnMessage(o))
		}
	}
	d.Out.Send(c.ID, VitalSnapshot(u))

	d.Log.Info("character joined",
		zap.Uint64("client", uint64(c.ID)),
		zap.Uint64("uid", uint64(u.Uid)),
		zap.Uint32("zone", u.Zone),
	)
}

func characterInGame(w *world.State, id uuid.UUID) bool {
	found := false
	w.EachHero(func(_ *unit.Unit, h *world.Hero) {
		if h.Character == id {
			found = true
		}
	})
	return found
}
