package handler

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/emberfall/server/internal/account"
	"github.com/emberfall/server/internal/account/mocks"
	"github.com/emberfall/server/internal/chat"
	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/config"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/lobby"
	"github.com/emberfall/server/internal/persist"
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/session"
	"github.com/emberfall/server/internal/skill"
	"github.com/emberfall/server/internal/unit"
	"github.com/emberfall/server/internal/world"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type nopSink struct{}

func (nopSink) Hit(skill.UseID, *unit.Unit, *unit.Unit, combat.Result) {}
func (nopSink) Moved(*unit.Unit)                                       {}

type nopRewards struct{}

func (nopRewards) KillReward(*unit.Unit, *unit.Unit) combat.Reward { return combat.Reward{} }

type archive struct{ got []chat.Message }

func (a *archive) Record(m chat.Message) { a.got = append(a.got, m) }

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type fixture struct {
	d       *Deps
	router  *protocol.Router
	archive *archive
}

func newFixture(t *testing.T, store account.Store) *fixture {
	t.Helper()
	tables, err := data.Load("")
	require.NoError(t, err)

	log := zap.NewNop()
	meta := &persist.Metadata{}
	if store == nil {
		store = account.NewMemoryStore(meta, bcrypt.MinCost)
	}
	w := world.NewState(ecs.NewWorld(), tables.Zones, unit.NewNextUid(1))
	_, err = w.SpawnZoneVillains(tables.Villains)
	require.NoError(t, err)

	rnd := rand.New(rand.NewPCG(1, 2))
	mode := &session.Mode{}
	mode.Start()
	arc := &archive{}
	d := &Deps{
		Config:   config.Default(),
		Log:      log,
		Clients:  session.NewTable(),
		Mode:     mode,
		World:    w,
		Tables:   tables,
		Accounts: store,
		Saves:    persist.NewCharacterStore(t.TempDir()),
		Skills:   skill.NewEngine(w, tables.Skills, combat.NewResolver(rnd, nopRewards{}), rnd, nopSink{}, log),
		Chat:     chat.NewManager(8, meta),
		Lobbies:  lobby.NewManager(2, meta),
		Archive:  arc,
		Out:      NewOutbox(log),
		Now:      func() time.Time { return epoch },
	}
	r := protocol.NewRouter(log)
	RegisterAll(r, d)
	return &fixture{d: d, router: r, archive: arc}
}

func (f *fixture) connect(id session.ClientID) *session.Client {
	f.d.Mode.OnConnect()
	return f.d.Clients.Add(id)
}

func (f *fixture) send(t *testing.T, c *session.Client, msg protocol.Message) {
	t.Helper()
	require.NoError(t, f.router.Dispatch(c, protocol.Encode(msg)))
}

// take returns every queued message addressed to id and empties the outbox.
func (f *fixture) take(id session.ClientID) []protocol.Message {
	var out []protocol.Message
	for _, env := range f.d.Out.queue {
		if env.target.IsAll() || env.target.Includes(id) {
			out = append(out, env.msg)
		}
	}
	f.d.Out.queue = f.d.Out.queue[:0]
	return out
}

func only[T protocol.Message](t *testing.T, msgs []protocol.Message) T {
	t.Helper()
	var found []T
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			found = append(found, v)
		}
	}
	require.Len(t, found, 1, "messages: %v", msgs)
	return found[0]
}

func (f *fixture) register(t *testing.T, c *session.Client, name string) {
	t.Helper()
	f.send(t, c, &protocol.CSNewAccount{Name: name, Password: "hunter22"})
	only[*protocol.SCAccountSuccess](t, f.take(c.ID))
}

func (f *fixture) createHero(t *testing.T, c *session.Client, name string) uuid.UUID {
	t.Helper()
	f.send(t, c, &protocol.CSCreatePlayer{Name: name, Class: "warrior"})
	return only[*protocol.SCPlayerCreateSuccess](t, f.take(c.ID)).Character.ID
}

func (f *fixture) joinHero(t *testing.T, c *session.Client, name string) *unit.Unit {
	t.Helper()
	id := f.createHero(t, c, name)
	f.send(t, c, &protocol.CSJoinPlayer{Character: id})
	only[*protocol.SCPlayerJoinSuccess](t, f.take(c.ID))
	u, ok := f.d.World.Unit(c.Unit)
	require.True(t, ok)
	return u
}

func TestNewAccount(t *testing.T) {
	f := newFixture(t, nil)
	a := f.connect(1)

	f.send(t, a, &protocol.CSNewAccount{Name: "Ashen", Password: "hunter22"})
	got := only[*protocol.SCAccountSuccess](t, f.take(1))
	assert.Equal(t, uint64(1), got.Account)
	assert.Empty(t, got.Characters)
	assert.True(t, a.IsAuthenticated())
	assert.Equal(t, "ashen", a.Name)

	b := f.connect(2)
	f.send(t, b, &protocol.CSNewAccount{Name: "ashen", Password: "other"})
	assert.Equal(t, account.ErrNameTaken.Error(), only[*protocol.SCAccountError](t, f.take(2)).Reason)

	f.send(t, b, &protocol.CSNewAccount{Name: "nopass", Password: ""})
	assert.Equal(t, errBadPassword.Error(), only[*protocol.SCAccountError](t, f.take(2)).Reason)
	assert.False(t, b.IsAuthenticated())
}

func TestLoadAccount(t *testing.T) {
	f := newFixture(t, nil)
	a := f.connect(1)
	f.register(t, a, "ashen")

	b := f.connect(2)
	f.send(t, b, &protocol.CSLoadAccount{Name: "ashen", Password: "wrong"})
	assert.Equal(t, account.ErrInvalidCredentials.Error(), only[*protocol.SCAccountError](t, f.take(2)).Reason)

	f.send(t, b, &protocol.CSLoadAccount{Name: "ashen", Password: "hunter22"})
	assert.Equal(t, errAccountInUse.Error(), only[*protocol.SCAccountError](t, f.take(2)).Reason)
	assert.False(t, b.IsAuthenticated())

	f.d.Clients.Remove(1)
	f.send(t, b, &protocol.CSLoadAccount{Name: "ashen", Password: "hunter22"})
	only[*protocol.SCAccountSuccess](t, f.take(2))
	assert.True(t, b.IsAuthenticated())
}

func TestUnauthenticatedDropped(t *testing.T) {
	f := newFixture(t, nil)
	c := f.connect(1)
	f.send(t, c, &protocol.CSCreatePlayer{Name: "ashen", Class: "warrior"})
	assert.Empty(t, f.take(1))
}

func TestStoreFailureIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Create(gomock.Any(), "ashen", "hunter22").Return(nil, errors.New("connection refused"))

	f := newFixture(t, store)
	c := f.connect(1)
	f.send(t, c, &protocol.CSNewAccount{Name: "ashen", Password: "hunter22"})
	assert.Equal(t, errInternal.Error(), only[*protocol.SCAccountError](t, f.take(1)).Reason)
}

func TestCreatePlayer(t *testing.T) {
	f := newFixture(t, nil)
	c := f.connect(1)
	f.register(t, c, "ashen")

	f.send(t, c, &protocol.CSCreatePlayer{Name: "Brand", Class: "paladin"})
	assert.Equal(t, errUnknownClass.Error(), only[*protocol.SCPlayerCreateError](t, f.take(1)).Reason)

	id := f.createHero(t, c, "Brand")
	acc, _ := c.Account()
	saved, err := f.d.Saves.Load(acc, id)
	require.NoError(t, err)
	assert.Equal(t, "brand", saved.Unit.Name)
	assert.Equal(t, uint32(1), saved.Unit.Zone)
	assert.Equal(t, uint32(1), saved.Passive.Points)

	f.send(t, c, &protocol.CSCreatePlayer{Name: "brand", Class: "sorcerer"})
	assert.Equal(t, account.ErrNameTaken.Error(), only[*protocol.SCPlayerCreateError](t, f.take(1)).Reason)
}

func TestJoinPlayer(t *testing.T) {
	f := newFixture(t, nil)
	c := f.connect(1)
	f.register(t, c, "ashen")
	id := f.createHero(t, c, "brand")

	f.send(t, c, &protocol.CSJoinPlayer{Character: id})
	msgs := f.take(1)
	join := only[*protocol.SCPlayerJoinSuccess](t, msgs)
	assert.Equal(t, uint32(1), join.Zone)
	assert.Equal(t, uint64(c.Unit), join.Uid)
	assert.Equal(t, uint32(1), only[*protocol.SCZoneLoad](t, msgs).Zone)

	spawns := 0
	for _, m := range msgs {
		if _, ok := m.(*protocol.SCPlayerSpawn); ok {
			spawns++
		}
	}
	assert.Equal(t, 4, spawns, "own spawn plus three villains")
	assert.Len(t, only[*protocol.SCStatUpdates](t, msgs).Updates, 3)
	assert.Equal(t, session.Game, f.d.Mode.Current())

	f.send(t, c, &protocol.CSJoinPlayer{Character: id})
	assert.Equal(t, errAlreadyInGame.Error(), only[*protocol.SCPlayerJoinError](t, f.take(1)).Reason)
}

func TestJoinPlayer_Rejections(t *testing.T) {
	f := newFixture(t, nil)
	a := f.connect(1)
	f.register(t, a, "ashen")
	id := f.createHero(t, a, "brand")

	b := f.connect(2)
	f.register(t, b, "cinder")
	f.send(t, b, &protocol.CSJoinPlayer{Character: id})
	assert.Equal(t, account.ErrNoSuchCharacter.Error(), only[*protocol.SCPlayerJoinError](t, f.take(2)).Reason)
}

func TestJoinPlayer_RevivesCorpse(t *testing.T) {
	f := newFixture(t, nil)
	c := f.connect(1)
	f.register(t, c, "ashen")
	id := f.createHero(t, c, "brand")

	acc, _ := c.Account()
	saved, err := f.d.Saves.Load(acc, id)
	require.NoError(t, err)
	saved.Unit.Kill(time.Second)
	saved.Unit.Zone = 99
	require.NoError(t, f.d.Saves.Save(acc, id, saved))

	f.send(t, c, &protocol.CSJoinPlayer{Character: id})
	only[*protocol.SCPlayerJoinSuccess](t, f.take(1))
	u, ok := f.d.World.Unit(c.Unit)
	require.True(t, ok)
	assert.False(t, u.IsCorpse())
	assert.Equal(t, u.StatF(unit.StatHealth), u.Vitals.HP.Value.Float64())
	assert.Equal(t, f.d.Config.Simulation.StartZone, u.Zone)
}

func TestMove(t *testing.T) {
	f := newFixture(t, nil)
	c := f.connect(1)
	f.register(t, c, "ashen")
	u := f.joinHero(t, c, "brand")

	// warrior move speed 5 over a 50ms tick
	f.send(t, c, &protocol.CSMovePlayer{Target: geom.V(10, 0, 0)})
	got := only[*protocol.SCMovePlayer](t, f.take(1))
	assert.InDelta(t, 0.25, got.Position.X, 1e-5)
	assert.Equal(t, got.Position, u.Position)

	f.d.World.ResetMoveBudgets()
	require.True(t, f.d.World.Move(u, geom.V(9.9, 0, 0)))
	f.send(t, c, &protocol.CSMovePlayer{Target: geom.V(11, 0, 0)})
	got = only[*protocol.SCMovePlayer](t, f.take(1))
	assert.Equal(t, geom.V(9.9, 0, 0), got.Position, "blocked step answered with a correction")
}

func TestMove_OneStepPerTick(t *testing.T) {
	f := newFixture(t, nil)
	c := f.connect(1)
	f.register(t, c, "ashen")
	u := f.joinHero(t, c, "brand")
	start := u.Position
	target := start.Add(geom.V(0, 0, 30))

	for range 10 {
		f.send(t, c, &protocol.CSMovePlayer{Target: target})
	}
	assert.InDelta(t, 0.25, start.Dist(u.Position), 1e-4)
	assert.Len(t, f.take(1), 10, "every request is answered")

	f.d.World.ResetMoveBudgets()
	f.send(t, c, &protocol.CSMovePlayer{Target: target})
	assert.InDelta(t, 0.5, start.Dist(u.Position), 1e-4)
}

func TestMove_BroadcastsToZone(t *testing.T) {
	f := newFixture(t, nil)
	a := f.connect(1)
	f.register(t, a, "ashen")
	ua := f.joinHero(t, a, "brand")
	b := f.connect(2)
	f.register(t, b, "cinder")
	f.joinHero(t, b, "flint")

	f.send(t, a, &protocol.CSMovePlayer{Target: geom.V(0, 0, 5)})
	moved := only[*protocol.SCUnitMove](t, f.take(2))
	assert.Equal(t, uint64(ua.Uid), moved.Uid)
}

func TestRotate(t *testing.T) {
	f := newFixture(t, nil)
	c := f.connect(1)
	f.register(t, c, "ashen")
	u := f.joinHero(t, c, "brand")

	f.send(t, c, &protocol.CSRotPlayer{Direction: geom.V(3, 7, 4)})
	got := only[*protocol.SCRotPlayer](t, f.take(1))
	assert.InDelta(t, 0.6, got.Direction.X, 1e-5)
	assert.InDelta(t, 0.8, got.Direction.Z, 1e-5)
	assert.Zero(t, got.Direction.Y)
	assert.Equal(t, got.Direction, u.Direction)

	f.send(t, c, &protocol.CSRotPlayer{Direction: geom.V(0, 1, 0)})
	assert.Empty(t, f.take(1))
}

func TestSkillUse(t *testing.T) {
	f := newFixture(t, nil)
	c := f.connect(1)
	f.register(t, c, "ashen")
	u := f.joinHero(t, c, "brand")

	f.send(t, c, &protocol.CSSkillUse{Slot: 200, Target: u.Position})
	assert.Equal(t, uint8(skill.UseBlocked), only[*protocol.SCSkillUseResult](t, f.take(1)).Result)

	f.send(t, c, &protocol.CSSkillUse{Slot: uint8(unit.SlotPrimary), Target: u.Position.Add(geom.V(0, 0, 1))})
	assert.Equal(t, uint8(skill.UseOk), only[*protocol.SCSkillUseResult](t, f.take(1)).Result)
	assert.Len(t, f.d.Skills.Uses(), 1)

	f.send(t, c, &protocol.CSSkillUse{Slot: uint8(unit.SlotPrimary), Target: u.Position.Add(geom.V(0, 0, 1))})
	assert.Equal(t, uint8(skill.UseBlocked), only[*protocol.SCSkillUseResult](t, f.take(1)).Result, "on cooldown")
}

func TestChat(t *testing.T) {
	f := newFixture(t, nil)
	a := f.connect(1)
	f.register(t, a, "ashen")
	b := f.connect(2)
	f.register(t, b, "cinder")

	f.send(t, a, &protocol.CSChatJoin{Channel: "General"})
	assert.Equal(t, "general", only[*protocol.SCChatJoinSuccess](t, f.take(1)).Channel)
	f.send(t, b, &protocol.CSChatJoin{Channel: "general"})
	f.take(2)

	f.send(t, a, &protocol.CSChatJoin{Channel: "general"})
	assert.Equal(t, chat.ErrAlreadySubscribed.Error(), only[*protocol.SCChatJoinError](t, f.take(1)).Reason)

	f.send(t, a, &protocol.CSChatChannelMessage{Channel: "general", Text: "hello"})
	queued := f.d.Out.queue
	require.Len(t, queued, 1)
	assert.True(t, queued[0].target.Includes(1))
	assert.True(t, queued[0].target.Includes(2))
	line := queued[0].msg.(*protocol.SCChatMessage).Message
	assert.Equal(t, "ashen", line.Sender)
	assert.Equal(t, epoch.UnixMilli(), line.SentAt)
	require.Len(t, f.archive.got, 1)
	assert.Equal(t, "hello", f.archive.got[0].Text)
	f.take(1)

	f.send(t, b, &protocol.CSChatScroll{Channel: "general", Older: true})
	assert.Equal(t, "hello", only[*protocol.SCChatMessage](t, f.take(2)).Message.Text)

	f.send(t, b, &protocol.CSChatLeave{Channel: "general"})
	f.send(t, a, &protocol.CSChatChannelMessage{Channel: "general", Text: "gone?"})
	msgs := f.take(2)
	assert.Empty(t, msgs)
}

func TestLobby(t *testing.T) {
	f := newFixture(t, nil)
	a := f.connect(1)
	f.register(t, a, "ashen")
	b := f.connect(2)
	f.register(t, b, "cinder")
	c := f.connect(3)
	f.register(t, c, "flint")

	f.send(t, a, &protocol.CSLobbyCreate{Mode: 9})
	assert.Equal(t, lobby.ErrInvalidMode.Error(), only[*protocol.SCLobbyCreateError](t, f.take(1)).Reason)

	f.send(t, a, &protocol.CSLobbyCreate{Mode: uint8(lobby.ModeCoop)})
	info := only[*protocol.SCLobbyCreateSuccess](t, f.take(1)).Lobby
	assert.Equal(t, uint64(1), info.Owner)

	f.send(t, b, &protocol.CSLobbyJoin{Lobby: info.ID})
	msgs := f.d.Out.queue
	require.Len(t, msgs, 1)
	assert.Equal(t, []uint64{1, 2}, msgs[0].msg.(*protocol.SCLobbyJoinSuccess).Lobby.Members)
	assert.True(t, msgs[0].target.Includes(1))
	f.take(0)

	f.send(t, c, &protocol.CSLobbyJoin{Lobby: info.ID})
	assert.Equal(t, lobby.ErrFull.Error(), only[*protocol.SCLobbyJoinError](t, f.take(3)).Reason)

	f.send(t, b, &protocol.CSLobbyMessage{Text: "ready"})
	line := only[*protocol.SCLobbyMessage](t, f.take(1)).Message
	assert.Equal(t, "cinder", line.Sender)

	f.send(t, a, &protocol.CSLobbyLeave{})
	msgs2 := f.d.Out.queue
	require.Len(t, msgs2, 2)
	only[*protocol.SCLobbyLeaveSuccess](t, f.take(1))
	l, ok := f.d.Lobbies.Of(2)
	require.True(t, ok)
	assert.Equal(t, session.ClientID(2), l.Owner)
}
