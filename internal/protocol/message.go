package protocol

import (
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/stat"
	"github.com/emberfall/server/internal/unit"
	"github.com/google/uuid"
)

// Message is one typed protocol message.
type Message interface {
	Opcode() Opcode
	encode(w *Writer)
	decode(r *Reader)
}

// ---- shared wire records ----

// CharacterInfo summarises one save slot in account replies.
type CharacterInfo struct {
	ID    uuid.UUID
	Name  string
	Class string
	Level uint32
}

func (c *CharacterInfo) encode(w *Writer) {
	w.UUID(c.ID)
	w.Str(c.Name)
	w.Str(c.Class)
	w.U32(c.Level)
}

func (c *CharacterInfo) decode(r *Reader) {
	c.ID = r.UUID()
	c.Name = r.Str()
	c.Class = r.Str()
	c.Level = r.U32()
}

// ChatLine is a chat message as delivered to subscribers.
type ChatLine struct {
	ID      uint64
	Channel string
	Sender  string
	Text    string
	SentAt  int64 // unix millis
}

func (c *ChatLine) encode(w *Writer) {
	w.U64(c.ID)
	w.Str(c.Channel)
	w.Str(c.Sender)
	w.Str(c.Text)
	w.U64(uint64(c.SentAt))
}

func (c *ChatLine) decode(r *Reader) {
	c.ID = r.U64()
	c.Channel = r.Str()
	c.Sender = r.Str()
	c.Text = r.Str()
	c.SentAt = int64(r.U64())
}

type LobbyInfo struct {
	ID      uint64
	Mode    uint8
	Owner   uint64
	Members []uint64
}

func (l *LobbyInfo) encode(w *Writer) {
	w.U64(l.ID)
	w.U8(l.Mode)
	w.U64(l.Owner)
	w.U16(uint16(len(l.Members)))
	for _, m := range l.Members {
		w.U64(m)
	}
}

func (l *LobbyInfo) decode(r *Reader) {
	l.ID = r.U64()
	l.Mode = r.U8()
	l.Owner = r.U64()
	n := int(r.U16())
	l.Members = make([]uint64, 0, min(n, r.Remaining()/8))
	for i := 0; i < n && r.Err() == nil; i++ {
		l.Members = append(l.Members, r.U64())
	}
}

type LobbyLine struct {
	ID     uint64
	Lobby  uint64
	Sender string
	Text   string
}

func (l *LobbyLine) encode(w *Writer) {
	w.U64(l.ID)
	w.U64(l.Lobby)
	w.Str(l.Sender)
	w.Str(l.Text)
}

func (l *LobbyLine) decode(r *Reader) {
	l.ID = r.U64()
	l.Lobby = r.U64()
	l.Sender = r.Str()
	l.Text = r.Str()
}

func writeValue(w *Writer, v stat.Value) {
	w.U8(uint8(v.Kind()))
	switch v.Kind() {
	case stat.KindU32:
		w.U32(v.U32())
	case stat.KindU64:
		w.U64(v.U64())
	case stat.KindF32:
		w.F32(v.F32())
	default:
		w.F64(v.F64())
	}
}

func readValue(r *Reader) stat.Value {
	switch stat.Kind(r.U8()) {
	case stat.KindU32:
		return stat.U32(r.U32())
	case stat.KindU64:
		return stat.U64(r.U64())
	case stat.KindF32:
		return stat.F32(r.F32())
	default:
		return stat.F64(r.F64())
	}
}

// ---- client to server ----

type CSNewAccount struct {
	Name     string
	Password string
}

func (*CSNewAccount) Opcode() Opcode { return OpCSNewAccount }
func (m *CSNewAccount) encode(w *Writer) {
	w.Str(m.Name)
	w.Str(m.Password)
}
func (m *CSNewAccount) decode(r *Reader) {
	m.Name = r.Str()
	m.Password = r.Str()
}

type CSLoadAccount struct {
	Name     string
	Password string
}

func (*CSLoadAccount) Opcode() Opcode { return OpCSLoadAccount }
func (m *CSLoadAccount) encode(w *Writer) {
	w.Str(m.Name)
	w.Str(m.Password)
}
func (m *CSLoadAccount) decode(r *Reader) {
	m.Name = r.Str()
	m.Password = r.Str()
}

type CSCreatePlayer struct {
	Name  string
	Class string
}

func (*CSCreatePlayer) Opcode() Opcode { return OpCSCreatePlayer }
func (m *CSCreatePlayer) encode(w *Writer) {
	w.Str(m.Name)
	w.Str(m.Class)
}
func (m *CSCreatePlayer) decode(r *Reader) {
	m.Name = r.Str()
	m.Class = r.Str()
}

type CSJoinPlayer struct {
	Character uuid.UUID
}

func (*CSJoinPlayer) Opcode() Opcode     { return OpCSJoinPlayer }
func (m *CSJoinPlayer) encode(w *Writer) { w.UUID(m.Character) }
func (m *CSJoinPlayer) decode(r *Reader) { m.Character = r.UUID() }

// CSMovePlayer asks to move toward Target. The server caps the step by the
// unit's move speed.
type CSMovePlayer struct {
	Target geom.Vec3
}

func (*CSMovePlayer) Opcode() Opcode     { return OpCSMovePlayer }
func (m *CSMovePlayer) encode(w *Writer) { w.Vec3(m.Target) }
func (m *CSMovePlayer) decode(r *Reader) { m.Target = r.Vec3() }

type CSRotPlayer struct {
	Direction geom.Vec3
}

func (*CSRotPlayer) Opcode() Opcode     { return OpCSRotPlayer }
func (m *CSRotPlayer) encode(w *Writer) { w.Vec3(m.Direction) }
func (m *CSRotPlayer) decode(r *Reader) { m.Direction = r.Vec3() }

type CSSkillUse struct {
	Slot   uint8
	Target geom.Vec3
}

func (*CSSkillUse) Opcode() Opcode { return OpCSSkillUse }
func (m *CSSkillUse) encode(w *Writer) {
	w.U8(m.Slot)
	w.Vec3(m.Target)
}
func (m *CSSkillUse) decode(r *Reader) {
	m.Slot = r.U8()
	m.Target = r.Vec3()
}

type CSChatJoin struct {
	Channel string
}

func (*CSChatJoin) Opcode() Opcode     { return OpCSChatJoin }
func (m *CSChatJoin) encode(w *Writer) { w.Str(m.Channel) }
func (m *CSChatJoin) decode(r *Reader) { m.Channel = r.Str() }

type CSChatLeave struct {
	Channel string
}

func (*CSChatLeave) Opcode() Opcode     { return OpCSChatLeave }
func (m *CSChatLeave) encode(w *Writer) { w.Str(m.Channel) }
func (m *CSChatLeave) decode(r *Reader) { m.Channel = r.Str() }

type CSChatChannelMessage struct {
	Channel string
	Text    string
}

func (*CSChatChannelMessage) Opcode() Opcode { return OpCSChatChannelMessage }
func (m *CSChatChannelMessage) encode(w *Writer) {
	w.Str(m.Channel)
	w.Str(m.Text)
}
func (m *CSChatChannelMessage) decode(r *Reader) {
	m.Channel = r.Str()
	m.Text = r.Str()
}

// CSChatScroll walks the sender's scrollback for Channel one line at a time.
type CSChatScroll struct {
	Channel string
	Older   bool
}

func (*CSChatScroll) Opcode() Opcode { return OpCSChatScroll }
func (m *CSChatScroll) encode(w *Writer) {
	w.Str(m.Channel)
	w.Bool(m.Older)
}
func (m *CSChatScroll) decode(r *Reader) {
	m.Channel = r.Str()
	m.Older = r.Bool()
}

type CSLobbyCreate struct {
	Mode uint8
}

func (*CSLobbyCreate) Opcode() Opcode     { return OpCSLobbyCreate }
func (m *CSLobbyCreate) encode(w *Writer) { w.U8(m.Mode) }
func (m *CSLobbyCreate) decode(r *Reader) { m.Mode = r.U8() }

type CSLobbyJoin struct {
	Lobby uint64
}

func (*CSLobbyJoin) Opcode() Opcode     { return OpCSLobbyJoin }
func (m *CSLobbyJoin) encode(w *Writer) { w.U64(m.Lobby) }
func (m *CSLobbyJoin) decode(r *Reader) { m.Lobby = r.U64() }

type CSLobbyLeave struct{}

func (*CSLobbyLeave) Opcode() Opcode { return OpCSLobbyLeave }
func (*CSLobbyLeave) encode(*Writer) {}
func (*CSLobbyLeave) decode(*Reader) {}

type CSLobbyMessage struct {
	Text string
}

func (*CSLobbyMessage) Opcode() Opcode     { return OpCSLobbyMessage }
func (m *CSLobbyMessage) encode(w *Writer) { w.Str(m.Text) }
func (m *CSLobbyMessage) decode(r *Reader) { m.Text = r.Str() }

// ---- server to client ----

type SCHello struct {
	Server string
	Client uint64
}

func (*SCHello) Opcode() Opcode { return OpSCHello }
func (m *SCHello) encode(w *Writer) {
	w.Str(m.Server)
	w.U64(m.Client)
}
func (m *SCHello) decode(r *Reader) {
	m.Server = r.Str()
	m.Client = r.U64()
}

type SCAccountSuccess struct {
	Account    uint64
	Characters []CharacterInfo
}

func (*SCAccountSuccess) Opcode() Opcode { return OpSCAccountSuccess }
func (m *SCAccountSuccess) encode(w *Writer) {
	w.U64(m.Account)
	w.U16(uint16(len(m.Characters)))
	for i := range m.Characters {
		m.Characters[i].encode(w)
	}
}
func (m *SCAccountSuccess) decode(r *Reader) {
	m.Account = r.U64()
	n := int(r.U16())
	m.Characters = nil
	for i := 0; i < n && r.Err() == nil; i++ {
		var c CharacterInfo
		c.decode(r)
		m.Characters = append(m.Characters, c)
	}
}

type SCAccountError struct {
	Reason string
}

func (*SCAccountError) Opcode() Opcode     { return OpSCAccountError }
func (m *SCAccountError) encode(w *Writer) { w.Str(m.Reason) }
func (m *SCAccountError) decode(r *Reader) { m.Reason = r.Str() }

type SCPlayerCreateSuccess struct {
	Character CharacterInfo
}

func (*SCPlayerCreateSuccess) Opcode() Opcode     { return OpSCPlayerCreateSuccess }
func (m *SCPlayerCreateSuccess) encode(w *Writer) { m.Character.encode(w) }
func (m *SCPlayerCreateSuccess) decode(r *Reader) { m.Character.decode(r) }

type SCPlayerCreateError struct {
	Reason string
}

func (*SCPlayerCreateError) Opcode() Opcode     { return OpSCPlayerCreateError }
func (m *SCPlayerCreateError) encode(w *Writer) { w.Str(m.Reason) }
func (m *SCPlayerCreateError) decode(r *Reader) { m.Reason = r.Str() }

type SCPlayerJoinSuccess struct {
	Uid  uint64
	Zone uint32
}

func (*SCPlayerJoinSuccess) Opcode() Opcode { return OpSCPlayerJoinSuccess }
func (m *SCPlayerJoinSuccess) encode(w *Writer) {
	w.U64(m.Uid)
	w.U32(m.Zone)
}
func (m *SCPlayerJoinSuccess) decode(r *Reader) {
	m.Uid = r.U64()
	m.Zone = r.U32()
}

type SCPlayerJoinError struct {
	Reason string
}

func (*SCPlayerJoinError) Opcode() Opcode     { return OpSCPlayerJoinError }
func (m *SCPlayerJoinError) encode(w *Writer) { w.Str(m.Reason) }
func (m *SCPlayerJoinError) decode(r *Reader) { m.Reason = r.Str() }

type SCPlayerSpawn struct {
	Uid       uint64
	Name      string
	Kind      uint8
	Position  geom.Vec3
	Direction geom.Vec3
}

func (*SCPlayerSpawn) Opcode() Opcode { return OpSCPlayerSpawn }
func (m *SCPlayerSpawn) encode(w *Writer) {
	w.U64(m.Uid)
	w.Str(m.Name)
	w.U8(m.Kind)
	w.Vec3(m.Position)
	w.Vec3(m.Direction)
}
func (m *SCPlayerSpawn) decode(r *Reader) {
	m.Uid = r.U64()
	m.Name = r.Str()
	m.Kind = r.U8()
	m.Position = r.Vec3()
	m.Direction = r.Vec3()
}

type SCMovePlayer struct {
	Position geom.Vec3
}

func (*SCMovePlayer) Opcode() Opcode     { return OpSCMovePlayer }
func (m *SCMovePlayer) encode(w *Writer) { w.Vec3(m.Position) }
func (m *SCMovePlayer) decode(r *Reader) { m.Position = r.Vec3() }

type SCRotPlayer struct {
	Direction geom.Vec3
}

func (*SCRotPlayer) Opcode() Opcode     { return OpSCRotPlayer }
func (m *SCRotPlayer) encode(w *Writer) { w.Vec3(m.Direction) }
func (m *SCRotPlayer) decode(r *Reader) { m.Direction = r.Vec3() }

// SCUnitMove tells observers that another unit moved.
type SCUnitMove struct {
	Uid      uint64
	Position geom.Vec3
}

func (*SCUnitMove) Opcode() Opcode { return OpSCUnitMove }
func (m *SCUnitMove) encode(w *Writer) {
	w.U64(m.Uid)
	w.Vec3(m.Position)
}
func (m *SCUnitMove) decode(r *Reader) {
	m.Uid = r.U64()
	m.Position = r.Vec3()
}

type SCStatUpdates struct {
	Uid     uint64
	Updates []unit.StatUpdate
}

func (*SCStatUpdates) Opcode() Opcode { return OpSCStatUpdates }
func (m *SCStatUpdates) encode(w *Writer) {
	w.U64(m.Uid)
	w.U16(uint16(len(m.Updates)))
	for _, u := range m.Updates {
		w.U16(uint16(u.ID))
		writeValue(w, u.Total)
		w.U8(uint8(u.Change))
	}
}
func (m *SCStatUpdates) decode(r *Reader) {
	m.Uid = r.U64()
	n := int(r.U16())
	m.Updates = nil
	for i := 0; i < n && r.Err() == nil; i++ {
		var u unit.StatUpdate
		u.ID = stat.StatID(r.U16())
		u.Total = readValue(r)
		u.Change = unit.Change(r.U8())
		m.Updates = append(m.Updates, u)
	}
}

type SCSkillUseResult struct {
	Slot   uint8
	Result uint8
}

func (*SCSkillUseResult) Opcode() Opcode { return OpSCSkillUseResult }
func (m *SCSkillUseResult) encode(w *Writer) {
	w.U8(m.Slot)
	w.U8(m.Result)
}
func (m *SCSkillUseResult) decode(r *Reader) {
	m.Slot = r.U8()
	m.Result = r.U8()
}

type SCCombatResult struct {
	Attacker uint64
	Defender uint64
	Kind     uint8
	Amount   float32
	Crit     bool
}

func (*SCCombatResult) Opcode() Opcode { return OpSCCombatResult }
func (m *SCCombatResult) encode(w *Writer) {
	w.U64(m.Attacker)
	w.U64(m.Defender)
	w.U8(m.Kind)
	w.F32(m.Amount)
	w.Bool(m.Crit)
}
func (m *SCCombatResult) decode(r *Reader) {
	m.Attacker = r.U64()
	m.Defender = r.U64()
	m.Kind = r.U8()
	m.Amount = r.F32()
	m.Crit = r.Bool()
}

type SCUnitDespawn struct {
	Uid uint64
}

func (*SCUnitDespawn) Opcode() Opcode     { return OpSCUnitDespawn }
func (m *SCUnitDespawn) encode(w *Writer) { w.U64(m.Uid) }
func (m *SCUnitDespawn) decode(r *Reader) { m.Uid = r.U64() }

type SCChatJoinSuccess struct {
	Channel string
}

func (*SCChatJoinSuccess) Opcode() Opcode     { return OpSCChatJoinSuccess }
func (m *SCChatJoinSuccess) encode(w *Writer) { w.Str(m.Channel) }
func (m *SCChatJoinSuccess) decode(r *Reader) { m.Channel = r.Str() }

type SCChatJoinError struct {
	Channel string
	Reason  string
}

func (*SCChatJoinError) Opcode() Opcode { return OpSCChatJoinError }
func (m *SCChatJoinError) encode(w *Writer) {
	w.Str(m.Channel)
	w.Str(m.Reason)
}
func (m *SCChatJoinError) decode(r *Reader) {
	m.Channel = r.Str()
	m.Reason = r.Str()
}

type SCChatMessage struct {
	Message ChatLine
}

func (*SCChatMessage) Opcode() Opcode     { return OpSCChatMessage }
func (m *SCChatMessage) encode(w *Writer) { m.Message.encode(w) }
func (m *SCChatMessage) decode(r *Reader) { m.Message.decode(r) }

type SCLobbyCreateSuccess struct {
	Lobby LobbyInfo
}

func (*SCLobbyCreateSuccess) Opcode() Opcode     { return OpSCLobbyCreateSuccess }
func (m *SCLobbyCreateSuccess) encode(w *Writer) { m.Lobby.encode(w) }
func (m *SCLobbyCreateSuccess) decode(r *Reader) { m.Lobby.decode(r) }

type SCLobbyCreateError struct {
	Reason string
}

func (*SCLobbyCreateError) Opcode() Opcode     { return OpSCLobbyCreateError }
func (m *SCLobbyCreateError) encode(w *Writer) { w.Str(m.Reason) }
func (m *SCLobbyCreateError) decode(r *Reader) { m.Reason = r.Str() }

type SCLobbyJoinSuccess struct {
	Lobby LobbyInfo
}

func (*SCLobbyJoinSuccess) Opcode() Opcode     { return OpSCLobbyJoinSuccess }
func (m *SCLobbyJoinSuccess) encode(w *Writer) { m.Lobby.encode(w) }
func (m *SCLobbyJoinSuccess) decode(r *Reader) { m.Lobby.decode(r) }

type SCLobbyJoinError struct {
	Reason string
}

func (*SCLobbyJoinError) Opcode() Opcode     { return OpSCLobbyJoinError }
func (m *SCLobbyJoinError) encode(w *Writer) { w.Str(m.Reason) }
func (m *SCLobbyJoinError) decode(r *Reader) { m.Reason = r.Str() }

type SCLobbyLeaveSuccess struct{}

func (*SCLobbyLeaveSuccess) Opcode() Opcode { return OpSCLobbyLeaveSuccess }
func (*SCLobbyLeaveSuccess) encode(*Writer) {}
func (*SCLobbyLeaveSuccess) decode(*Reader) {}

type SCLobbyMessage struct {
	Message LobbyLine
}

func (*SCLobbyMessage) Opcode() Opcode     { return OpSCLobbyMessage }
func (m *SCLobbyMessage) encode(w *Writer) { m.Message.encode(w) }
func (m *SCLobbyMessage) decode(r *Reader) { m.Message.decode(r) }

type SCZoneLoad struct {
	Zone uint32
}

func (*SCZoneLoad) Opcode() Opcode     { return OpSCZoneLoad }
func (m *SCZoneLoad) encode(w *Writer) { w.U32(m.Zone) }
func (m *SCZoneLoad) decode(r *Reader) { m.Zone = r.U32() }
