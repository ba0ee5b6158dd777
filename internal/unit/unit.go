package unit

import (
	"errors"
	"fmt"
	"time"

	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/stat"
)

// Uid is a globally unique unit identifier.
type Uid uint64

// NextUid hands out unit ids in increasing order. The counter is persisted in
// server metadata so ids stay unique across restarts. Uid 0 means "no unit"
// and is never handed out.
type NextUid struct {
	next uint64
}

func NewNextUid(seed uint64) *NextUid {
	return &NextUid{next: max(seed, 1)}
}

func (n *NextUid) Next() Uid {
	id := Uid(n.next)
	n.next++
	return id
}

// Peek returns the value the next call to Next would hand out.
func (n *NextUid) Peek() uint64 { return n.next }

type Kind uint8

const (
	Hero Kind = iota
	Villain
)

func (k Kind) String() string {
	if k == Hero {
		return "hero"
	}
	return "villain"
}

// Hostile reports whether units of kind k and o fight each other.
func (k Kind) Hostile(o Kind) bool { return k != o }

type State uint8

const (
	Alive State = iota
	Corpse
)

// SkillID identifies a skill definition. Zero marks an empty slot.
type SkillID uint32

type SkillSlot uint8

const (
	SlotPrimary SkillSlot = iota
	SlotSecondary
	numSlots
)

func (s SkillSlot) Valid() bool { return s < numSlots }

var ErrUnknownStat = errors.New("unknown stat")

// Vitals are the three spendable resources. Their ids match the stat that caps them.
type Vitals struct {
	HP stat.Stat `json:"hp"`
	EP stat.Stat `json:"ep"`
	MP stat.Stat `json:"mp"`
}

// Unit is a simulated hero or villain. It is owned by the world arena and
// mutated only from the game loop.
type Unit struct {
	Uid       Uid                        `json:"uid"`
	Name      string                     `json:"name"`
	Kind      Kind                       `json:"kind"`
	Class     string                     `json:"class"`
	Level     uint32                     `json:"level"`
	XP        uint64                     `json:"xp"`
	State     State                      `json:"state"`
	Stats     map[stat.StatID]*StatEntry `json:"stats"`
	Vitals    Vitals                     `json:"vitals"`
	Skills    [numSlots]SkillID          `json:"skills"`
	Cooldowns map[SkillID]time.Duration  `json:"cooldowns,omitempty"`
	Zone      uint32                     `json:"zone"`
	Position  geom.Vec3                  `json:"position"`
	Direction geom.Vec3                  `json:"direction"`
	Equipment map[ItemSlot]*Item         `json:"equipment,omitempty"`

	DeathTimer time.Duration `json:"-"`
	Dirty      bool          `json:"-"`
}

// New builds a unit from class base values with full vitals.
func New(uid Uid, name string, kind Kind, class string, level uint32, base map[stat.StatID]stat.Value) *Unit {
	u := &Unit{
		Uid:       uid,
		Name:      name,
		Kind:      kind,
		Class:     class,
		Level:     level,
		Stats:     make(map[stat.StatID]*StatEntry, len(base)),
		Direction: geom.Forward,
	}
	for id, v := range base {
		u.Stats[id] = NewStatEntry(v)
	}
	u.Vitals.HP = stat.Stat{ID: StatHealth, Value: u.StatValue(StatHealth)}
	u.Vitals.EP = stat.Stat{ID: StatEnergy, Value: u.StatValue(StatEnergy)}
	u.Vitals.MP = stat.Stat{ID: StatMana, Value: u.StatValue(StatMana)}
	return u
}

func (u *Unit) IsCorpse() bool { return u.State == Corpse }
func (u *Unit) IsHero() bool   { return u.Kind == Hero }

// StatValue returns the resultant value of id, or a zero f32 when the unit
// does not carry that stat.
func (u *Unit) StatValue(id stat.StatID) stat.Value {
	e, ok := u.Stats[id]
	if !ok {
		return stat.Zero(stat.KindF32)
	}
	return e.Value()
}

// StatF is StatValue widened to float64.
func (u *Unit) StatF(id stat.StatID) float64 { return u.StatValue(id).Float64() }

// StatList returns the modifier list of id.
func (u *Unit) StatList(id stat.StatID) (*stat.StatList, bool) {
	e, ok := u.Stats[id]
	if !ok {
		return nil, false
	}
	return e.List, true
}

// AddModifier registers m on its stat and recomputes the stat's sums.
func (u *Unit) AddModifier(m stat.Modifier) error {
	e, ok := u.Stats[m.Stat]
	if !ok {
		return fmt.Errorf("add modifier %d: %w %d", m.ID, ErrUnknownStat, m.Stat)
	}
	if err := e.List.Add(m); err != nil {
		return err
	}
	e.List.ComputeSum()
	u.Dirty = true
	return nil
}

// RemoveModifier unregisters modifier id from stat and recomputes.
func (u *Unit) RemoveModifier(id stat.StatID, mod stat.ModifierID) bool {
	e, ok := u.Stats[id]
	if !ok || !e.List.Remove(mod) {
		return false
	}
	e.List.ComputeSum()
	u.Dirty = true
	return true
}

// Skill returns the skill in slot, zero when empty.
func (u *Unit) Skill(slot SkillSlot) SkillID {
	if !slot.Valid() {
		return 0
	}
	return u.Skills[slot]
}

func (u *Unit) SetSkill(slot SkillSlot, id SkillID) {
	if slot.Valid() {
		u.Skills[slot] = id
	}
}

func (u *Unit) OnCooldown(id SkillID) bool {
	return u.Cooldowns[id] > 0
}

func (u *Unit) StartCooldown(id SkillID, d time.Duration) {
	if d <= 0 {
		return
	}
	if u.Cooldowns == nil {
		u.Cooldowns = make(map[SkillID]time.Duration)
	}
	u.Cooldowns[id] = d
}

// TickCooldowns advances every running cooldown by dt.
func (u *Unit) TickCooldowns(dt time.Duration) {
	for id, left := range u.Cooldowns {
		left -= dt
		if left <= 0 {
			delete(u.Cooldowns, id)
			continue
		}
		u.Cooldowns[id] = left
	}
}

// Spend subtracts cost from the vitals. Callers validate affordability first.
func (u *Unit) Spend(hp, ep, mp float64) {
	u.Vitals.HP.Value = sub(u.Vitals.HP.Value, hp)
	u.Vitals.EP.Value = sub(u.Vitals.EP.Value, ep)
	u.Vitals.MP.Value = sub(u.Vitals.MP.Value, mp)
}

func sub(v stat.Value, amount float64) stat.Value {
	if amount == 0 {
		return v
	}
	return stat.FromFloat(v.Kind(), max(v.Float64()-amount, 0))
}

// TakeDamage lowers hp by amount and reports whether the unit dropped to zero.
func (u *Unit) TakeDamage(amount float64) bool {
	u.Vitals.HP.Value = sub(u.Vitals.HP.Value, amount)
	u.Dirty = true
	return u.Vitals.HP.Value.Float64() <= 0
}

// Kill turns the unit into a corpse that is despawned once timer runs out.
func (u *Unit) Kill(timer time.Duration) {
	u.State = Corpse
	u.Vitals.HP.Value = stat.Zero(u.Vitals.HP.Value.Kind())
	u.DeathTimer = timer
	u.Cooldowns = nil
}

// TickDeath advances the corpse timer and reports whether it expired.
func (u *Unit) TickDeath(dt time.Duration) bool {
	if u.State != Corpse {
		return false
	}
	u.DeathTimer -= dt
	return u.DeathTimer <= 0
}

// Revive turns a corpse back into a living unit with full vitals.
func (u *Unit) Revive() {
	u.State = Alive
	u.DeathTimer = 0
	u.Refill()
	u.Dirty = true
}

// LevelCurve returns the total xp needed to reach a level; zero means the
// level is not reachable.
type LevelCurve interface {
	XPForLevel(level uint32) uint64
}

// GrantXP adds xp and applies any level-ups, returning how many levels were gained.
func (u *Unit) GrantXP(xp uint64, curve LevelCurve) int {
	u.XP += xp
	gained := 0
	for {
		need := curve.XPForLevel(u.Level + 1)
		if need == 0 || u.XP < need {
			break
		}
		u.Level++
		gained++
	}
	if xp > 0 {
		u.Dirty = true
	}
	return gained
}
