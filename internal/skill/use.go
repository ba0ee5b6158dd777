package skill

import (
	"fmt"
	"time"

	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/unit"
)

type UseResult uint8

const (
	UseOk UseResult = iota
	UseBlocked
	UseInsufficientResources
	UseOutOfRange
)

func (r UseResult) String() string {
	switch r {
	case UseOk:
		return "ok"
	case UseBlocked:
		return "blocked"
	case UseInsufficientResources:
		return "insufficient_resources"
	case UseOutOfRange:
		return "out_of_range"
	default:
		return fmt.Sprintf("UseResult(%d)", uint8(r))
	}
}

// Validate checks a use request without touching the unit. Checks run in a
// fixed order and the first failure wins: slot occupied, resources, range,
// cooldown. Corpses are always blocked.
func Validate(u *unit.Unit, slot unit.SkillSlot, target geom.Vec3, catalog Catalog) (UseResult, *Skill) {
	if u.IsCorpse() {
		return UseBlocked, nil
	}
	id := u.Skill(slot)
	if id == 0 {
		return UseBlocked, nil
	}
	sk, ok := catalog.Skill(id)
	if !ok {
		return UseBlocked, nil
	}
	if !u.CanAfford(float64(sk.Cost.HP), float64(sk.Cost.EP), float64(sk.Cost.MP)) {
		return UseInsufficientResources, sk
	}
	if u.Position.Dist(target) > sk.UseRange {
		return UseOutOfRange, sk
	}
	if u.OnCooldown(sk.ID) {
		return UseBlocked, sk
	}
	return UseOk, sk
}

// Instance is the runtime counterpart of Info.
type Instance interface {
	skillInstance()
}

type DirectInstance struct {
	Info  DirectInfo
	Frame uint16
}

type ProjectileInstance struct {
	Info     ProjectileInfo
	Position geom.Vec3
	Heading  geom.Vec3
	Traveled float32
	Angle    float64
	Elapsed  time.Duration
}

type AreaInstance struct {
	Info    AreaInfo
	Elapsed time.Duration
}

func (*DirectInstance) skillInstance()     {}
func (*ProjectileInstance) skillInstance() {}
func (*AreaInstance) skillInstance()       {}

func newInstance(info Info, anchor, aim geom.Vec3) Instance {
	switch i := info.(type) {
	case DirectInfo:
		return &DirectInstance{Info: i}
	case ProjectileInfo:
		heading := aim.Sub(anchor).Flat().Normalize()
		if heading.IsZero() {
			heading = geom.Forward
		}
		return &ProjectileInstance{Info: i, Position: anchor, Heading: heading}
	case AreaInfo:
		return &AreaInstance{Info: i}
	}
	panic(fmt.Sprintf("skill: unknown skill info %T", info))
}

// UseID identifies an active skill use.
type UseID uint64

// SkillUse is one active cast. It is destroyed when its duration runs out,
// when effect resolution ends it, or when its owner despawns.
type SkillUse struct {
	ID        UseID
	Owner     unit.Uid
	OwnerKind unit.Kind
	Zone      uint32
	Skill     *Skill
	Damage    combat.Damage
	Instance  Instance
	Effects   []EffectInstance
	Tickable  *Tickable

	// Anchor is fixed at cast for Remote and Locked origins; Direct origins
	// recompute it from the owner every step.
	Anchor geom.Vec3
	Aim    geom.Vec3

	touched map[unit.Uid]struct{}
}

func (u *SkillUse) Touched(uid unit.Uid) bool {
	_, ok := u.touched[uid]
	return ok
}

func (u *SkillUse) touch(uid unit.Uid) {
	u.touched[uid] = struct{}{}
}

// effect returns the first effect instance carrying data of type T.
func effect[T EffectData](u *SkillUse) (T, bool) {
	for _, e := range u.Effects {
		if d, ok := e.Data.(T); ok {
			return d, true
		}
	}
	var zero T
	return zero, false
}
