package skill

import (
	"fmt"
	"time"

	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/unit"
)

// Cost is paid from the caster's vitals when a use is accepted.
type Cost struct {
	HP float32
	EP float32
	MP float32
}

// DamageRange is the damage descriptor of a skill; the rolled amount lies in [Min, Max].
type DamageRange struct {
	Kind combat.DamageKind
	Min  float32
	Max  float32
}

// Info describes how a skill travels once cast.
type Info interface {
	skillInfo()
}

// DirectInfo lands once at HitFrame and lasts Frames steps.
type DirectInfo struct {
	Frames   uint16
	HitFrame uint16
	Radius   float32
}

// OrbitInfo makes a projectile circle its owner instead of flying straight.
type OrbitInfo struct {
	Radius   float32
	Duration time.Duration
}

type ProjectileInfo struct {
	Speed float32
	Size  float32
	Range float32
	Orbit *OrbitInfo
}

type AreaInfo struct {
	Radius   float32
	Duration time.Duration
	TickRate time.Duration
}

func (DirectInfo) skillInfo()     {}
func (ProjectileInfo) skillInfo() {}
func (AreaInfo) skillInfo()       {}

type OriginKind uint8

const (
	OriginDirect OriginKind = iota
	OriginRemote
	OriginLocked
)

func (k OriginKind) String() string {
	switch k {
	case OriginDirect:
		return "direct"
	case OriginRemote:
		return "remote"
	case OriginLocked:
		return "locked"
	default:
		return fmt.Sprintf("OriginKind(%d)", uint8(k))
	}
}

func ParseOriginKind(s string) (OriginKind, error) {
	for k := OriginDirect; k <= OriginLocked; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown origin %q", s)
}

// Origin places a skill relative to its caster.
type Origin struct {
	Kind   OriginKind
	Offset geom.Vec3
}

// Anchor returns the cast point. Direct origins scale the offset by the
// owner's forward vector; Remote and Locked add it to the owner position.
func (o Origin) Anchor(ownerPos, forward geom.Vec3) geom.Vec3 {
	if o.Kind == OriginDirect {
		return ownerPos.Add(o.Offset.Mul(forward))
	}
	return ownerPos.Add(o.Offset)
}

// Skill is an immutable skill definition.
type Skill struct {
	ID       unit.SkillID
	Name     string
	Level    uint32
	Cost     Cost
	UseRange float32
	Cooldown time.Duration
	Damage   DamageRange
	Info     Info
	Origin   Origin
	Effects  []EffectInfo
}

// Catalog resolves skill definitions loaded from metadata.
type Catalog interface {
	Skill(id unit.SkillID) (*Skill, bool)
}
