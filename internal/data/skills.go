package data

import (
	"fmt"
	"time"

	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/skill"
	"github.com/emberfall/server/internal/unit"
)

// SkillTable holds skill definitions. It is the skill engine's catalog.
type SkillTable struct {
	skills map[unit.SkillID]*skill.Skill
}

var _ skill.Catalog = (*SkillTable)(nil)

func (t *SkillTable) Skill(id unit.SkillID) (*skill.Skill, bool) {
	s, ok := t.skills[id]
	return s, ok
}

func (t *SkillTable) Count() int {
	return len(t.skills)
}

// --- YAML loading ---

type skillEntry struct {
	ID       unit.SkillID  `yaml:"id"`
	Name     string        `yaml:"name"`
	Level    uint32        `yaml:"level"`
	Cost     skill.Cost    `yaml:"cost"`
	UseRange float32       `yaml:"use_range"`
	Cooldown time.Duration `yaml:"cooldown"`
	Damage   struct {
		Kind string  `yaml:"kind"`
		Min  float32 `yaml:"min"`
		Max  float32 `yaml:"max"`
	} `yaml:"damage"`
	Origin struct {
		Kind   string    `yaml:"kind"`
		Offset geom.Vec3 `yaml:"offset"`
	} `yaml:"origin"`
	Direct *struct {
		Frames   uint16  `yaml:"frames"`
		HitFrame uint16  `yaml:"hit_frame"`
		Radius   float32 `yaml:"radius"`
	} `yaml:"direct"`
	Projectile *struct {
		Speed float32 `yaml:"speed"`
		Size  float32 `yaml:"size"`
		Range float32 `yaml:"range"`
		Orbit *struct {
			Radius   float32       `yaml:"radius"`
			Duration time.Duration `yaml:"duration"`
		} `yaml:"orbit"`
	} `yaml:"projectile"`
	Area *struct {
		Radius   float32       `yaml:"radius"`
		Duration time.Duration `yaml:"duration"`
		TickRate time.Duration `yaml:"tick_rate"`
	} `yaml:"area"`
	Effects []effectEntry `yaml:"effects"`
}

// effectEntry sets exactly one of its fields.
type effectEntry struct {
	Pierce *struct {
		Count uint16 `yaml:"count"`
	} `yaml:"pierce"`
	Chain *struct {
		Count uint16  `yaml:"count"`
		Range float32 `yaml:"range"`
	} `yaml:"chain"`
	Split *struct {
		Count  uint16  `yaml:"count"`
		Spread float32 `yaml:"spread"`
	} `yaml:"split"`
	Dot *struct {
		Frequency time.Duration `yaml:"frequency"`
		Ticks     uint16        `yaml:"ticks"`
		Kind      string        `yaml:"kind"`
		Amount    float32       `yaml:"amount"`
	} `yaml:"dot"`
	Knockback *struct {
		Speed    float32       `yaml:"speed"`
		Duration time.Duration `yaml:"duration"`
	} `yaml:"knockback"`
}

type skillListFile struct {
	Skills []skillEntry `yaml:"skills"`
}

func loadSkillTable(src source) (*SkillTable, error) {
	var f skillListFile
	if err := src.decode("skills.yaml", &f); err != nil {
		return nil, err
	}
	t := &SkillTable{skills: make(map[unit.SkillID]*skill.Skill, len(f.Skills))}
	for _, e := range f.Skills {
		if e.ID == 0 {
			return nil, fmt.Errorf("skills: skill %q: id 0 is reserved for empty slots", e.Name)
		}
		if _, dup := t.skills[e.ID]; dup {
			return nil, fmt.Errorf("skills: duplicate id %d", e.ID)
		}
		sk, err := e.build()
		if err != nil {
			return nil, fmt.Errorf("skills: skill %q: %w", e.Name, err)
		}
		t.skills[e.ID] = sk
	}
	return t, nil
}

func (e *skillEntry) build() (*skill.Skill, error) {
	kind, err := combat.ParseDamageKind(e.Damage.Kind)
	if err != nil {
		return nil, err
	}
	if e.Damage.Max < e.Damage.Min {
		return nil, fmt.Errorf("damage max %v below min %v", e.Damage.Max, e.Damage.Min)
	}
	origin, err := skill.ParseOriginKind(e.Origin.Kind)
	if err != nil {
		return nil, err
	}
	info, err := e.info()
	if err != nil {
		return nil, err
	}
	sk := &skill.Skill{
		ID:       e.ID,
		Name:     e.Name,
		Level:    e.Level,
		Cost:     e.Cost,
		UseRange: e.UseRange,
		Cooldown: e.Cooldown,
		Damage:   skill.DamageRange{Kind: kind, Min: e.Damage.Min, Max: e.Damage.Max},
		Info:     info,
		Origin:   skill.Origin{Kind: origin, Offset: e.Origin.Offset},
	}
	for i, ef := range e.Effects {
		ei, err := ef.info()
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		sk.Effects = append(sk.Effects, ei)
	}
	return sk, nil
}

func (e *skillEntry) info() (skill.Info, error) {
	var (
		info skill.Info
		n    int
	)
	if d := e.Direct; d != nil {
		n++
		if d.HitFrame == 0 || d.HitFrame > d.Frames {
			return nil, fmt.Errorf("direct hit_frame %d outside 1..%d", d.HitFrame, d.Frames)
		}
		info = skill.DirectInfo{Frames: d.Frames, HitFrame: d.HitFrame, Radius: d.Radius}
	}
	if p := e.Projectile; p != nil {
		n++
		pi := skill.ProjectileInfo{Speed: p.Speed, Size: p.Size, Range: p.Range}
		if p.Orbit != nil {
			pi.Orbit = &skill.OrbitInfo{Radius: p.Orbit.Radius, Duration: p.Orbit.Duration}
		}
		info = pi
	}
	if a := e.Area; a != nil {
		n++
		if a.TickRate <= 0 {
			return nil, fmt.Errorf("area tick_rate must be positive")
		}
		info = skill.AreaInfo{Radius: a.Radius, Duration: a.Duration, TickRate: a.TickRate}
	}
	if n != 1 {
		return nil, fmt.Errorf("exactly one of direct, projectile or area is required, got %d", n)
	}
	return info, nil
}

func (e *effectEntry) info() (skill.EffectInfo, error) {
	var (
		info skill.EffectInfo
		n    int
	)
	if p := e.Pierce; p != nil {
		n++
		info = skill.PierceInfo{Count: p.Count}
	}
	if c := e.Chain; c != nil {
		n++
		info = skill.ChainInfo{Count: c.Count, Range: c.Range}
	}
	if s := e.Split; s != nil {
		n++
		info = skill.SplitInfo{Count: s.Count, Spread: s.Spread}
	}
	if d := e.Dot; d != nil {
		n++
		kind, err := combat.ParseDamageKind(d.Kind)
		if err != nil {
			return nil, err
		}
		if d.Frequency <= 0 {
			return nil, fmt.Errorf("dot frequency must be positive")
		}
		info = skill.DotInfo{
			Frequency: d.Frequency,
			Ticks:     d.Ticks,
			Damage:    combat.Damage{Kind: kind, Amount: d.Amount},
		}
	}
	if k := e.Knockback; k != nil {
		n++
		info = skill.KnockbackInfo{Speed: k.Speed, Duration: k.Duration}
	}
	if n != 1 {
		return nil, fmt.Errorf("an effect sets exactly one kind, got %d", n)
	}
	return info, nil
}
