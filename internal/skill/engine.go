package skill

import (
	"math"
	"time"

	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/unit"
	"go.uber.org/zap"
)

// World is the view of the unit arena the engine needs.
type World interface {
	Unit(uid unit.Uid) (*unit.Unit, bool)
	// UnitsWithin calls fn for every living unit of zone within radius of center.
	UnitsWithin(zone uint32, center geom.Vec3, radius float32, fn func(*unit.Unit))
	// Displace moves u to pos, clamped by zone geometry.
	Displace(u *unit.Unit, pos geom.Vec3)
}

// Sink receives the outcomes of skill resolution.
type Sink interface {
	Hit(use UseID, attacker, defender *unit.Unit, res combat.Result)
	Moved(u *unit.Unit)
}

// Affliction is an effect attached to a unit after a hit: a dot or a knockback.
type Affliction struct {
	Owner  unit.Uid
	Target unit.Uid
	Use    UseID
	Effect EffectInstance
	Dir    geom.Vec3
}

// Engine owns every active skill use and affliction. Game loop only.
type Engine struct {
	world    World
	catalog  Catalog
	resolver *combat.Resolver
	rand     combat.Rand
	sink     Sink
	log      *zap.Logger

	uses        []*SkillUse
	afflictions []*Affliction
	nextID      UseID
}

func NewEngine(world World, catalog Catalog, resolver *combat.Resolver, rnd combat.Rand, sink Sink, log *zap.Logger) *Engine {
	return &Engine{
		world:    world,
		catalog:  catalog,
		resolver: resolver,
		rand:     rnd,
		sink:     sink,
		log:      log,
	}
}

func (e *Engine) Uses() []*SkillUse          { return e.uses }
func (e *Engine) Afflictions() []*Affliction { return e.afflictions }

// Use validates the request and, when it passes, pays the cost, starts the
// cooldown and creates the runtime skill use.
func (e *Engine) Use(owner *unit.Unit, slot unit.SkillSlot, target geom.Vec3) (UseResult, *SkillUse) {
	res, sk := Validate(owner, slot, target, e.catalog)
	if res != UseOk {
		return res, nil
	}
	owner.Spend(float64(sk.Cost.HP), float64(sk.Cost.EP), float64(sk.Cost.MP))
	owner.StartCooldown(sk.ID, sk.Cooldown)

	anchor := sk.Origin.Anchor(owner.Position, owner.Direction)
	aim := target
	if sk.Origin.Kind == OriginLocked {
		aim = anchor
	}

	e.nextID++
	use := &SkillUse{
		ID:        e.nextID,
		Owner:     owner.Uid,
		OwnerKind: owner.Kind,
		Zone:      owner.Zone,
		Skill:     sk,
		Damage:    e.rollDamage(owner, sk.Damage),
		Instance:  newInstance(sk.Info, anchor, aim),
		Anchor:    anchor,
		Aim:       aim,
		touched:   make(map[unit.Uid]struct{}),
	}
	for _, info := range sk.Effects {
		use.Effects = append(use.Effects, NewEffectInstance(info))
	}
	if area, ok := sk.Info.(AreaInfo); ok {
		use.Tickable = NewTickable(area.TickRate, true)
	}
	e.uses = append(e.uses, use)

	e.log.Debug("skill use started",
		zap.Uint64("use", uint64(use.ID)),
		zap.Uint64("owner", uint64(owner.Uid)),
		zap.Uint32("skill", uint32(sk.ID)),
	)
	return UseOk, use
}

func (e *Engine) rollDamage(owner *unit.Unit, d DamageRange) combat.Damage {
	amount := d.Min
	if d.Max > d.Min {
		amount += float32(e.rand.Float64()) * (d.Max - d.Min)
	}
	amount += float32(owner.StatF(unit.StatDamage))
	return combat.Damage{Kind: d.Kind, Amount: amount}
}

// CancelOwner destroys every use and affliction owned by uid without
// resolving them, and drops afflictions on uid itself. Returns how many uses
// were cancelled.
func (e *Engine) CancelOwner(uid unit.Uid) int {
	n := 0
	live := e.uses[:0]
	for _, u := range e.uses {
		if u.Owner == uid {
			n++
			continue
		}
		live = append(live, u)
	}
	clear(e.uses[len(live):])
	e.uses = live

	kept := e.afflictions[:0]
	for _, a := range e.afflictions {
		if a.Owner != uid && a.Target != uid {
			kept = append(kept, a)
		}
	}
	clear(e.afflictions[len(kept):])
	e.afflictions = kept
	return n
}

// Step advances afflictions and then every active use by dt.
func (e *Engine) Step(dt time.Duration) {
	e.stepAfflictions(dt)

	current := e.uses
	e.uses = make([]*SkillUse, 0, len(current))
	for _, use := range current {
		if e.stepUse(use, dt) {
			e.uses = append(e.uses, use)
		}
	}
}

func (e *Engine) stepUse(use *SkillUse, dt time.Duration) bool {
	owner, ok := e.world.Unit(use.Owner)
	if !ok {
		return false
	}
	if use.Skill.Origin.Kind == OriginDirect {
		use.Anchor = use.Skill.Origin.Anchor(owner.Position, owner.Direction)
	}

	switch inst := use.Instance.(type) {
	case *DirectInstance:
		inst.Frame++
		if inst.Frame == inst.Info.HitFrame {
			e.hitAll(use, owner, use.Anchor, inst.Info.Radius)
		}
		return inst.Frame < inst.Info.Frames
	case *ProjectileInstance:
		return e.stepProjectile(use, owner, inst, dt)
	case *AreaInstance:
		center := use.Anchor
		if use.Skill.Origin.Kind == OriginRemote {
			center = use.Aim
		}
		use.Tickable.Advance(dt)
		if use.Tickable.Consume() {
			e.hitAll(use, owner, center, inst.Info.Radius)
		}
		inst.Elapsed += dt
		return inst.Elapsed < inst.Info.Duration
	}
	return false
}

// hitAll strikes every hostile within radius once. Used for direct hits and
// area ticks; area ticks may strike the same unit again on later ticks.
func (e *Engine) hitAll(use *SkillUse, owner *unit.Unit, center geom.Vec3, radius float32) {
	var targets []*unit.Unit
	e.world.UnitsWithin(use.Zone, center, radius, func(t *unit.Unit) {
		if use.OwnerKind.Hostile(t.Kind) {
			targets = append(targets, t)
		}
	})
	for _, t := range targets {
		e.connect(use, owner, t, center)
	}
}

func (e *Engine) stepProjectile(use *SkillUse, owner *unit.Unit, p *ProjectileInstance, dt time.Duration) bool {
	secs := float32(dt.Seconds())
	if orbit := p.Info.Orbit; orbit != nil {
		if orbit.Radius > 0 {
			p.Angle += float64(p.Info.Speed/orbit.Radius) * float64(secs)
		}
		s, c := math.Sincos(p.Angle)
		p.Position = owner.Position.Add(geom.V(orbit.Radius*float32(c), 0, orbit.Radius*float32(s)))
		p.Elapsed += dt
		if t := e.nearestUntouched(use, p.Position, p.Info.Size); t != nil {
			e.connect(use, owner, t, p.Position)
		}
		return p.Elapsed < orbit.Duration
	}

	step := p.Info.Speed * secs
	p.Position = p.Position.Add(p.Heading.Scale(step))
	p.Traveled += step
	if t := e.nearestUntouched(use, p.Position, p.Info.Size); t != nil {
		if !e.connect(use, owner, t, p.Position) {
			return false
		}
	}
	return p.Traveled < p.Info.Range
}

func (e *Engine) nearestUntouched(use *SkillUse, center geom.Vec3, radius float32) *unit.Unit {
	var best *unit.Unit
	bestDist := float32(math.MaxFloat32)
	e.world.UnitsWithin(use.Zone, center, radius, func(t *unit.Unit) {
		if !use.OwnerKind.Hostile(t.Kind) || use.Touched(t.Uid) {
			return
		}
		if d := center.Dist(t.Position); best == nil || d < bestDist || (d == bestDist && t.Uid < best.Uid) {
			best, bestDist = t, d
		}
	})
	return best
}

// connect resolves a hit on target and applies effects. For projectiles the
// return value tells whether the instance keeps flying: split runs first,
// then chain, then pierce.
func (e *Engine) connect(use *SkillUse, owner, target *unit.Unit, at geom.Vec3) bool {
	use.touch(target.Uid)
	res := e.resolver.Resolve(owner, target, use.Damage)
	e.sink.Hit(use.ID, owner, target, res)

	if res.Landed() && !res.Killed() {
		e.afflict(use, target, at)
	}

	p, ok := use.Instance.(*ProjectileInstance)
	if !ok {
		return true
	}
	if split, ok := effect[*SplitData](use); ok && !split.Done {
		split.Done = true
		e.split(use, p)
	}
	if chain, ok := effect[*ChainData](use); ok && !chain.Counter.Exhausted() {
		info := chainInfo(use)
		if next := e.nearestUntouched(use, target.Position, info.Range); next != nil {
			_ = chain.Counter.Increment()
			p.Heading = next.Position.Sub(p.Position).Flat().Normalize()
			p.Traveled = 0
			return true
		}
	}
	if pierce, ok := effect[*PierceData](use); ok {
		if err := pierce.Counter.Increment(); err == nil {
			return true
		}
	}
	return false
}

func chainInfo(use *SkillUse) ChainInfo {
	for _, ef := range use.Effects {
		if c, ok := ef.Info.(ChainInfo); ok {
			return c
		}
	}
	return ChainInfo{}
}

func (e *Engine) afflict(use *SkillUse, target *unit.Unit, at geom.Vec3) {
	for _, ef := range use.Effects {
		switch ef.Info.(type) {
		case DotInfo, KnockbackInfo:
		default:
			continue
		}
		dir := target.Position.Sub(at).Flat().Normalize()
		if dir.IsZero() {
			dir = use.Aim.Sub(use.Anchor).Flat().Normalize()
		}
		e.afflictions = append(e.afflictions, &Affliction{
			Owner:  use.Owner,
			Target: target.Uid,
			Use:    use.ID,
			Effect: NewEffectInstance(ef.Info),
			Dir:    dir,
		})
	}
}

// split fans out Count children from the projectile's current position. Each
// child receives b/(N+1) of every remaining pierce and chain budget b; the
// parent keeps the rest. Children do not split again.
func (e *Engine) split(parent *SkillUse, p *ProjectileInstance) {
	var info SplitInfo
	for _, ef := range parent.Effects {
		if s, ok := ef.Info.(SplitInfo); ok {
			info = s
		}
	}
	n := info.Count
	if n == 0 {
		return
	}

	shares := make(map[int]uint16)
	for i, ef := range parent.Effects {
		var c *EffectCounter
		switch d := ef.Data.(type) {
		case *PierceData:
			c = &d.Counter
		case *ChainData:
			c = &d.Counter
		default:
			continue
		}
		share := c.Remaining() / (n + 1)
		shares[i] = share
		c.Max -= share * n
	}

	for k := uint16(0); k < n; k++ {
		angle := float64(info.Spread) * (float64(k+1)/float64(n+1) - 0.5)
		if angle == 0 {
			angle = float64(info.Spread) / 2
		}
		e.nextID++
		child := &SkillUse{
			ID:        e.nextID,
			Owner:     parent.Owner,
			OwnerKind: parent.OwnerKind,
			Zone:      parent.Zone,
			Skill:     parent.Skill,
			Damage:    parent.Damage,
			Instance: &ProjectileInstance{
				Info:     p.Info,
				Position: p.Position,
				Heading:  p.Heading.RotateY(angle),
				Traveled: p.Traveled,
			},
			Anchor:  parent.Anchor,
			Aim:     parent.Aim,
			touched: make(map[unit.Uid]struct{}, len(parent.touched)),
		}
		for uid := range parent.touched {
			child.touched[uid] = struct{}{}
		}
		for i, ef := range parent.Effects {
			c := ef.clone()
			switch d := c.Data.(type) {
			case *PierceData:
				d.Counter = EffectCounter{Max: shares[i]}
			case *ChainData:
				d.Counter = EffectCounter{Max: shares[i]}
			case *SplitData:
				d.Done = true
			}
			child.Effects = append(child.Effects, c)
		}
		e.uses = append(e.uses, child)
	}
}

func (e *Engine) stepAfflictions(dt time.Duration) {
	kept := e.afflictions[:0]
	for _, a := range e.afflictions {
		if e.stepAffliction(a, dt) {
			kept = append(kept, a)
		}
	}
	clear(e.afflictions[len(kept):])
	e.afflictions = kept
}

func (e *Engine) stepAffliction(a *Affliction, dt time.Duration) bool {
	target, ok := e.world.Unit(a.Target)
	if !ok || target.IsCorpse() {
		return false
	}
	switch d := a.Effect.Data.(type) {
	case *DotData:
		info := a.Effect.Info.(DotInfo)
		d.Tick.Advance(dt)
		if !d.Tick.Consume() {
			return true
		}
		if err := d.Counter.Increment(); err != nil {
			return false
		}
		owner, _ := e.world.Unit(a.Owner)
		res := e.resolver.ResolvePeriodic(owner, target, info.Damage)
		e.sink.Hit(a.Use, owner, target, res)
		return !d.Counter.Exhausted() && !res.Killed()
	case *KnockbackData:
		info := a.Effect.Info.(KnockbackInfo)
		step := min(dt, d.Remaining)
		d.Remaining -= step
		dist := info.Speed * float32(step.Seconds())
		e.world.Displace(target, target.Position.Add(a.Dir.Scale(dist)))
		e.sink.Moved(target)
		return d.Remaining > 0
	}
	return false
}
