package skill

import (
	"errors"
	"fmt"
	"time"

	"github.com/emberfall/server/internal/combat"
)

var (
	ErrCounterExhausted = errors.New("effect counter exhausted")
	ErrEffectMismatch   = errors.New("effect data does not match effect info")
)

// EffectCounter counts uses of a bounded effect such as pierce or chain.
type EffectCounter struct {
	Curr uint16
	Max  uint16
}

// Increment consumes one use. It fails once Curr has reached Max.
func (c *EffectCounter) Increment() error {
	if c.Curr >= c.Max {
		return ErrCounterExhausted
	}
	c.Curr++
	return nil
}

func (c EffectCounter) Remaining() uint16 { return c.Max - c.Curr }
func (c EffectCounter) Exhausted() bool   { return c.Curr >= c.Max }

// Tickable gates periodic damage to one application per interval.
type Tickable struct {
	Interval  time.Duration
	Timer     time.Duration
	CanDamage bool
}

// NewTickable returns a tickable that may damage immediately when ready is set.
func NewTickable(interval time.Duration, ready bool) *Tickable {
	return &Tickable{Interval: interval, CanDamage: ready}
}

// Advance moves the timer by dt. CanDamage turns on when an interval boundary
// is crossed; crossing several boundaries in one step still grants one hit.
func (t *Tickable) Advance(dt time.Duration) {
	if t.Interval <= 0 {
		return
	}
	t.Timer += dt
	for t.Timer >= t.Interval {
		t.Timer -= t.Interval
		t.CanDamage = true
	}
}

// Consume reports whether damage may be applied now and resets the flag.
func (t *Tickable) Consume() bool {
	if !t.CanDamage {
		return false
	}
	t.CanDamage = false
	return true
}

// EffectInfo is the immutable descriptor of an effect, sourced from metadata.
type EffectInfo interface {
	effectInfo()
}

type PierceInfo struct {
	Count uint16
}

type ChainInfo struct {
	Count uint16
	Range float32
}

// SplitInfo spawns Count extra projectiles fanned over Spread radians.
type SplitInfo struct {
	Count  uint16
	Spread float32
}

type DotInfo struct {
	Frequency time.Duration
	Ticks     uint16
	Damage    combat.Damage
}

type KnockbackInfo struct {
	Speed    float32
	Duration time.Duration
}

func (PierceInfo) effectInfo()    {}
func (ChainInfo) effectInfo()     {}
func (SplitInfo) effectInfo()     {}
func (DotInfo) effectInfo()       {}
func (KnockbackInfo) effectInfo() {}

// EffectData is the mutable runtime state of an effect.
type EffectData interface {
	effectData()
}

type PierceData struct{ Counter EffectCounter }
type ChainData struct{ Counter EffectCounter }
type SplitData struct{ Done bool }

type DotData struct {
	Counter EffectCounter
	Tick    *Tickable
}

type KnockbackData struct {
	Remaining time.Duration
}

func (*PierceData) effectData()    {}
func (*ChainData) effectData()     {}
func (*SplitData) effectData()     {}
func (*DotData) effectData()       {}
func (*KnockbackData) effectData() {}

// EffectInstance pairs an effect descriptor with its runtime data. The data
// variant always matches the info variant.
type EffectInstance struct {
	Info EffectInfo
	Data EffectData
}

// NewEffectInstance builds fresh runtime data for info.
func NewEffectInstance(info EffectInfo) EffectInstance {
	var data EffectData
	switch i := info.(type) {
	case PierceInfo:
		data = &PierceData{Counter: EffectCounter{Max: i.Count}}
	case ChainInfo:
		data = &ChainData{Counter: EffectCounter{Max: i.Count}}
	case SplitInfo:
		data = &SplitData{}
	case DotInfo:
		data = &DotData{Counter: EffectCounter{Max: i.Ticks}, Tick: NewTickable(i.Frequency, false)}
	case KnockbackInfo:
		data = &KnockbackData{Remaining: i.Duration}
	default:
		panic(fmt.Sprintf("skill: unknown effect info %T", info))
	}
	return EffectInstance{Info: info, Data: data}
}

// NewEffectInstanceWith pairs info with existing data, rejecting mismatched variants.
func NewEffectInstanceWith(info EffectInfo, data EffectData) (EffectInstance, error) {
	ok := false
	switch info.(type) {
	case PierceInfo:
		_, ok = data.(*PierceData)
	case ChainInfo:
		_, ok = data.(*ChainData)
	case SplitInfo:
		_, ok = data.(*SplitData)
	case DotInfo:
		_, ok = data.(*DotData)
	case KnockbackInfo:
		_, ok = data.(*KnockbackData)
	}
	if !ok {
		return EffectInstance{}, fmt.Errorf("%w: %T with %T", ErrEffectMismatch, info, data)
	}
	return EffectInstance{Info: info, Data: data}, nil
}

// clone copies the runtime data so split children do not share counters.
func (e EffectInstance) clone() EffectInstance {
	var data EffectData
	switch d := e.Data.(type) {
	case *PierceData:
		c := *d
		data = &c
	case *ChainData:
		c := *d
		data = &c
	case *SplitData:
		c := *d
		data = &c
	case *DotData:
		c := *d
		t := *d.Tick
		c.Tick = &t
		data = &c
	case *KnockbackData:
		c := *d
		data = &c
	}
	return EffectInstance{Info: e.Info, Data: data}
}
