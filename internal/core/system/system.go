package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: connect/disconnect, then drain message queues
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: skills and combat
	PhasePostUpdate              // 3: regen, corpse timers
	PhaseOutput                  // 4: encode + send queued messages
	PhasePersist                 // 5: autosave
	PhaseCleanup                 // 6: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
