package system

import (
	"time"

	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/net"
)

// OutputSystem hands the tick's queued messages to sessions and moves them
// onto the writer queues. Phase 4 (Output).
type OutputSystem struct {
	out   *handler.Outbox
	store *net.SessionStore
}

func NewOutputSystem(out *handler.Outbox, store *net.SessionStore) *OutputSystem {
	return &OutputSystem{out: out, store: store}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.out.Flush(s.store)
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}
