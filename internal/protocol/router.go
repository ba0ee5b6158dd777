package protocol

import (
	"errors"
	"fmt"

	"github.com/emberfall/server/internal/session"
	"go.uber.org/zap"
)

// Guard is the access rule attached to a route.
type Guard uint8

const (
	// Open routes run for any client, e.g. login and account creation.
	Open Guard = iota
	// RequireAuth routes run only for authenticated clients. Others are
	// dropped without a reply so client ids cannot be probed.
	RequireAuth
)

// HandlerFunc handles one decoded message for a client.
type HandlerFunc func(c *session.Client, msg Message)

// Handle adapts a typed handler to HandlerFunc.
func Handle[T Message](fn func(c *session.Client, msg T)) HandlerFunc {
	return func(c *session.Client, msg Message) {
		fn(c, msg.(T))
	}
}

type route struct {
	guard Guard
	fn    HandlerFunc
}

// Router maps opcodes to handlers with an authentication guard.
type Router struct {
	routes map[Opcode]*route
	log    *zap.Logger
}

func NewRouter(log *zap.Logger) *Router {
	return &Router{
		routes: make(map[Opcode]*route),
		log:    log,
	}
}

func (r *Router) Register(op Opcode, guard Guard, fn HandlerFunc) {
	r.routes[op] = &route{guard: guard, fn: fn}
}

// Dispatch decodes data and runs its handler. Unknown opcodes and guarded
// messages from unauthenticated clients are logged and dropped; only decode
// failures and handler panics are returned.
func (r *Router) Dispatch(c *session.Client, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyMessage
	}
	op := Opcode(data[0])
	rt, ok := r.routes[op]
	if !ok {
		r.log.Debug("no route for opcode",
			zap.Uint64("client", uint64(c.ID)),
			zap.Uint8("opcode", uint8(op)),
		)
		return nil
	}
	if rt.guard == RequireAuth && !c.IsAuthenticated() {
		r.log.Debug("unauthenticated message dropped",
			zap.Uint64("client", uint64(c.ID)),
			zap.Stringer("op", op),
		)
		return nil
	}

	msg, err := Decode(data)
	if err != nil {
		if errors.Is(err, ErrUnknownOpcode) {
			return nil
		}
		return err
	}
	return r.safeCall(rt.fn, c, msg)
}

// safeCall keeps one bad message from taking down the game loop.
func (r *Router) safeCall(fn HandlerFunc, c *session.Client, msg Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panic recovered",
				zap.Uint64("client", uint64(c.ID)),
				zap.Stringer("op", msg.Opcode()),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %s: %v", msg.Opcode(), rec)
		}
	}()
	fn(c, msg)
	return nil
}
