package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type ping struct{ n int }
type pong struct{ n int }

func TestBus_DeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(p ping) { got = append(got, p.n) })

	Emit(b, ping{1})
	Emit(b, ping{2})
	assert.Equal(t, 2, Pending[ping](b))

	b.DispatchAll()
	assert.Empty(t, got, "emitted events wait for the swap")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []int{1, 2}, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []int{1, 2}, got, "events are delivered once")
}

func TestBus_StableTypeOrder(t *testing.T) {
	b := NewBus()
	var log []string
	Subscribe(b, func(pong) { log = append(log, "pong") })
	Subscribe(b, func(ping) { log = append(log, "ping") })

	for range 20 {
		log = log[:0]
		Emit(b, pong{})
		Emit(b, ping{})
		b.SwapBuffers()
		b.DispatchAll()
		assert.Equal(t, []string{"pong", "ping"}, log)
	}
}

func TestBus_EmitDuringDispatch(t *testing.T) {
	b := NewBus()
	var pongs int
	Subscribe(b, func(p ping) { Emit(b, pong{p.n}) })
	Subscribe(b, func(pong) { pongs++ })

	Emit(b, ping{1})
	b.SwapBuffers()
	b.DispatchAll()
	assert.Zero(t, pongs)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, 1, pongs)
}
