package stat

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mod(id ModifierID, v Value, op Operation) Modifier {
	return Modifier{ID: id, Value: v, Op: op}
}

func TestValue_ZeroIsIdentity(t *testing.T) {
	for _, v := range []Value{U32(7), U64(9), F32(1.25), F64(-3.5)} {
		assert.Equal(t, v, v.Add(Zero(v.Kind())), "kind %s", v.Kind())
		assert.Equal(t, v.Kind(), Zero(v.Kind()).Kind())
	}
}

func TestValue_MismatchedKindsPanic(t *testing.T) {
	assert.Panics(t, func() { U32(1).Add(F32(1)) })
	assert.Panics(t, func() { F64(1).Mul(F32(1)) })
	assert.Panics(t, func() { U64(4).Div(U64(0)) })
}

func TestValue_UnsignedSubSaturates(t *testing.T) {
	assert.Equal(t, U32(0), U32(3).Sub(U32(5)))
	assert.Equal(t, U64(2), U64(5).Sub(U64(3)))
}

func TestStatList_SumsMatchModifiersAfterRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	list := NewStatList(KindF64)

	var live []Modifier
	next := ModifierID(1)
	for step := 0; step < 500; step++ {
		if len(live) > 0 && rng.IntN(3) == 0 {
			i := rng.IntN(len(live))
			require.True(t, list.Remove(live[i].ID))
			live = append(live[:i], live[i+1:]...)
		} else {
			m := mod(next, F64(float64(rng.IntN(200))), Operation(rng.IntN(4)))
			next++
			require.NoError(t, list.Add(m))
			live = append(live, m)
		}
		list.ComputeSum()

		var add, sub, mul, div float64
		for _, m := range live {
			switch m.Op {
			case OpAdd:
				add += m.Value.F64()
			case OpSub:
				sub += m.Value.F64()
			case OpMul:
				mul += m.Value.F64()
			case OpDiv:
				div += m.Value.F64()
			}
		}
		require.Equal(t, add-sub, list.AddSum().F64(), "step %d", step)
		require.Equal(t, mul-div, list.MulSum().F64(), "step %d", step)
	}
}

func TestStatList_StaleUntilComputed(t *testing.T) {
	list := NewStatList(KindU32)
	require.NoError(t, list.Add(mod(1, U32(10), OpAdd)))

	assert.True(t, list.Stale())
	assert.Equal(t, U32(0), list.AddSum(), "sums are not re-derived on read")

	list.ComputeSum()
	assert.False(t, list.Stale())
	assert.Equal(t, U32(10), list.AddSum())

	assert.False(t, list.Remove(99))
	assert.False(t, list.Stale())
}

func TestStatList_RejectsForeignKind(t *testing.T) {
	list := NewStatList(KindF32)
	assert.Error(t, list.Add(mod(1, U32(1), OpAdd)))
	assert.Empty(t, list.Modifiers())
}

func TestStatList_Apply(t *testing.T) {
	list := NewStatList(KindF32)
	require.NoError(t, list.Add(mod(1, F32(20), OpAdd)))
	require.NoError(t, list.Add(mod(2, F32(5), OpSub)))
	require.NoError(t, list.Add(mod(3, F32(50), OpMul)))
	list.ComputeSum()

	assert.Equal(t, F32(150), list.Apply(F32(85)))
}

func TestStatList_JSONRoundTrip(t *testing.T) {
	list := NewStatList(KindF32)
	require.NoError(t, list.Add(mod(1, F32(1.5), OpAdd)))
	require.NoError(t, list.Add(mod(2, F32(12), OpMul)))
	list.ComputeSum()

	raw, err := json.Marshal(list)
	require.NoError(t, err)

	var got StatList
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, list, &got)
}

func TestFormatModifier(t *testing.T) {
	tests := []struct {
		name string
		m    Modifier
		want string
	}{
		{"flat add", Modifier{Value: U32(12), Op: OpAdd}, "+12"},
		{"flat sub float", Modifier{Value: F32(3.5), Op: OpSub}, "-3.5"},
		{"percent mul", Modifier{Value: F32(10), Op: OpMul, Format: FormatPercent}, "+10.0%"},
		{"percent div", Modifier{Value: F64(12.26), Op: OpDiv, Format: FormatPercent}, "-12.3%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatModifier(tt.m))
		})
	}
}
