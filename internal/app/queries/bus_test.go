package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type count struct{ N int }

func (count) Key() string { return "test.count" }

func TestAsk(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, count{}.Key(), HandlerFunc[count, []int](func(_ context.Context, q count) ([]int, error) {
		out := make([]int, q.N)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}))

	got, err := Ask[count, []int](context.Background(), bus, count{N: 3})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)

	_, err = Ask[count, string](context.Background(), bus, count{N: 1})
	assert.ErrorIs(t, err, ErrResultType)

	_, err = Ask[count, []int](context.Background(), nil, count{})
	assert.ErrorIs(t, err, ErrNilBus)

	_, err = Ask[count, []int](context.Background(), NewInMemoryBus(), count{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestRegisterRaw_Duplicate(t *testing.T) {
	bus := NewInMemoryBus()
	noop := func(context.Context, Query) (any, error) { return nil, nil }
	bus.RegisterRaw("a", noop)
	bus.RegisterRaw("b", noop)

	assert.PanicsWithValue(t, "queries: duplicate registration for a", func() { bus.RegisterRaw("a", noop) })
	assert.Equal(t, []string{"a", "b"}, bus.Keys())
}
