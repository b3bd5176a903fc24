package effects_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucetgraph/capsule"
	"github.com/lucetgraph/capsule/effects"
)

type cartAction struct {
	add    int
	remove int
}

func cart(ctx *capsule.Ctx) effects.ReducerAPI[int, cartAction] {
	return effects.Reducer(ctx, 0, func(state int, action cartAction) int {
		return state + action.add - action.remove
	})
}

func TestReducer(t *testing.T) {
	c := capsule.New()
	defer c.Dispose()

	assert.Equal(t, 0, capsule.Read(c, cart).State)

	capsule.Read(c, cart).Dispatch(cartAction{add: 3})
	assert.Equal(t, 3, capsule.Read(c, cart).State)

	capsule.Read(c, cart).Dispatch(cartAction{remove: 1})
	assert.Equal(t, 2, capsule.Read(c, cart).State)
}
