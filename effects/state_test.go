package effects_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucetgraph/capsule"
	"github.com/lucetgraph/capsule/effects"
)

func counter(ctx *capsule.Ctx) effects.StateAPI[int] {
	return effects.State(ctx, 0)
}

func TestState(t *testing.T) {
	c := capsule.New()
	defer c.Dispose()

	assert.Equal(t, 0, capsule.Read(c, counter).Value)

	capsule.Read(c, counter).Set(42)
	assert.Equal(t, 42, capsule.Read(c, counter).Value)
}

type doublingAPI struct {
	Value  int
	Double func()
}

func doubling(ctx *capsule.Ctx) doublingAPI {
	v, update := effects.Update(ctx, 1)
	return doublingAPI{
		Value:  v,
		Double: func() { update(func(n int) int { return n * 2 }) },
	}
}

func TestUpdate(t *testing.T) {
	c := capsule.New()
	defer c.Dispose()

	assert.Equal(t, 1, capsule.Read(c, doubling).Value)

	capsule.Read(c, doubling).Double()
	assert.Equal(t, 2, capsule.Read(c, doubling).Value)

	capsule.Read(c, doubling).Double()
	assert.Equal(t, 4, capsule.Read(c, doubling).Value)
}
