package capsule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucetgraph/capsule"
	"github.com/lucetgraph/capsule/effects"
)

func count(ctx *capsule.Ctx) effects.StateAPI[int] {
	return effects.State(ctx, 0)
}

func plusOne(ctx *capsule.Ctx) int {
	return capsule.Get(ctx, count).Value + 1
}

func TestCountAndPlusOne(t *testing.T) {
	c := capsule.New()
	defer c.Dispose()

	assert.Equal(t, 0, capsule.Read(c, count).Value)
	assert.Equal(t, 1, capsule.Read(c, plusOne))

	capsule.Read(c, count).Set(5)

	assert.Equal(t, 5, capsule.Read(c, count).Value)
	assert.Equal(t, 6, capsule.Read(c, plusOne))
}

func TestTransactionCoalescesRebuilds(t *testing.T) {
	c := capsule.New()
	defer c.Dispose()

	builds := 0
	observer := func(ctx *capsule.Ctx) int {
		builds++
		return capsule.Get(ctx, count).Value
	}

	handle := capsule.Listen(c, func(ctx *capsule.Ctx) {
		capsule.Get(ctx, observer)
	})
	defer handle.Remove()

	require.Equal(t, 1, builds)

	c.Transaction(func() {
		capsule.Read(c, count).Set(1)
		capsule.Read(c, count).Set(2)
		capsule.Read(c, count).Set(3)
	})

	assert.Equal(t, 2, builds, "observer should rebuild exactly once across the coalesced transaction")
}

func superPureDerived(ctx *capsule.Ctx) int {
	return capsule.Get(ctx, count).Value * 2
}

func TestSuperPureGC(t *testing.T) {
	c := capsule.New()
	defer c.Dispose()

	capsule.Read(c, superPureDerived)

	c.Transaction(func() {})

	_, present := capsule.TryRead(c, superPureDerived)
	assert.False(t, present, "an orphaned super-pure derived capsule should be collected")

	_, present = capsule.TryRead(c, count)
	assert.True(t, present, "a capsule holding state must survive GC even when unobserved")
}

func flag(ctx *capsule.Ctx) effects.StateAPI[bool] {
	return effects.State(ctx, true)
}

func xCap(ctx *capsule.Ctx) int { return 1 }
func yCap(ctx *capsule.Ctx) int { return 2 }

func pick(ctx *capsule.Ctx) int {
	if capsule.Get(ctx, flag).Value {
		return capsule.Get(ctx, xCap)
	}
	return capsule.Get(ctx, yCap)
}

func TestEdgeRewiring(t *testing.T) {
	c := capsule.New()
	defer c.Dispose()

	handle := capsule.Listen(c, func(ctx *capsule.Ctx) {
		capsule.Get(ctx, pick)
	})
	defer handle.Remove()

	assert.Equal(t, 1, capsule.Read(c, pick))

	capsule.Read(c, flag).Set(false)

	assert.Equal(t, 2, capsule.Read(c, pick))

	_, xStillPresent := capsule.TryRead(c, xCap)
	assert.False(t, xStillPresent, "x should have lost pick as a dependent and become collectible")
}

func c1(ctx *capsule.Ctx) int { return capsule.Get(ctx, c2) }
func c2(ctx *capsule.Ctx) int { return capsule.Get(ctx, c1) }

func TestCycleDetected(t *testing.T) {
	c := capsule.New()
	defer c.Dispose()

	assert.Panics(t, func() {
		capsule.Read(c, c1)
	})

	assert.NotPanics(t, func() {
		c.Dispose()
	}, "the container must remain safe to dispose after a cyclic build panics")
}

func TestListenerLifetime(t *testing.T) {
	c := capsule.New()
	defer c.Dispose()

	runs := 0
	handle := capsule.Listen(c, func(ctx *capsule.Ctx) {
		capsule.Get(ctx, count)
		runs++
	})

	assert.Equal(t, 1, runs)

	capsule.Read(c, count).Set(1)
	assert.Equal(t, 2, runs)

	handle.Remove()

	capsule.Read(c, count).Set(2)
	assert.Equal(t, 2, runs, "a removed listener must not rebuild")
}
