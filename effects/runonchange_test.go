package effects_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucetgraph/capsule"
	"github.com/lucetgraph/capsule/effects"
)

func TestRunOnChangeFiresOnlyWhenValueDiffers(t *testing.T) {
	c := capsule.New()
	defer c.Dispose()

	runs := 0
	watcher := func(ctx *capsule.Ctx) int {
		v := capsule.Get(ctx, counter).Value
		effects.RunOnChange(ctx, v, func(int) { runs++ })
		return v
	}

	handle := capsule.Listen(c, func(ctx *capsule.Ctx) {
		capsule.Get(ctx, watcher)
	})
	defer handle.Remove()

	assert.Equal(t, 1, runs, "first build always runs once")

	capsule.Read(c, counter).Set(0)
	assert.Equal(t, 1, runs, "rebuilding without a new value must not re-run")

	capsule.Read(c, counter).Set(1)
	assert.Equal(t, 2, runs, "a changed value must re-run")
}
