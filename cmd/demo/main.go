// Command demo exercises the capsule container with the canonical
// counter example: a stateful capsule and a pure capsule derived from it.
package main

import (
	"fmt"

	"github.com/lucetgraph/capsule"
	"github.com/lucetgraph/capsule/effects"
)

func count(ctx *capsule.Ctx) effects.StateAPI[int] {
	return effects.State(ctx, 0)
}

func plusOne(ctx *capsule.Ctx) int {
	return capsule.Get(ctx, count).Value + 1
}

func main() {
	c := capsule.New()
	defer c.Dispose()

	handle := capsule.Listen(c, func(ctx *capsule.Ctx) {
		cur := capsule.Get(ctx, count).Value
		next := capsule.Get(ctx, plusOne)
		fmt.Printf("count=%d plusOne=%d\n", cur, next)
	})
	defer handle.Remove()

	capsule.Read(c, count).Set(5)
	c.Transaction(func() {
		capsule.Read(c, count).Set(6)
		capsule.Read(c, count).Set(7)
	})
}
