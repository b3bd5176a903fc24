package capsule

import "github.com/lucetgraph/capsule/internal"

// Ctx is the build context handed to a capsule body: the "Reader" and
// "Registrar" capabilities of the build-context component. It is only
// valid for the duration of the single build call it was created for;
// storing one past that call and using it later is a misuse the runtime
// does not attempt to detect.
type Ctx struct {
	txn *internal.Txn
	id  internal.NodeID
}

func (ctx *Ctx) get(id internal.NodeID, desc internal.Descriptor) any {
	return ctx.txn.Get(ctx.id, id, desc)
}

func (ctx *Ctx) effectSlot(init func() any) any {
	return ctx.txn.EffectSlot(ctx.id, init)
}

func (ctx *Ctx) onDispose(fn func()) {
	ctx.txn.OnDispose(ctx.id, fn)
}

// triggerWithMutate returns a trigger closure that applies mutate under
// the container's write gate before deciding whether to rebuild; this is
// how every stateful side effect actually changes its persisted value.
func (ctx *Ctx) triggerWithMutate(mutate func()) func() {
	id := ctx.id
	rt := ctx.txn.Runtime()
	return func() { rt.Trigger(id, mutate) }
}
