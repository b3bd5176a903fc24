package capsule

// EffectHandle is the capability a side effect constructor receives:
// a stable trigger for the node it is registered on, plus the ability to
// register a cleanup that runs when the node is disposed. It is the
// "rebuild trigger" plumbing described in spec §4.2, exposed so that
// external packages (this module's effects package, or user code) can
// build new side effects without reaching into the runtime internals.
type EffectHandle struct {
	ctx *Ctx
}

// Trigger returns an invocable, thread-safe closure that enqueues the
// owning node for rebuild when called, applying mutate first under the
// container's write gate. It remains valid for the node's lifetime; after
// disposal it becomes a permanent no-op rather than panicking.
func (h *EffectHandle) Trigger(mutate func()) func() {
	return h.ctx.triggerWithMutate(mutate)
}

// OnDispose registers fn to run when the owning node is disposed (by
// garbage collection, explicit disposal, or container-wide Dispose).
// Cleanups run in reverse registration order.
func (h *EffectHandle) OnDispose(fn func()) {
	h.ctx.onDispose(fn)
}

// Raw is the one true side-effect primitive (spec §4.2, §9): on a
// capsule's first build, init constructs the effect's persistent state S;
// on every subsequent build, Raw returns the very same *S along with a
// fresh EffectHandle bound to the current build. Every higher-level
// effect (state, reducer, memo, ...) is expressible in terms of Raw.
//
// A capsule must call Raw (and every other effect constructor) in the
// same order on every build; the runtime recognises a slot by its
// position, not by any identity of the constructor itself.
func Raw[S any](ctx *Ctx, init func() S) (*S, *EffectHandle) {
	state := ctx.effectSlot(func() any {
		s := init()
		return &s
	})
	return state.(*S), &EffectHandle{ctx: ctx}
}
