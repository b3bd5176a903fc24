// Package effects collects prebuilt side effects conforming to the
// container's side-effect protocol: state, reducer, run-on-change and
// equality-memoised derivation. The core container treats this catalogue
// as an external collaborator (it never imports this package); capsule
// bodies import it the way application code imports any library.
package effects

import "github.com/lucetgraph/capsule"

// StateAPI is the handle a capsule body receives from State: the current
// value plus a setter that schedules a rebuild of the owning capsule (and
// its transitive dependents) with the new value applied.
type StateAPI[T any] struct {
	Value T
	Set   func(T)
}

// State registers a persistent value slot seeded with initial on a
// capsule's first build. Calling Set enqueues the owning node for
// rebuild with the new value in place, exactly like the "count" capsule
// of the count-and-plus-one scenario.
func State[T any](ctx *capsule.Ctx, initial T) StateAPI[T] {
	state, h := capsule.Raw(ctx, func() T { return initial })
	return StateAPI[T]{
		Value: *state,
		Set: func(v T) {
			h.Trigger(func() { *state = v })()
		},
	}
}

// Update is State's functional counterpart: instead of supplying the next
// value directly, the returned update function takes a transform that
// receives the current value and returns the next.
func Update[T any](ctx *capsule.Ctx, initial T) (T, func(func(T) T)) {
	state, h := capsule.Raw(ctx, func() T { return initial })
	update := func(f func(T) T) {
		h.Trigger(func() { *state = f(*state) })()
	}
	return *state, update
}
