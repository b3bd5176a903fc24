package effects

import "github.com/lucetgraph/capsule"

// ReducerAPI pairs a reducer's current state with a dispatch function
// that feeds an action through reduce and schedules a rebuild with the
// result, the same mutation path State uses.
type ReducerAPI[S, A any] struct {
	State    S
	Dispatch func(A)
}

// Reducer registers a persistent state slot seeded with initial, advanced
// by repeatedly folding dispatched actions through reduce. reduce is
// plain and pure; all the persistence and rebuild plumbing is Raw's.
func Reducer[S, A any](ctx *capsule.Ctx, initial S, reduce func(S, A) S) ReducerAPI[S, A] {
	state, h := capsule.Raw(ctx, func() S { return initial })
	return ReducerAPI[S, A]{
		State: *state,
		Dispatch: func(action A) {
			h.Trigger(func() { *state = reduce(*state, action) })()
		},
	}
}
