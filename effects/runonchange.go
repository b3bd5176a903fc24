package effects

import "github.com/lucetgraph/capsule"

// RunOnChange invokes fn the first time it is registered and again on any
// later build where value compares unequal (by ==) to the value captured
// on the previous build; it never itself triggers a rebuild. Typical use
// is a capsule that wants to perform a one-shot action (logging, a cache
// invalidation) keyed off a dependency's value rather than its own.
func RunOnChange[T comparable](ctx *capsule.Ctx, value T, fn func(T)) {
	last, _ := capsule.Raw(ctx, func() *T { return nil })
	if *last == nil || **last != value {
		v := value
		*last = &v
		fn(value)
	}
}
