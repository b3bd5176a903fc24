package effects

import "github.com/lucetgraph/capsule"

type memoSlot[K comparable, V any] struct {
	key   K
	value V
	has   bool
}

// Memo caches compute(key)'s result across builds, recomputing only when
// key compares unequal to the key used on the previous build. Unlike
// capsule.Memo (which prunes a capsule's *dependents* when its output is
// unchanged), this is an ordinary side effect: it only saves the cost of
// recomputation inside one capsule body and never affects propagation.
func Memo[K comparable, V any](ctx *capsule.Ctx, key K, compute func(K) V) V {
	slot, _ := capsule.Raw(ctx, func() memoSlot[K, V] { return memoSlot[K, V]{} })
	if slot.has && slot.key == key {
		return slot.value
	}
	slot.value = compute(key)
	slot.key = key
	slot.has = true
	return slot.value
}
