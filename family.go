package capsule

import (
	"unsafe"

	"github.com/lucetgraph/capsule/internal"
)

// Family declares a dynamic capsule: a body parameterised by a
// user-supplied comparable key, where each distinct key occupies its own
// node (spec §4.1). Construct one with NewFamily and hold it in a
// package-level variable; the Family value's own address is part of every
// member's identity; a fresh *Family obtained at different times is a
// different family.
type Family[K comparable, T any] struct {
	build func(*Ctx, K) T
	eq    func(a, b T) bool
}

// NewFamily constructs a capsule family from build.
func NewFamily[K comparable, T any](build func(*Ctx, K) T) *Family[K, T] {
	return &Family[K, T]{build: build}
}

// WithEq opts the family into the equality-based rebuild-pruning
// optimisation of spec §4.5 step 8: a member whose rebuild yields a value
// eq considers unchanged does not propagate to its dependents.
func (fam *Family[K, T]) WithEq(eq func(a, b T) bool) *Family[K, T] {
	fam.eq = eq
	return fam
}

func (fam *Family[K, T]) id(key K) internal.NodeID {
	return internal.DynamicNodeID(uintptr(unsafe.Pointer(fam)), key)
}

func (fam *Family[K, T]) descriptor(key K) internal.Descriptor {
	var eqAny func(a, b any) bool
	if fam.eq != nil {
		eqAny = func(a, b any) bool { return fam.eq(a.(T), b.(T)) }
	}
	return internal.Descriptor{
		Eq: eqAny,
		Build: func(txn *internal.Txn, id internal.NodeID) any {
			return fam.build(&Ctx{txn: txn, id: id}, key)
		},
	}
}

// Read returns the current value of the member at key, building it if
// this is its first read. See Read for the single-capsule case.
func (fam *Family[K, T]) Read(c *Container, key K) T {
	id := fam.id(key)
	if vs, ok := c.rt.TryReadAll([]internal.NodeID{id}); ok {
		return vs[0].(T)
	}
	var out T
	c.rt.WithWrite(func(txn *internal.Txn) {
		out = txn.EnsureBuilt(id, fam.descriptor(key)).(T)
	})
	return out
}

// Get reads the member at key from within a capsule body, recording a
// dependency edge onto that specific (family, key) node.
func (fam *Family[K, T]) Get(ctx *Ctx, key K) T {
	id := fam.id(key)
	return ctx.get(id, fam.descriptor(key)).(T)
}
