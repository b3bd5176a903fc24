package capsule

import (
	"unsafe"

	"github.com/lucetgraph/capsule/internal"
)

// Memo declares a static capsule that opts into the equality-based
// rebuild-pruning optimisation of spec §4.5 step 8. Unlike an ordinary
// func(*Ctx) T passed to Read/Get, a Memo's identity is the *Memo value
// itself, so it must be constructed once (typically into a package-level
// variable) and shared by every caller that wants the same node.
type Memo[T any] struct {
	build func(*Ctx) T
	eq    func(a, b T) bool
}

// NewMemo constructs a memoised capsule: build computes the value as
// usual, and eq decides whether a rebuilt value counts as "changed" for
// propagation purposes.
func NewMemo[T any](build func(*Ctx) T, eq func(a, b T) bool) *Memo[T] {
	return &Memo[T]{build: build, eq: eq}
}

func (m *Memo[T]) id() internal.NodeID {
	return internal.StaticNodeID(uintptr(unsafe.Pointer(m)))
}

func (m *Memo[T]) descriptor() internal.Descriptor {
	return internal.Descriptor{
		Eq: func(a, b any) bool { return m.eq(a.(T), b.(T)) },
		Build: func(txn *internal.Txn, id internal.NodeID) any {
			return m.build(&Ctx{txn: txn, id: id})
		},
	}
}

// Read returns m's current value, building it if necessary.
func (m *Memo[T]) Read(c *Container) T {
	id := m.id()
	if vs, ok := c.rt.TryReadAll([]internal.NodeID{id}); ok {
		return vs[0].(T)
	}
	var out T
	c.rt.WithWrite(func(txn *internal.Txn) {
		out = txn.EnsureBuilt(id, m.descriptor()).(T)
	})
	return out
}

// Get reads m from within a capsule body, recording a dependency edge.
func (m *Memo[T]) Get(ctx *Ctx) T {
	return ctx.get(m.id(), m.descriptor()).(T)
}
