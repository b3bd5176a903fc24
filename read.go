package capsule

import (
	"reflect"

	"github.com/lucetgraph/capsule/internal"
)

// staticID returns the stable identity of an ordinary (non-family)
// capsule: the code pointer of its build function. Every call site that
// passes the same top-level function value yields the same identity,
// which is what lets two unrelated reads of the same capsule share one
// node (spec §4.1).
func staticID(fn any) internal.NodeID {
	return internal.StaticNodeID(reflect.ValueOf(fn).Pointer())
}

func descriptorOf[T any](fn func(*Ctx) T) internal.Descriptor {
	return internal.Descriptor{
		Build: func(txn *internal.Txn, id internal.NodeID) any {
			return fn(&Ctx{txn: txn, id: id})
		},
	}
}

// Read returns capsule's current value from c, building it (and anything
// it transitively depends on) if this is the first read. Reads performed
// this way do not create any dependency edge: the caller is external to
// the graph, matching the container-level read() described in spec §4.4.
func Read[T any](c *Container, capsule func(*Ctx) T) T {
	id := staticID(capsule)
	if vs, ok := c.rt.TryReadAll([]internal.NodeID{id}); ok {
		return vs[0].(T)
	}
	var out T
	c.rt.WithWrite(func(txn *internal.Txn) {
		out = txn.EnsureBuilt(id, descriptorOf(capsule)).(T)
	})
	return out
}

// Read2 reads two capsules as a single convenience call; see Read. There
// is no cross-capsule atomicity guarantee beyond what the container's
// write gate already provides for a single build/rebuild pass.
func Read2[A, B any](c *Container, a func(*Ctx) A, b func(*Ctx) B) (A, B) {
	return Read(c, a), Read(c, b)
}

// Read3 reads three capsules; see Read2.
func Read3[A, B, D any](c *Container, a func(*Ctx) A, b func(*Ctx) B, d func(*Ctx) D) (A, B, D) {
	return Read(c, a), Read(c, b), Read(c, d)
}

// TryRead reports capsule's current value without building it, and
// whether its node is currently present with a value; a node that was built
// and has since been garbage collected reports false. Useful for asserting
// that a node has (or has not) been garbage collected.
func TryRead[T any](c *Container, capsule func(*Ctx) T) (T, bool) {
	id := staticID(capsule)
	vs, ok := c.rt.TryReadAll([]internal.NodeID{id})
	if !ok {
		var zero T
		return zero, false
	}
	return vs[0].(T), true
}

// Get reads another capsule from within a capsule body, recording a
// dependency edge from the currently building node onto capsule (the
// build context's Reader capability, spec §4.3).
func Get[T any](ctx *Ctx, capsule func(*Ctx) T) T {
	id := staticID(capsule)
	return ctx.get(id, descriptorOf(capsule)).(T)
}

// RefGuard is the handle returned by ReadRef: it pins capsule's current
// value for zero-copy borrowing under the container's read lock. Release
// must be called before any write (build, rebuild, GC, dispose) against
// the same container can proceed.
type RefGuard[T any] struct {
	value   T
	release func()
}

// Value returns the borrowed value. It remains valid until Release is
// called.
func (g *RefGuard[T]) Value() T { return g.value }

// Release drops the read-lock borrow. Safe to call at most once.
func (g *RefGuard[T]) Release() {
	if g.release != nil {
		g.release()
		g.release = nil
	}
}

// ReadRef returns a borrowed handle to capsule's value without the
// shared-ownership clone that Read implies, matching spec §4.4's
// read-ref. ReadRef never itself triggers a build, since doing so would
// require upgrading a read lock to a write lock mid-borrow: it returns nil
// unless the capsule's node is currently present with a value. Only Read
// (or a dependent's Get) builds a node, and a super-pure capsule with no
// dependents and no listener is collected at the end of the Read that built
// it, so ReadRef finds such a capsule only while something keeps it alive.
func ReadRef[T any](c *Container, capsule func(*Ctx) T) *RefGuard[T] {
	id := staticID(capsule)
	release := c.rt.RLock()
	n, ok := c.rt.NodeUnlocked(id)
	if !ok || !n.HasValue {
		release()
		return nil
	}
	return &RefGuard[T]{value: n.Value.(T), release: release}
}

// Dispose removes capsule's node from c immediately, regardless of
// whether it would otherwise be GC-eligible, running its effect
// cleanups in reverse registration order. It implements the explicit,
// user-requested disposal path of spec §3's node lifecycle (distinct
// from Container.Dispose, which tears down the whole container).
func Dispose[T any](c *Container, capsule func(*Ctx) T) {
	id := staticID(capsule)
	c.rt.WithWrite(func(txn *internal.Txn) {
		txn.DisposeNode(id)
	})
}
