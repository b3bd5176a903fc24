package capsule

import (
	"github.com/lucetgraph/capsule/internal"
)

// ListenerHandle is returned by Listen. Dropping it (calling Remove)
// removes the listener capsule's node and allows garbage collection to
// reclaim any of its now-unreachable super-pure dependencies.
type ListenerHandle struct {
	rt *internal.Runtime
	id internal.NodeID
}

// Listen installs an ephemeral listener capsule: body is built
// immediately like any other capsule, and its transitive dependencies are
// pinned (exempt from garbage collection) for as long as the returned
// handle is held, regardless of whether those dependencies are
// super-pure. Multiple listeners may coexist and may share dependencies.
func Listen(c *Container, body func(*Ctx)) *ListenerHandle {
	// A fresh marker per call gives this listener its own node identity
	// even when two Listen calls share a call site, since body's code
	// pointer alone would collide for closures generated from the same
	// lexical expression. The id holds the marker pointer itself, which keeps
	// the marker alive, and its address unique, while the id is in use.
	marker := new(byte)
	id := internal.DynamicNodeID(0, marker)
	desc := internal.Descriptor{
		Build: func(txn *internal.Txn, id internal.NodeID) any {
			body(&Ctx{txn: txn, id: id})
			return struct{}{}
		},
	}
	c.rt.WithWrite(func(txn *internal.Txn) {
		txn.EnsureBuiltListener(id, desc)
	})
	return &ListenerHandle{rt: c.rt, id: id}
}

// Remove detaches the listener. Safe to call at most once; a second call
// is a no-op.
func (h *ListenerHandle) Remove() {
	if h.rt == nil {
		return
	}
	h.rt.WithWrite(func(txn *internal.Txn) {
		txn.RemoveListener(h.id)
	})
	h.rt = nil
}
