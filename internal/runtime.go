package internal

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// Runtime owns the node graph and the single mutual-exclusion gate that
// every mutating operation (build, rebuild, GC, dispose) passes through.
// Concurrent readers are allowed to proceed against already-present values
// without taking the write gate at all; see Read in the public package for
// the fast/slow path split described in spec §5.
type Runtime struct {
	mu    sync.RWMutex
	nodes map[NodeID]*Node

	// writerGID is the goroutine id currently inside WithWrite, used only
	// to turn an accidental reentrant container call from within a
	// capsule body into a clear panic instead of a self-deadlock (the
	// same diagnostic trick the teacher repo's sig/sig.go uses goid for,
	// there to track the active owner per goroutine).
	writerGID atomic.Int64

	txnDepth         int // nested Transaction() calls, mirrors the teacher's Batcher depth counter
	suppressTriggers bool
	pendingTriggers  map[NodeID]struct{}

	disposed bool
}

func NewRuntime() *Runtime {
	return &Runtime{nodes: make(map[NodeID]*Node)}
}

const reentrancyMsg = "capsule: container accessed recursively from the same goroutine; " +
	"a capsule body must read other capsules through its build context, not by calling " +
	"back into the container"

// WithWrite runs fn under the write gate, then garbage collects every node
// touched during fn before releasing the gate. Fresh reads, triggers,
// listener add/remove and single-capsule disposal each go through here once;
// a transaction goes through once to begin and once to commit, and only the
// commit runs a rebuild pass. That is what makes "GC runs after every
// rebuild pass" (spec §4.6) trivially true: there is at most one pass per
// call to WithWrite. Container-wide Dispose takes the lock directly.
//
// If fn panics, the container is torn down as Dispose would do it before
// the panic continues to the caller.
func (r *Runtime) WithWrite(fn func(txn *Txn)) {
	gid := goid.Get()
	if r.writerGID.Load() == gid {
		panic(reentrancyMsg)
	}

	r.mu.Lock()
	r.writerGID.Store(gid)
	defer func() {
		r.writerGID.Store(0)
		r.mu.Unlock()
	}()
	defer func() {
		if p := recover(); p != nil {
			for _, n := range r.nodes {
				n.runCleanups()
			}
			r.nodes = make(map[NodeID]*Node)
			r.disposed = true
			panic(p)
		}
	}()

	if r.disposed {
		return
	}

	txn := &Txn{rt: r}
	fn(txn)
	txn.garbageCollect()
}

func (r *Runtime) nodeRLocked(id NodeID) (*Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// RLock acquires the read gate and returns a function that releases it.
// Exposed for ReadRef, whose zero-copy borrow must outlive the single
// call that looked the node up.
func (r *Runtime) RLock() func() {
	if r.writerGID.Load() == goid.Get() {
		panic(reentrancyMsg)
	}
	r.mu.RLock()
	var once sync.Once
	return func() { once.Do(r.mu.RUnlock) }
}

// NodeUnlocked looks up a node without taking any lock itself; callers
// must already hold RLock or the write gate.
func (r *Runtime) NodeUnlocked(id NodeID) (*Node, bool) {
	return r.nodeRLocked(id)
}

// TryReadAll reports the current values of ids under the read gate, or
// false if any of them has never been built.
func (r *Runtime) TryReadAll(ids []NodeID) ([]any, bool) {
	if r.writerGID.Load() == goid.Get() {
		panic(reentrancyMsg)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]any, len(ids))
	for i, id := range ids {
		n, ok := r.nodeRLocked(id)
		if !ok || !n.HasValue {
			return nil, false
		}
		out[i] = n.Value
	}
	return out, true
}

// Trigger returns the no-op-after-disposal closure handed to side effects:
// calling it applies mutate under the write gate (so concurrent setters
// never race on the same persisted state) and then, unless a transaction
// is suppressing propagation, rebuilds id and its transitive dependents.
func (r *Runtime) Trigger(id NodeID, mutate func()) {
	r.WithWrite(func(txn *Txn) {
		if _, ok := r.nodes[id]; !ok {
			return // node disposed since the effect captured this trigger
		}
		if mutate != nil {
			mutate()
		}
		if r.suppressTriggers {
			r.pendingTriggers[id] = struct{}{}
			return
		}
		txn.rebuild([]NodeID{id})
	})
}

// Transaction suppresses trigger propagation while fn runs, then coalesces
// every capsule that fired a trigger during fn into a single rebuild pass.
// Mirrors the nesting discipline of the teacher repo's Batcher.
func (r *Runtime) Transaction(fn func()) {
	r.WithWrite(func(_ *Txn) {
		if r.txnDepth == 0 {
			r.suppressTriggers = true
			r.pendingTriggers = make(map[NodeID]struct{})
		}
		r.txnDepth++
	})

	fn()

	r.WithWrite(func(txn *Txn) {
		r.txnDepth--
		if r.txnDepth > 0 {
			return
		}
		r.suppressTriggers = false
		pending := r.pendingTriggers
		r.pendingTriggers = nil
		if len(pending) == 0 {
			return
		}
		ids := make([]NodeID, 0, len(pending))
		for id := range pending {
			ids = append(ids, id)
		}
		txn.rebuild(ids)
	})
}

// Dispose tears down every node, running effect cleanups in reverse
// creation order per node, and marks the runtime so future triggers and
// writes become no-ops.
func (r *Runtime) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.nodes {
		n.runCleanups()
	}
	r.nodes = make(map[NodeID]*Node)
	r.disposed = true
}
