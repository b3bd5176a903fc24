// Package capsule implements a general-purpose incremental computation and
// reactive state container: users declare pure, top-level functions called
// capsules, and a Container memoises their results, tracks the dependency
// graph that arises when one capsule reads another, and rebuilds exactly
// the affected subgraph when a registered side effect reports a change.
package capsule

import "github.com/lucetgraph/capsule/internal"

// Container owns the node graph. The zero value is not usable; construct
// one with New. A Container is safe for concurrent use: reads of
// already-built values may proceed from multiple goroutines at once, while
// builds, rebuilds, garbage collection and disposal run under a single
// internal write gate (see internal.Runtime).
type Container struct {
	rt *internal.Runtime
}

// New constructs an empty container.
func New() *Container {
	return &Container{rt: internal.NewRuntime()}
}

// Dispose tears down every node in the container, running each node's
// effect cleanups in reverse registration order. A disposed container's
// triggers become permanent no-ops, and Read on a disposed container builds
// nothing and returns the zero value. A build that panics (a cyclic
// dependency, for one) leaves the container disposed in the same way.
func (c *Container) Dispose() {
	c.rt.Dispose()
}

// Transaction runs fn with all rebuild triggers suppressed, then coalesces
// whatever capsules were triggered during fn into a single rebuild pass at
// commit. Reads performed inside fn see a consistent snapshot: no
// intermediate rebuild ever runs while fn is executing.
func (c *Container) Transaction(fn func()) {
	c.rt.Transaction(fn)
}
