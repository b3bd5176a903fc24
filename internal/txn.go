package internal

import "fmt"

// Txn is the single write transaction live for the duration of one
// Runtime.WithWrite call. It carries the bookkeeping a build pass needs:
// which nodes were touched (candidates for the end-of-pass GC sweep) and,
// via each Node's own `building` flag, the active build stack for cycle
// detection.
type Txn struct {
	rt           *Runtime
	gcCandidates []NodeID
}

func (txn *Txn) Runtime() *Runtime { return txn.rt }

func (txn *Txn) touch(id NodeID) {
	txn.gcCandidates = append(txn.gcCandidates, id)
}

// EnsureBuilt returns id's current value, creating and building the node
// from desc if it doesn't exist yet. Safe to call both from the top level
// (a fresh Read) and recursively from inside another capsule's build (a
// dependency read) -- a node newly created this way can have no
// dependents yet, so there is nothing to traverse beyond itself.
func (txn *Txn) EnsureBuilt(id NodeID, desc Descriptor) any {
	n, ok := txn.rt.nodes[id]
	if !ok {
		n = newNode(id, desc)
		txn.rt.nodes[id] = n
		txn.buildNode(n)
	}
	return n.Value
}

// EnsureBuiltListener is EnsureBuilt for a node that must never be
// considered garbage regardless of purity, used by Listen().
func (txn *Txn) EnsureBuiltListener(id NodeID, desc Descriptor) {
	n, ok := txn.rt.nodes[id]
	if !ok {
		n = newNode(id, desc)
		n.HasListener = true
		txn.rt.nodes[id] = n
		txn.buildNode(n)
		return
	}
	n.HasListener = true
}

// RemoveListener unmarks id as externally listened and disposes its node,
// whether or not its body registered side effects, so it never rebuilds
// again; its former dependencies are left to the end-of-pass GC sweep.
func (txn *Txn) RemoveListener(id NodeID) {
	n, ok := txn.rt.nodes[id]
	if !ok {
		return
	}
	n.HasListener = false
	txn.DisposeNode(id)
}

// Get is invoked from within a capsule body (via the public Ctx) to read
// another capsule, establishing the bidirectional dependency edge that
// invariant 1 (spec §3) requires.
func (txn *Txn) Get(callerID, id NodeID, desc Descriptor) any {
	if callerID == id {
		if n, ok := txn.rt.nodes[id]; ok && n.HasValue {
			return n.Value
		}
		panic(fmt.Sprintf(
			"capsule: %s tried to read itself on its first build; it has no prior "+
				"value to read yet", id))
	}

	if existing, ok := txn.rt.nodes[id]; ok && existing.building {
		panic(fmt.Sprintf("capsule: cyclic dependency detected: %s depends on %s, "+
			"which is still building", callerID, id))
	}

	txn.EnsureBuilt(id, desc)

	dep := txn.rt.nodes[id]
	caller := txn.rt.nodes[callerID]
	caller.link(dep)

	return dep.Value
}

// EffectSlot returns the persistent state for the next positional side
// effect slot on id's current build, creating it via init on first use.
// Re-entering the same slot on a later build always returns the same
// stored object, per the protocol in spec §4.2.
func (txn *Txn) EffectSlot(id NodeID, init func() any) any {
	n := txn.rt.nodes[id]
	i := n.slotCursor
	n.slotCursor++

	if i < len(n.Effects) {
		return n.Effects[i]
	}
	if i != len(n.Effects) {
		panic(fmt.Sprintf(
			"capsule: %s registered side effects out of order (expected slot %d, "+
				"got %d); side effects must be registered in the same order on every build",
			id, len(n.Effects), i))
	}

	state := init()
	n.Effects = append(n.Effects, state)
	return state
}

// OnDispose registers a cleanup to run, in reverse registration order,
// when id's node is disposed.
func (txn *Txn) OnDispose(id NodeID, fn func()) {
	n := txn.rt.nodes[id]
	n.cleanups = append(n.cleanups, fn)
}

// buildNode (re)builds an existing or brand-new node in place and reports
// whether the produced value counts as changed: always true unless the node
// already had a value and its descriptor's Eq reports old and new equal.
func (txn *Txn) buildNode(n *Node) bool {
	if n.building {
		panic(fmt.Sprintf("capsule: cyclic dependency detected at %s", n.ID))
	}
	n.building = true
	defer func() { n.building = false }()

	oldDeps := n.Deps
	n.Deps = make(map[NodeID]struct{})
	n.slotCursor = 0

	newValue := n.Desc.Build(txn, n.ID)

	if n.slotCursor < len(n.Effects) {
		panic(fmt.Sprintf(
			"capsule: %s registered fewer side effects on rebuild (%d) than on a "+
				"previous build (%d)", n.ID, n.slotCursor, len(n.Effects)))
	}

	changed := true
	if n.HasValue && n.Desc.Eq != nil {
		changed = !n.Desc.Eq(n.Value, newValue)
	}

	n.Value = newValue
	n.HasValue = true
	n.SuperPure = n.slotCursor == 0

	// Edges present before this build but not re-established during it are
	// obsolete (spec §4.5 step 6): the dependency's dependents set must
	// drop the reference, and the dependency becomes a GC candidate since
	// it may now be orphaned.
	for dep := range oldDeps {
		if _, still := n.Deps[dep]; !still {
			if depNode, ok := txn.rt.nodes[dep]; ok {
				delete(depNode.Dependents, n.ID)
				txn.touch(dep)
			}
		}
	}

	// The build may have raised n's height (it can now read a deeper
	// dependency); raise its dependents to match so every edge still goes
	// strictly upward, including for dependents this pass does not rebuild.
	raise := []*Node{n}
	for len(raise) > 0 {
		cur := raise[len(raise)-1]
		raise = raise[:len(raise)-1]
		for d := range cur.Dependents {
			if dn, ok := txn.rt.nodes[d]; ok && dn.height <= cur.height {
				dn.height = cur.height + 1
				raise = append(raise, dn)
			}
		}
	}

	txn.touch(n.ID)
	return changed
}

// rebuild is the engine described in spec §4.5: it computes seeds ∪
// transitive dependents, drains that set in topological (height) order,
// and applies the equality-pruning optimisation per node when opted in.
//
// A node is only skipped when every one of its in-set dependencies turned
// out unchanged; a diamond where one in-set dependency is equality-pruned
// but a second actually changed must still rebuild. forcing tracks this:
// a node builds when it is a seed or when forcing[id] was set by some
// already-drained dependency, and after building propagates forcing=true
// to its own in-set dependents only if it changed. Height order guarantees
// every in-set dependency of a node is drained, and has had its chance to
// set forcing, before the node itself is drained.
func (txn *Txn) rebuild(seeds []NodeID) {
	rt := txn.rt

	set := make(map[NodeID]struct{}, len(seeds))
	seedSet := make(map[NodeID]struct{}, len(seeds))
	stack := append([]NodeID{}, seeds...)
	for _, s := range seeds {
		set[s] = struct{}{}
		seedSet[s] = struct{}{}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := rt.nodes[id]
		if !ok {
			continue
		}
		for d := range n.Dependents {
			if _, in := set[d]; !in {
				set[d] = struct{}{}
				stack = append(stack, d)
			}
		}
	}

	queue := newHeightQueue()
	for id := range set {
		if n, ok := rt.nodes[id]; ok {
			queue.insert(n)
		}
	}

	forcing := make(map[NodeID]bool, len(set))
	queue.drain(func(n *Node) {
		_, isSeed := seedSet[n.ID]
		if !isSeed && !forcing[n.ID] {
			return
		}
		if !txn.buildNode(n) {
			return
		}
		for d := range n.Dependents {
			if _, in := set[d]; in {
				forcing[d] = true
			}
		}
	})
}

// garbageCollect removes every super-pure, dependent-less, unlistened node
// reachable from the candidates touched during this transaction, then
// recursively re-checks each removed node's former dependencies to a fixed
// point (spec §4.6).
func (txn *Txn) garbageCollect() {
	rt := txn.rt
	queue := txn.gcCandidates
	txn.gcCandidates = nil

	// queued tracks membership in the pending queue, not "ever visited":
	// a node skipped here because it still had dependents must be free to
	// re-enter once one of those dependents is itself collected.
	queued := make(map[NodeID]bool, len(queue))
	for _, id := range queue {
		queued[id] = true
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		queued[id] = false

		n, ok := rt.nodes[id]
		if !ok {
			continue
		}
		if !(n.SuperPure && len(n.Dependents) == 0 && !n.HasListener) {
			continue
		}

		for dep := range n.Deps {
			if depNode, ok := rt.nodes[dep]; ok {
				delete(depNode.Dependents, id)
			}
			if !queued[dep] {
				queued[dep] = true
				queue = append(queue, dep)
			}
		}
		n.runCleanups()
		delete(rt.nodes, id)
	}
}

// DisposeNode forcibly removes a single node (used for explicit disposal
// of a top-level capsule, independent of GC eligibility). Edges are
// unlinked in both directions: id's dependencies stop listing it as a
// dependent, and anything that still depends on id stops listing id as a
// dependency, so no node is left holding a dangling reference to a
// removed node.
func (txn *Txn) DisposeNode(id NodeID) {
	n, ok := txn.rt.nodes[id]
	if !ok {
		return
	}
	for dep := range n.Deps {
		if depNode, ok := txn.rt.nodes[dep]; ok {
			delete(depNode.Dependents, id)
			txn.touch(dep)
		}
	}
	for dependent := range n.Dependents {
		if depNode, ok := txn.rt.nodes[dependent]; ok {
			delete(depNode.Deps, id)
			txn.touch(dependent)
		}
	}
	n.runCleanups()
	delete(txn.rt.nodes, id)
}
