package internal

import "fmt"

// NodeID is the identity of one memoised node in the graph. A static
// capsule's identity is its build function's code pointer; a dynamic
// (family) capsule's identity additionally carries the comparable key it
// was looked up with, so two different keys on the same family occupy
// distinct nodes (spec §2: "capsule identity").
type NodeID struct {
	fn  uintptr
	key any
}

// StaticNodeID identifies a capsule with no family key.
func StaticNodeID(fn uintptr) NodeID {
	return NodeID{fn: fn}
}

// DynamicNodeID identifies one member of a capsule family. family is a
// stable pointer distinguishing the family itself (not the key), since a
// closure generated fresh per lookup call would otherwise share a single
// code pointer with every other lookup from the same call site.
func DynamicNodeID(family uintptr, key any) NodeID {
	return NodeID{fn: family, key: key}
}

func (id NodeID) String() string {
	if id.key == nil {
		return fmt.Sprintf("capsule#%x", id.fn)
	}
	return fmt.Sprintf("capsule#%x[%v]", id.fn, id.key)
}
