package internal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucetgraph/capsule/internal"
)

func intDescriptor(v int) internal.Descriptor {
	return internal.Descriptor{
		Build: func(txn *internal.Txn, id internal.NodeID) any { return v },
	}
}

func TestEnsureBuiltIsIdempotent(t *testing.T) {
	rt := internal.NewRuntime()
	id := internal.StaticNodeID(1)

	var first, second any
	rt.WithWrite(func(txn *internal.Txn) {
		first = txn.EnsureBuilt(id, intDescriptor(7))
		second = txn.EnsureBuilt(id, intDescriptor(99))
	})

	assert.Equal(t, 7, first)
	assert.Equal(t, 7, second, "a second EnsureBuilt for an existing node must not rebuild it")
}

func TestReentrantWriteFromSameGoroutinePanics(t *testing.T) {
	rt := internal.NewRuntime()

	assert.Panics(t, func() {
		rt.WithWrite(func(txn *internal.Txn) {
			rt.WithWrite(func(txn *internal.Txn) {})
		})
	})
}

func TestGarbageCollectCascadesToFormerDependencies(t *testing.T) {
	rt := internal.NewRuntime()
	leafID := internal.StaticNodeID(10)
	midID := internal.StaticNodeID(11)
	topID := internal.StaticNodeID(12)

	leafDesc := intDescriptor(1)
	midDesc := internal.Descriptor{
		Build: func(txn *internal.Txn, id internal.NodeID) any {
			return txn.Get(id, leafID, leafDesc).(int) + 1
		},
	}
	topDesc := internal.Descriptor{
		Build: func(txn *internal.Txn, id internal.NodeID) any {
			return txn.Get(id, midID, midDesc).(int) + 1
		},
	}

	rt.WithWrite(func(txn *internal.Txn) {
		txn.EnsureBuilt(topID, topDesc)
	})

	_, ok := rt.TryReadAll([]internal.NodeID{topID, midID, leafID})
	assert.False(t, ok, "the whole chain is super-pure and unlistened, so it must be collected right after the read")
}
