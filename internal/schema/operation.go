package schema

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/plotline/internal/graph"
	"github.com/roach88/plotline/internal/id"
)

// OpKind distinguishes operation variants.
type OpKind int

const (
	// OpSave writes a full node.
	OpSave OpKind = iota + 1
	// OpDelete removes a node by id.
	OpDelete
)

// String returns "save" or "delete".
func (k OpKind) String() string {
	switch k {
	case OpSave:
		return "save"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Operation is a buffered intent to save or delete one node.
// Operations are immutable once created.
type Operation[K cmp.Ordered, T id.Identifiable[K]] struct {
	kind OpKind
	key  K
	node T
}

func saveOp[K cmp.Ordered, T id.Identifiable[K]](node T) Operation[K, T] {
	return Operation[K, T]{kind: OpSave, key: node.NodeID(), node: graph.Clone(node)}
}

func deleteOp[K cmp.Ordered, T id.Identifiable[K]](k K) Operation[K, T] {
	return Operation[K, T]{kind: OpDelete, key: k}
}

// Kind returns the operation variant.
func (o Operation[K, T]) Kind() OpKind {
	return o.kind
}

// NodeID returns the id of the payload: the node's id for a save, the deleted
// id for a delete.
func (o Operation[K, T]) NodeID() K {
	return o.key
}

// Node returns the saved node. It reports false for deletes.
func (o Operation[K, T]) Node() (T, bool) {
	if o.kind != OpSave {
		var zero T
		return zero, false
	}
	return graph.Clone(o.node), true
}

// oplog is the ordered, shared operation log of one transaction scope.
//
// refs counts owners: the transaction itself plus one per open Context.
// The log is appended and scanned under mu; the lock is never held across
// a caller-visible operation.
type oplog[K cmp.Ordered, T id.Identifiable[K]] struct {
	mu     sync.RWMutex
	ops    []Operation[K, T]
	sealed bool
	refs   atomic.Int64
}

// newOplog returns a log owned by its creator alone.
func newOplog[K cmp.Ordered, T id.Identifiable[K]]() *oplog[K, T] {
	l := &oplog[K, T]{}
	l.refs.Store(1)
	return l
}

func (l *oplog[K, T]) acquire() *oplog[K, T] {
	l.refs.Add(1)
	return l
}

func (l *oplog[K, T]) release() {
	l.refs.Add(-1)
}

// sole reports whether the creator is the only remaining owner.
func (l *oplog[K, T]) sole() bool {
	return l.refs.Load() == 1
}

// append adds ops to the end of the log. Returns false, adding nothing,
// once the log has been sealed.
func (l *oplog[K, T]) append(ops ...Operation[K, T]) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sealed {
		return false
	}
	l.ops = append(l.ops, ops...)
	return true
}

// find returns the most recent operation on k.
func (l *oplog[K, T]) find(k K) (Operation[K, T], bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.ops) - 1; i >= 0; i-- {
		if l.ops[i].key == k {
			return l.ops[i], true
		}
	}
	return Operation[K, T]{}, false
}

func (l *oplog[K, T]) snapshot() []Operation[K, T] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.ops)
}

func (l *oplog[K, T]) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ops)
}

// seal empties the log for good and returns what it held. Later appends
// are refused.
func (l *oplog[K, T]) seal() []Operation[K, T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	ops := l.ops
	l.ops = nil
	l.sealed = true
	return ops
}
