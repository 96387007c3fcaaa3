package schema

import (
	"cmp"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/plotline/internal/graph"
	"github.com/roach88/plotline/internal/id"
)

// Context is the staging view bound to one transaction scope.
//
// It overlays the scope's operation log on top of a read source, so reads
// see writes staged earlier in the same scope. A Context holds one
// reference to the log until Close; the owning transaction cannot commit
// while any of its contexts is open.
//
// A Context is safe for concurrent use.
type Context[K cmp.Ordered, T id.Identifiable[K]] struct {
	schema *Schema[K, T]
	source graph.Source[K, T]
	log    *oplog[K, T]
	closed atomic.Bool

	mu     sync.RWMutex
	target *T
}

func newContext[K cmp.Ordered, T id.Identifiable[K]](s *Schema[K, T], source graph.Source[K, T], log *oplog[K, T]) *Context[K, T] {
	return &Context[K, T]{schema: s, source: source, log: log.acquire()}
}

// closedContext returns a read-only context over source, for Begin calls on
// finished transactions.
func closedContext[K cmp.Ordered, T id.Identifiable[K]](s *Schema[K, T], source graph.Source[K, T]) *Context[K, T] {
	c := &Context[K, T]{schema: s, source: source, log: newOplog[K, T]()}
	c.closed.Store(true)
	return c
}

// Get returns the node identified by k as seen by this transaction scope.
func (c *Context[K, T]) Get(k K) (T, bool) {
	if op, ok := c.log.find(k); ok {
		return op.Node()
	}
	return c.source.Get(k)
}

// Contains reports whether the node identified by k exists in this
// transaction scope. Consistent with Get.
func (c *Context[K, T]) Contains(k K) bool {
	if op, ok := c.log.find(k); ok {
		return op.Kind() == OpSave
	}
	return c.source.Contains(k)
}

// Nodes returns every node visible in this transaction scope, in ascending
// id order. Only sources implementing graph.Lister contribute nodes that
// were not staged in this scope.
func (c *Context[K, T]) Nodes() []T {
	nodes := make(map[K]T)
	for _, n := range graph.List(c.source) {
		nodes[n.NodeID()] = n
	}
	for _, op := range c.log.snapshot() {
		if op.Kind() == OpDelete {
			delete(nodes, op.NodeID())
			continue
		}
		n, _ := op.Node()
		nodes[op.NodeID()] = n
	}

	keys := slices.Sorted(maps.Keys(nodes))
	out := make([]T, len(keys))
	for i, k := range keys {
		out[i] = nodes[k]
	}
	return out
}

// Save stages node to be written on commit.
func (c *Context[K, T]) Save(node T) {
	c.stage("save", saveOp[K](node))
}

// Delete stages the removal of the node identified by k.
func (c *Context[K, T]) Delete(k K) {
	c.stage("delete", deleteOp[K, T](k))
}

func (c *Context[K, T]) stage(kind string, op Operation[K, T]) {
	msg := ""
	switch {
	case c.closed.Load():
		msg = "write on closed context ignored"
	case !c.log.append(op):
		msg = "write on finished transaction ignored"
	default:
		return
	}
	c.schema.logger.Warn(msg,
		"schema", c.schema.name,
		"operation", kind,
		"id", op.NodeID(),
	)
}

// Node returns a lazy proxy for the node identified by k, read through
// this context.
func (c *Context[K, T]) Node(k K) *graph.NodeProxy[K, T] {
	return graph.NewNodeProxy[K, T](c, k)
}

// WithTarget attaches the node this context is about and returns c.
func (c *Context[K, T]) WithTarget(target T) *Context[K, T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = &target
	return c
}

// Target returns the node attached with WithTarget.
func (c *Context[K, T]) Target() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.target == nil {
		var zero T
		return zero, false
	}
	return *c.target, true
}

// Resources returns the schema's resource registry.
func (c *Context[K, T]) Resources() *ResourceSet {
	return c.schema.Resources()
}

// Triggers returns the schema's trigger registry.
func (c *Context[K, T]) Triggers() *TriggerSet[K, T] {
	return c.schema.Triggers()
}

// Transaction opens a Foreground transaction nested in c.
func (c *Context[K, T]) Transaction() *Foreground[K, T] {
	return newForeground(c)
}

// Operations returns a copy of the staged operations, oldest first.
func (c *Context[K, T]) Operations() []Operation[K, T] {
	return c.log.snapshot()
}

// Close releases the context's reference to the operation log. Reads keep
// working after Close; writes are ignored. Safe to call more than once.
func (c *Context[K, T]) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.log.release()
	}
}

// Closed reports whether Close has been called.
func (c *Context[K, T]) Closed() bool {
	return c.closed.Load()
}
