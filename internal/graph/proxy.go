package graph

import (
	"cmp"
	"sync"

	"github.com/roach88/plotline/internal/id"
)

// NodeProxy is a lazy handle to one node of a Source.
//
// The node is fetched on the first call to Get, Ptr or Exists and cached
// for every later call, so repeated access to the same id does not hit the
// Source again. A proxy is safe for concurrent use.
type NodeProxy[K cmp.Ordered, T id.Identifiable[K]] struct {
	source Source[K, T]
	id     K

	once  sync.Once
	node  T
	found bool
}

// NewNodeProxy returns a proxy for the node identified by k in source.
func NewNodeProxy[K cmp.Ordered, T id.Identifiable[K]](source Source[K, T], k K) *NodeProxy[K, T] {
	return &NodeProxy[K, T]{source: source, id: k}
}

// NodeID returns the identifier the proxy was built for.
func (p *NodeProxy[K, T]) NodeID() K {
	return p.id
}

func (p *NodeProxy[K, T]) load() {
	p.once.Do(func() {
		p.node, p.found = p.source.Get(p.id)
	})
}

// Get returns a copy of the cached node.
func (p *NodeProxy[K, T]) Get() (T, bool) {
	p.load()
	if !p.found {
		var zero T
		return zero, false
	}
	return Clone(p.node), true
}

// Ptr returns a pointer to the cached node, or nil if the node did not
// exist when it was fetched. Changes made through the pointer affect the
// cache only; they reach the graph only when saved through a transaction.
func (p *NodeProxy[K, T]) Ptr() *T {
	p.load()
	if !p.found {
		return nil
	}
	return &p.node
}

// Exists reports whether the node existed when it was fetched.
func (p *NodeProxy[K, T]) Exists() bool {
	p.load()
	return p.found
}
