package graph

import (
	"cmp"
	"slices"

	"github.com/roach88/plotline/internal/id"
)

// Source is a read-only view over identified nodes.
//
// Get returns a copy of the node, never a live reference into the backing
// state. Neither method has side effects.
type Source[K cmp.Ordered, T id.Identifiable[K]] interface {
	Get(k K) (T, bool)
	Contains(k K) bool
}

// Lister is implemented by sources able to enumerate their nodes. Nodes
// returns copies in ascending identifier order.
type Lister[T any] interface {
	Nodes() []T
}

// List returns the nodes of src when it implements Lister, nil otherwise.
func List[K cmp.Ordered, T id.Identifiable[K]](src Source[K, T]) []T {
	if l, ok := src.(Lister[T]); ok {
		return l.Nodes()
	}
	return nil
}

// Cloner is implemented by node types holding reference fields (maps,
// slices, pointers) that must be deep-copied before leaving a Source.
type Cloner[T any] interface {
	Clone() T
}

// Clone returns v.Clone() when T implements Cloner, v otherwise.
func Clone[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// Graph is an in-memory collection of nodes keyed by their identifier.
type Graph[K cmp.Ordered, T id.Identifiable[K]] struct {
	nodes map[K]T
}

// New creates an empty graph.
func New[K cmp.Ordered, T id.Identifiable[K]]() *Graph[K, T] {
	return &Graph[K, T]{nodes: make(map[K]T)}
}

// Get returns a copy of the node identified by k.
func (g *Graph[K, T]) Get(k K) (T, bool) {
	node, ok := g.nodes[k]
	if !ok {
		var zero T
		return zero, false
	}
	return Clone(node), true
}

// Contains reports whether a node identified by k exists.
func (g *Graph[K, T]) Contains(k K) bool {
	_, ok := g.nodes[k]
	return ok
}

// Insert stores node, replacing any node with the same identifier.
// Returns the replaced node, if any.
func (g *Graph[K, T]) Insert(node T) (T, bool) {
	k := node.NodeID()
	prev, replaced := g.nodes[k]
	g.nodes[k] = Clone(node)
	return prev, replaced
}

// Remove deletes the node identified by k and returns it, if any.
func (g *Graph[K, T]) Remove(k K) (T, bool) {
	prev, ok := g.nodes[k]
	if ok {
		delete(g.nodes, k)
	}
	return prev, ok
}

// Len returns the number of nodes.
func (g *Graph[K, T]) Len() int {
	return len(g.nodes)
}

// Nodes returns copies of all nodes in ascending identifier order.
func (g *Graph[K, T]) Nodes() []T {
	keys := make([]K, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	nodes := make([]T, len(keys))
	for i, k := range keys {
		nodes[i] = Clone(g.nodes[k])
	}
	return nodes
}
