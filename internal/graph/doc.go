// Package graph holds identified nodes.
//
// A Graph is the canonical, mutable collection of nodes of one type. It is
// not safe for concurrent use on its own: callers reach it through a
// schema.Schema, which arbitrates access with a single-writer guard.
//
// Source is the read-only view shared by graphs, write guards, and
// transaction contexts, so any of them can stand in wherever a read-only
// view is expected.
package graph
