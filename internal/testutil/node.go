package testutil

import (
	"io"
	"log/slog"
	"slices"
)

// Node is a minimal identified value for exercising graphs and schemas.
//
// Tags is a reference field, so Node implements Clone to prove that reads
// hand out copies rather than aliases of stored state.
type Node struct {
	Key   string
	Value string
	Tags  []string
}

// NewNode creates a Node with the given key and value.
func NewNode(key, value string, tags ...string) Node {
	return Node{Key: key, Value: value, Tags: tags}
}

// NodeID implements id.Identifiable.
func (n Node) NodeID() string {
	return n.Key
}

// Clone implements graph.Cloner.
func (n Node) Clone() Node {
	n.Tags = slices.Clone(n.Tags)
	return n
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
