package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plotline/internal/testutil"
)

func newTestGraph() *Graph[string, testutil.Node] {
	return New[string, testutil.Node]()
}

func TestGraph_InsertGet(t *testing.T) {
	g := newTestGraph()

	_, replaced := g.Insert(testutil.NewNode("a", "1"))
	assert.False(t, replaced)

	got, ok := g.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", got.Value)
	assert.True(t, g.Contains("a"))
	assert.Equal(t, 1, g.Len())
}

func TestGraph_InsertReplaces(t *testing.T) {
	g := newTestGraph()
	g.Insert(testutil.NewNode("a", "1"))

	prev, replaced := g.Insert(testutil.NewNode("a", "2"))
	require.True(t, replaced)
	assert.Equal(t, "1", prev.Value)

	got, _ := g.Get("a")
	assert.Equal(t, "2", got.Value)
	assert.Equal(t, 1, g.Len())
}

func TestGraph_Remove(t *testing.T) {
	g := newTestGraph()
	g.Insert(testutil.NewNode("a", "1"))

	removed, ok := g.Remove("a")
	require.True(t, ok)
	assert.Equal(t, "1", removed.Value)
	assert.False(t, g.Contains("a"))

	_, ok = g.Remove("a")
	assert.False(t, ok, "second removal finds nothing")
}

func TestGraph_GetMissing(t *testing.T) {
	g := newTestGraph()

	got, ok := g.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, testutil.Node{}, got)
}

func TestGraph_GetReturnsCopy(t *testing.T) {
	g := newTestGraph()
	g.Insert(testutil.NewNode("a", "1", "tag"))

	got, _ := g.Get("a")
	got.Tags[0] = "mutated"

	again, _ := g.Get("a")
	assert.Equal(t, "tag", again.Tags[0])
}

func TestGraph_InsertStoresCopy(t *testing.T) {
	g := newTestGraph()
	n := testutil.NewNode("a", "1", "tag")
	g.Insert(n)
	n.Tags[0] = "mutated"

	got, _ := g.Get("a")
	assert.Equal(t, "tag", got.Tags[0])
}

func TestGraph_NodesSorted(t *testing.T) {
	g := newTestGraph()
	for _, k := range []string{"c", "a", "b"} {
		g.Insert(testutil.NewNode(k, k))
	}

	nodes := g.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, "a", nodes[0].Key)
	assert.Equal(t, "b", nodes[1].Key)
	assert.Equal(t, "c", nodes[2].Key)
}

func TestClone_NonCloner(t *testing.T) {
	assert.Equal(t, 42, Clone(42))
}
