package schema

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plotline/internal/testutil"
)

func TestContext_ReadYourOwnWrites(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()

	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("a", "1"))

	got, ok := ctx.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", got.Value)
	assert.True(t, ctx.Contains("a"))

	_, inGraph := s.graph.Get("a")
	assert.False(t, inGraph, "graph is untouched before commit")
}

func TestContext_LastWriteWins(t *testing.T) {
	s := newTestSchema(t)
	seed(t, s, testutil.NewNode("a", "graph"))

	tx := s.Transaction()
	defer tx.Rollback()
	ctx := tx.Begin()

	got, _ := ctx.Get("a")
	assert.Equal(t, "graph", got.Value, "no pending op falls back to graph")

	ctx.Save(testutil.NewNode("a", "1"))
	ctx.Save(testutil.NewNode("a", "2"))
	got, _ = ctx.Get("a")
	assert.Equal(t, "2", got.Value)

	ctx.Delete("a")
	_, ok := ctx.Get("a")
	assert.False(t, ok)
	assert.False(t, ctx.Contains("a"))

	ctx.Save(testutil.NewNode("a", "3"))
	got, ok = ctx.Get("a")
	require.True(t, ok)
	assert.Equal(t, "3", got.Value)
}

func TestContext_DeleteAfterSaveHidesValue(t *testing.T) {
	s := newTestSchema(t)
	seed(t, s, testutil.NewNode("a", "graph"))

	tx := s.Transaction()
	defer tx.Rollback()
	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("a", "1"))
	ctx.Delete("a")

	_, ok := ctx.Get("a")
	assert.False(t, ok)
	got, inGraph := s.graph.Get("a")
	require.True(t, inGraph)
	assert.Equal(t, "graph", got.Value)
}

func TestContext_GetMatchesLastOperation(t *testing.T) {
	s := newTestSchema(t)
	seed(t, s, testutil.NewNode("k2", "graph"), testutil.NewNode("k4", "graph"))

	tx := s.Transaction()
	defer tx.Rollback()
	ctx := tx.Begin()

	// Deterministic interleaving of saves and deletes over five keys.
	expected := map[string]string{"k2": "graph", "k4": "graph"}
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("k%d", (i*7)%5)
		if i%3 == 0 {
			ctx.Delete(key)
			delete(expected, key)
			continue
		}
		value := fmt.Sprintf("v%d", i)
		ctx.Save(testutil.NewNode(key, value))
		expected[key] = value
	}

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("k%d", i)
		got, ok := ctx.Get(key)
		want, exists := expected[key]
		assert.Equal(t, exists, ok, key)
		assert.Equal(t, exists, ctx.Contains(key), "contains consistent with get for %s", key)
		if exists {
			assert.Equal(t, want, got.Value, key)
		}
	}
}

func TestContext_GetReturnsCopy(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()
	ctx := tx.Begin()

	n := testutil.NewNode("a", "1", "tag")
	ctx.Save(n)
	n.Tags[0] = "mutated-after-save"

	got, _ := ctx.Get("a")
	assert.Equal(t, "tag", got.Tags[0])
	got.Tags[0] = "mutated-after-get"

	again, _ := ctx.Get("a")
	assert.Equal(t, "tag", again.Tags[0])
}

func TestContext_SharedLogAcrossContexts(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()

	c1 := tx.Begin()
	c2 := tx.Begin()
	c1.Save(testutil.NewNode("a", "1"))

	got, ok := c2.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", got.Value)
	assert.Len(t, c2.Operations(), 1)
}

func TestContext_Target(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()

	ctx := tx.Begin()
	_, ok := ctx.Target()
	assert.False(t, ok)

	same := ctx.WithTarget(testutil.NewNode("a", "1"))
	assert.Same(t, ctx, same)
	target, ok := ctx.Target()
	require.True(t, ok)
	assert.Equal(t, "a", target.NodeID())
}

func TestContext_Node(t *testing.T) {
	s := newTestSchema(t)
	seed(t, s, testutil.NewNode("a", "graph"))

	tx := s.Transaction()
	defer tx.Rollback()
	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("b", "staged"))

	a := ctx.Node("a")
	b := ctx.Node("b")
	missing := ctx.Node("c")

	got, ok := a.Get()
	require.True(t, ok)
	assert.Equal(t, "graph", got.Value)
	got, ok = b.Get()
	require.True(t, ok)
	assert.Equal(t, "staged", got.Value)
	assert.False(t, missing.Exists())
}

func TestContext_Registries(t *testing.T) {
	s := newTestSchema(t)
	s.Resources().Set("answer", 42)

	tx := s.Transaction()
	defer tx.Rollback()
	ctx := tx.Begin()

	assert.Same(t, s.Resources(), ctx.Resources())
	assert.Same(t, s.Triggers(), ctx.Triggers())
	v, ok := Lookup[int](ctx.Resources(), "answer")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestContext_NodesMergesLogOverSource(t *testing.T) {
	s := newTestSchema(t)
	seed(t, s, testutil.NewNode("a", "1"), testutil.NewNode("b", "2"))

	tx := s.Transaction()
	defer tx.Rollback()
	ctx := tx.Begin()
	defer ctx.Close()

	ctx.Save(testutil.NewNode("c", "3"))
	ctx.Save(testutil.NewNode("a", "10"))
	ctx.Delete("b")

	nodes := ctx.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].Key)
	assert.Equal(t, "10", nodes[0].Value)
	assert.Equal(t, "c", nodes[1].Key)

	nested := ctx.Transaction()
	defer nested.Rollback()
	nctx := nested.Begin()
	defer nctx.Close()

	// Nested scopes enumerate the parent's source, not its staged log.
	keys := make([]string, 0)
	for _, n := range nctx.Nodes() {
		keys = append(keys, n.Key)
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestContext_WritesAfterCloseIgnored(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()

	ctx := tx.Begin()
	ctx.Close()
	ctx.Close()
	ctx.Save(testutil.NewNode("a", "1"))
	ctx.Delete("b")

	assert.True(t, ctx.Closed())
	assert.Empty(t, ctx.Operations())
	assert.False(t, ctx.Contains("a"))
}

func TestBackground_CommitAppliesInOrder(t *testing.T) {
	s := newTestSchema(t)
	seed(t, s, testutil.NewNode("gone", "x"))

	tx := s.Transaction()
	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("a", "1"))
	ctx.Save(testutil.NewNode("a", "2"))
	ctx.Save(testutil.NewNode("b", "1"))
	ctx.Delete("b")
	ctx.Delete("gone")
	ctx.Delete("never-existed")
	ctx.Close()

	require.NoError(t, tx.Commit())

	a, ok := graphGet(s, "a")
	require.True(t, ok)
	assert.Equal(t, "2", a.Value)
	_, ok = graphGet(s, "b")
	assert.False(t, ok)
	_, ok = graphGet(s, "gone")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestBackground_EndToEnd(t *testing.T) {
	s := newTestSchema(t)

	tx := s.Transaction()
	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("A", "a"))

	got, ok := ctx.Get("A")
	require.True(t, ok)
	assert.Equal(t, "a", got.Value)
	assert.Equal(t, 0, s.graph.Len(), "graph still empty")

	ctx.Close()
	require.NoError(t, tx.Commit())

	stored, ok := graphGet(s, "A")
	require.True(t, ok)
	assert.Equal(t, "a", stored.Value)
}

func TestBackground_CommitRefusedWhileContextOpen(t *testing.T) {
	s := newTestSchema(t)

	tx := s.Transaction()
	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("a", "1"))

	err := tx.Commit()
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeContextsInUse))

	var te *TxError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Pending)

	assert.Equal(t, 0, s.Len(), "refused commit applies nothing")

	// The guard is released: a new transaction can begin.
	tx2 := s.Transaction()
	c2 := tx2.Begin()
	c2.Close()
	tx2.Rollback()
}

func TestBackground_WritesAfterRefusedCommitAreLogged(t *testing.T) {
	var buf bytes.Buffer
	s := New[string, testutil.Node](WithName("test"), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	tx := s.Transaction()
	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("a", "1"))
	require.Error(t, tx.Commit())

	ctx.Save(testutil.NewNode("b", "2"))
	ctx.Delete("a")

	assert.Empty(t, ctx.Operations())
	assert.False(t, ctx.Contains("b"))
	assert.Equal(t, 2, strings.Count(buf.String(), "write on finished transaction ignored"))

	ctx.Close()
	assert.Equal(t, 0, s.Len())
}

func TestBackground_CommitUninitialized(t *testing.T) {
	s := newTestSchema(t)

	err := s.Transaction().Commit()
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeUninitialized))
}

func TestBackground_CommitTwice(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	tx.Begin().Close()
	require.NoError(t, tx.Commit())

	err := tx.Commit()
	assert.True(t, IsCode(err, ErrCodeClosed))
}

func TestBackground_RollbackDiscards(t *testing.T) {
	s := newTestSchema(t)

	tx := s.Transaction()
	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("a", "1"))
	ctx.Close()
	tx.Rollback()
	tx.Rollback()

	assert.Equal(t, 0, s.Len())
	assert.True(t, IsCode(tx.Commit(), ErrCodeClosed))
}

func TestBackground_RollbackAfterCommitIsNoop(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("a", "1"))
	ctx.Close()
	require.NoError(t, tx.Commit())

	tx.Rollback()
	assert.Equal(t, 1, s.Len())
}

func TestBackground_BeginAfterEndIsReadOnly(t *testing.T) {
	s := newTestSchema(t)
	seed(t, s, testutil.NewNode("a", "1"))

	tx := s.Transaction()
	tx.Rollback()

	ctx := tx.Begin()
	assert.True(t, ctx.Closed())
	assert.True(t, ctx.Contains("a"))
	ctx.Save(testutil.NewNode("b", "2"))
	assert.False(t, ctx.Contains("b"))
}

func TestBackground_GuardAcquiredOnce(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()

	c1 := tx.Begin()
	c2 := tx.Begin()
	assert.Same(t, c1.source, c2.source, "contexts share one write guard")
	c1.Close()
	c2.Close()
}

func TestBackground_SecondBeginBlocks(t *testing.T) {
	s := newTestSchema(t)

	tx1 := s.Transaction()
	c1 := tx1.Begin()
	c1.Save(testutil.NewNode("a", "1"))

	began := make(chan *Context[string, testutil.Node])
	go func() {
		tx2 := s.Transaction()
		ctx := tx2.Begin()
		began <- ctx
		ctx.Close()
		tx2.Rollback()
	}()

	select {
	case <-began:
		t.Fatal("second Begin must block while the first transaction holds the guard")
	case <-time.After(50 * time.Millisecond):
	}

	c1.Close()
	require.NoError(t, tx1.Commit())

	select {
	case ctx := <-began:
		assert.True(t, ctx.Contains("a"), "second transaction sees the first commit")
	case <-time.After(time.Second):
		t.Fatal("second Begin did not unblock after commit")
	}
}

func TestBackground_SecondBeginUnblocksOnRollback(t *testing.T) {
	s := newTestSchema(t)

	tx1 := s.Transaction()
	tx1.Begin().Close()

	done := make(chan struct{})
	go func() {
		tx2 := s.Transaction()
		tx2.Begin().Close()
		tx2.Rollback()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second Begin must block")
	case <-time.After(50 * time.Millisecond):
	}

	tx1.Rollback()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Begin did not unblock after rollback")
	}
}

func TestBackground_ConcurrentContexts(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		ctx := tx.Begin()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer ctx.Close()
			for j := 0; j < 25; j++ {
				key := fmt.Sprintf("n-%d-%d", i, j)
				ctx.Save(testutil.NewNode(key, key))
				assert.True(t, ctx.Contains(key))
			}
		}(i)
	}
	wg.Wait()

	require.NoError(t, tx.Commit())
	assert.Equal(t, 200, s.Len())
}

func TestForeground_CommitAppendsAfterParent(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()

	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("p1", "1"))
	ctx.Delete("p2")

	nested := ctx.Transaction()
	nctx := nested.Begin()
	nctx.Save(testutil.NewNode("n1", "1"))
	nctx.Delete("n2")
	nctx.Close()
	require.NoError(t, nested.Commit())

	ops := ctx.Operations()
	require.Len(t, ops, 4)
	assert.Equal(t, "p1", ops[0].NodeID())
	assert.Equal(t, OpSave, ops[0].Kind())
	assert.Equal(t, "p2", ops[1].NodeID())
	assert.Equal(t, OpDelete, ops[1].Kind())
	assert.Equal(t, "n1", ops[2].NodeID())
	assert.Equal(t, "n2", ops[3].NodeID())
	assert.Equal(t, OpDelete, ops[3].Kind())
}

func TestForeground_RollbackLeavesParentUntouched(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()

	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("p1", "1"))
	before := ctx.Operations()

	nested := ctx.Transaction()
	nctx := nested.Begin()
	nctx.Save(testutil.NewNode("n1", "1"))
	nctx.Close()
	nested.Rollback()
	nested.Rollback()

	assert.Equal(t, before, ctx.Operations())
	assert.False(t, ctx.Contains("n1"))
	assert.True(t, IsCode(nested.Commit(), ErrCodeClosed))
}

func TestForeground_UncommittedIsInvisible(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()

	ctx := tx.Begin()
	nested := ctx.Transaction()
	nctx := nested.Begin()
	nctx.Save(testutil.NewNode("n1", "1"))

	assert.True(t, nctx.Contains("n1"))
	assert.False(t, ctx.Contains("n1"), "nested writes invisible until commit")
}

func TestForeground_ReadsParentSourceNotParentLog(t *testing.T) {
	s := newTestSchema(t)
	seed(t, s, testutil.NewNode("g", "graph"))

	tx := s.Transaction()
	defer tx.Rollback()
	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("p", "parent"))

	nctx := ctx.Transaction().Begin()
	assert.True(t, nctx.Contains("g"))
	assert.False(t, nctx.Contains("p"))
}

func TestForeground_CommitRefusedWhileContextOpen(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()

	ctx := tx.Begin()
	nested := ctx.Transaction()
	nctx := nested.Begin()
	nctx.Save(testutil.NewNode("n1", "1"))

	err := nested.Commit()
	assert.True(t, IsCode(err, ErrCodeContextsInUse))
	assert.Empty(t, ctx.Operations())
}

func TestForeground_CommitRefusedIntoClosedParent(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()

	ctx := tx.Begin()
	nested := ctx.Transaction()
	nctx := nested.Begin()
	nctx.Save(testutil.NewNode("n1", "1"))
	nctx.Close()
	ctx.Close()

	err := nested.Commit()
	assert.True(t, IsCode(err, ErrCodeParentClosed))
	assert.Empty(t, ctx.Operations())
}

func TestForeground_CommitRefusedIntoFinishedParentScope(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()

	ctx := tx.Begin()
	nested := ctx.Transaction()
	nctx := nested.Begin()
	nctx.Save(testutil.NewNode("n1", "1"))
	nctx.Close()

	tx.Rollback()
	require.False(t, ctx.Closed())

	err := nested.Commit()
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeParentClosed))

	var te *TxError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Pending)
	assert.Empty(t, ctx.Operations())

	ctx.Close()
	assert.Equal(t, 0, s.Len())
}

func TestForeground_EndToEnd(t *testing.T) {
	s := newTestSchema(t)

	tx := s.Transaction()
	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("A", "a"))

	nested := ctx.Transaction()
	nctx := nested.Begin()
	nctx.Save(testutil.NewNode("B", "b"))
	nctx.Close()
	require.NoError(t, nested.Commit())

	got, ok := ctx.Get("B")
	require.True(t, ok)
	assert.Equal(t, "b", got.Value)

	ops := ctx.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "A", ops[0].NodeID())
	assert.Equal(t, "B", ops[1].NodeID())

	ctx.Close()
	require.NoError(t, tx.Commit())

	nodes := s.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "A", nodes[0].Key)
	assert.Equal(t, "B", nodes[1].Key)
}

func TestForeground_NestedTwice(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()

	ctx := tx.Begin()
	outer := ctx.Transaction()
	octx := outer.Begin()

	inner := octx.Transaction()
	ictx := inner.Begin()
	ictx.Save(testutil.NewNode("deep", "1"))
	ictx.Close()
	require.NoError(t, inner.Commit())
	assert.True(t, octx.Contains("deep"))

	octx.Close()
	require.NoError(t, outer.Commit())
	ctx.Close()
	require.NoError(t, tx.Commit())

	_, ok := graphGet(s, "deep")
	assert.True(t, ok)
}

func TestForeground_BeginAfterEndIsReadOnly(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	defer tx.Rollback()
	ctx := tx.Begin()

	nested := ctx.Transaction()
	nested.Rollback()

	nctx := nested.Begin()
	assert.True(t, nctx.Closed())
	nctx.Save(testutil.NewNode("x", "1"))
	assert.False(t, nctx.Contains("x"))
}

func TestContext_ReadsAfterCommitFallBackToGraph(t *testing.T) {
	s := newTestSchema(t)
	tx := s.Transaction()
	ctx := tx.Begin()
	ctx.Save(testutil.NewNode("a", "1"))
	ctx.Close()
	require.NoError(t, tx.Commit())

	// The log was drained; the released guard reads through the schema.
	got, ok := ctx.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", got.Value)
}
