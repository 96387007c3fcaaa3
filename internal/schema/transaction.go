package schema

import (
	"cmp"
	"sync"

	"github.com/roach88/plotline/internal/id"
)

// Transaction is a set of operations that must be applied as a whole.
type Transaction[K cmp.Ordered, T id.Identifiable[K]] interface {
	// Begin returns a new Context staging into the transaction.
	Begin() *Context[K, T]
	// Commit applies the staged operations. A refused commit applies
	// nothing and ends the transaction.
	Commit() error
	// Rollback discards the staged operations. No-op once the transaction
	// has ended.
	Rollback()
}

type txState int

const (
	txActive txState = iota
	txCommitted
	txRolledBack
)

// Background is the root of a transaction scope.
//
// States: uninitialized (no guard) -> active (guard held, log
// accumulating) -> committed | rolled back. The schema's write guard is
// acquired by the first Begin and held until the transaction ends, so a
// second Background against the same schema blocks in Begin until this
// one commits or rolls back.
type Background[K cmp.Ordered, T id.Identifiable[K]] struct {
	schema *Schema[K, T]
	log    *oplog[K, T]

	mu    sync.Mutex
	state txState
	once  sync.Once
	guard *WriteGuard[K, T]
}

// NewBackground creates a Background transaction against s.
func NewBackground[K cmp.Ordered, T id.Identifiable[K]](s *Schema[K, T]) *Background[K, T] {
	return &Background[K, T]{schema: s, log: newOplog[K, T]()}
}

// Begin returns a new Context sharing the transaction's log, acquiring the
// schema's write guard on first call. Blocks while another transaction
// holds the guard.
//
// Begin on a finished transaction returns a closed, read-only context.
func (b *Background[K, T]) Begin() *Context[K, T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != txActive {
		return closedContext[K, T](b.schema, viewSource[K, T]{b.schema})
	}

	b.once.Do(func() {
		b.guard = b.schema.Write()
		b.schema.logger.Debug("write guard acquired", "schema", b.schema.name)
	})

	return newContext(b.schema, b.guard, b.log)
}

// Commit applies the log to the graph in append order.
//
// Commit is refused when Begin was never called or when a Context derived
// from this transaction is still open. A refused commit is logged, applies
// nothing and ends the transaction.
//
// Individual insert and remove outcomes (a save replacing a node, a
// delete finding nothing) are not reported.
func (b *Background[K, T]) Commit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != txActive {
		return b.refuse(ErrCodeClosed, "committing finished transaction", 0)
	}
	b.state = txCommitted
	defer b.release()

	if b.guard == nil {
		return b.refuse(ErrCodeUninitialized, "committing uninitialized transaction", b.log.size())
	}
	if !b.log.sole() {
		return b.refuse(ErrCodeContextsInUse, "committing transaction with contexts yet in use", b.log.size())
	}

	ops := b.log.seal()
	for _, op := range ops {
		switch op.Kind() {
		case OpSave:
			node, _ := op.Node()
			if _, replaced := b.guard.Insert(node); replaced {
				b.schema.logger.Debug("commit replaced node", "schema", b.schema.name, "id", op.NodeID())
			}
		case OpDelete:
			if _, removed := b.guard.Remove(op.NodeID()); !removed {
				b.schema.logger.Debug("commit removed missing node", "schema", b.schema.name, "id", op.NodeID())
			}
		}
	}

	b.schema.logger.Debug("transaction committed",
		"schema", b.schema.name,
		"operations", len(ops),
	)
	return nil
}

// Rollback discards the log and releases the write guard. Safe to call
// more than once and after Commit.
func (b *Background[K, T]) Rollback() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != txActive {
		return
	}
	b.state = txRolledBack
	b.release()

	b.schema.logger.Debug("transaction rolled back", "schema", b.schema.name)
}

// release discards pending operations, seals the log and gives up the
// guard. Writes through contexts still open are refused and logged.
// Caller holds b.mu.
func (b *Background[K, T]) release() {
	b.log.seal()
	if b.guard != nil {
		b.guard.Release()
	}
}

func (b *Background[K, T]) refuse(code TxErrorCode, msg string, pending int) error {
	err := &TxError{Code: code, Message: msg, Schema: b.schema.name, Pending: pending}
	b.schema.logger.Error(msg,
		"schema", b.schema.name,
		"code", string(code),
		"pending", pending,
	)
	return err
}

// Foreground is a transaction scope nested in a Context.
//
// It owns an independent log. Contexts begun from it read the parent's
// source (not the parent's staged operations) overlaid with the nested
// log. Commit appends the nested log onto the parent's log; the graph is
// never touched.
type Foreground[K cmp.Ordered, T id.Identifiable[K]] struct {
	parent *Context[K, T]
	log    *oplog[K, T]

	mu    sync.Mutex
	state txState
}

func newForeground[K cmp.Ordered, T id.Identifiable[K]](parent *Context[K, T]) *Foreground[K, T] {
	return &Foreground[K, T]{parent: parent, log: newOplog[K, T]()}
}

// Begin returns a new Context staging into the nested log.
//
// Begin on a finished transaction returns a closed, read-only context.
func (f *Foreground[K, T]) Begin() *Context[K, T] {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != txActive {
		return closedContext[K, T](f.parent.schema, f.parent.source)
	}
	return newContext(f.parent.schema, f.parent.source, f.log)
}

// Commit appends the nested log, in order, to the end of the parent's log.
//
// Commit is refused while a Context derived from this transaction is still
// open, once the parent context has been closed, or once the parent's
// transaction has ended. A parent context closed after the check still
// receives the merge, which its transaction applies on commit.
func (f *Foreground[K, T]) Commit() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != txActive {
		return f.refuse(ErrCodeClosed, "committing finished transaction", 0)
	}
	f.state = txCommitted
	defer f.log.seal()

	if !f.log.sole() {
		return f.refuse(ErrCodeContextsInUse, "committing transaction with contexts yet in use", f.log.size())
	}
	if f.parent.Closed() {
		return f.refuse(ErrCodeParentClosed, "committing transaction into closed context", f.log.size())
	}

	ops := f.log.seal()
	if !f.parent.log.append(ops...) {
		return f.refuse(ErrCodeParentClosed, "committing transaction into finished scope", len(ops))
	}

	f.parent.schema.logger.Debug("nested transaction merged",
		"schema", f.parent.schema.name,
		"operations", len(ops),
	)
	return nil
}

// Rollback discards the nested log. Safe to call more than once and after
// Commit.
func (f *Foreground[K, T]) Rollback() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != txActive {
		return
	}
	f.state = txRolledBack
	f.log.seal()
}

func (f *Foreground[K, T]) refuse(code TxErrorCode, msg string, pending int) error {
	s := f.parent.schema
	s.logger.Error(msg,
		"schema", s.name,
		"code", string(code),
		"pending", pending,
	)
	return &TxError{Code: code, Message: msg, Schema: s.name, Pending: pending}
}
