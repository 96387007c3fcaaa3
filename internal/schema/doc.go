// Package schema implements the transactional layer over a graph.
//
// A Schema owns a graph.Graph plus two auxiliary registries (resources and
// triggers) and hands out exclusive write access to the graph through a
// WriteGuard. Callers never write the graph directly; they go through
// transactions.
//
// # Transactions
//
// A Background transaction is the root of a transaction scope. Begin
// returns a Context; the first Begin acquires the schema's write guard and
// every later Begin reuses it, so all contexts of one Background share the
// same exclusive hold. Saves and deletes issued on a context are appended
// to an operation log shared by every context of the scope. Commit drains
// the log, in append order, into the graph.
//
// A Foreground transaction nests inside an existing Context. It owns an
// independent log; Commit appends that log onto the parent context's log
// and never touches the graph. Rolling back (or never committing) a
// Foreground leaves the parent untouched.
//
// # Reads
//
// A Context is itself a graph.Source. Reads scan the log from the most
// recent operation backwards and stop at the first operation on the
// requested id: a save yields its node, a delete yields nothing. Ids with
// no pending operation are read from the graph. Last write wins by append
// order, never by timestamp.
//
// # Ownership
//
// The log counts its owners: the transaction plus one per open Context.
// Commit refuses to run while any context is still open, because that
// context could append writes that would be silently lost. A refused
// commit applies nothing, returns a *TxError and logs it.
//
// Go has no destructors, so the "drop" of a transaction is the explicit,
// idempotent Rollback, intended for defer:
//
//	tx := s.Transaction()
//	defer tx.Rollback()
//
//	ctx := tx.Begin()
//	ctx.Save(node)
//	ctx.Close()
//
//	if err := tx.Commit(); err != nil {
//		return err
//	}
package schema
