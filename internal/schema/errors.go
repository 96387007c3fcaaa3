package schema

import (
	"errors"
	"fmt"
)

// TxErrorCode categorizes refused commits.
type TxErrorCode string

const (
	// ErrCodeUninitialized indicates Commit on a transaction that never began.
	ErrCodeUninitialized TxErrorCode = "UNINITIALIZED"

	// ErrCodeContextsInUse indicates Commit while a derived Context is still open.
	ErrCodeContextsInUse TxErrorCode = "CONTEXTS_IN_USE"

	// ErrCodeClosed indicates Commit on a transaction already committed or rolled back.
	ErrCodeClosed TxErrorCode = "CLOSED"

	// ErrCodeParentClosed indicates a nested Commit whose parent Context is closed.
	ErrCodeParentClosed TxErrorCode = "PARENT_CLOSED"
)

// TxError reports a refused commit. A refused commit never applies any of
// its operations.
type TxError struct {
	// Code identifies the error category.
	Code TxErrorCode

	// Message is a human-readable description.
	Message string

	// Schema names the schema the transaction belongs to.
	Schema string

	// Pending is the number of operations discarded by the refusal.
	Pending int
}

// Error implements the error interface.
func (e *TxError) Error() string {
	if e.Schema != "" {
		return fmt.Sprintf("%s: %s (schema=%s, pending=%d)", e.Code, e.Message, e.Schema, e.Pending)
	}
	return fmt.Sprintf("%s: %s (pending=%d)", e.Code, e.Message, e.Pending)
}

// IsCode reports whether err is a *TxError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code TxErrorCode) bool {
	var te *TxError
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}
