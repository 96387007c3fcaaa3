package plot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/plotline/internal/id"
)

// ErrorCode categorizes plot errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a referenced record does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeAlreadyExists indicates a record with the same identity exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// ErrCodeInvalidName indicates an empty or malformed name.
	ErrCodeInvalidName ErrorCode = "INVALID_NAME"

	// ErrCodeInvalidInterval indicates a malformed or missing interval.
	ErrCodeInvalidInterval ErrorCode = "INVALID_INTERVAL"

	// ErrCodeInvalidProfile indicates an experience without profiles.
	ErrCodeInvalidProfile ErrorCode = "INVALID_PROFILE"

	// ErrCodeCollision indicates more than one experience for the same
	// entity and event.
	ErrCodeCollision ErrorCode = "COLLISION"
)

// Error is returned by plot operations for invalid input or missing
// records. Constraint violations use the Err* sentinels instead.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ID identifies the offending record, when there is one.
	ID id.ID
}

// Error implements the error interface.
func (e *Error) Error() string {
	if !e.ID.IsNil() {
		return fmt.Sprintf("%s: %s (id=%s)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is an *Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

func notFound(kind string, k id.ID) *Error {
	return &Error{Code: ErrCodeNotFound, Message: kind + " not found", ID: k}
}

// Constraint violations.
var (
	ErrNotInPreviousExperience  = errors.New("an experience cannot belong to an entity not listed in the previous experience")
	ErrSimultaneousEvents       = errors.New("an entity cannot experience simultaneous events")
	ErrTerminalFollowsTerminal  = errors.New("a terminal experience cannot follow a terminal one")
	ErrTerminalPrecedesTerminal = errors.New("a terminal experience cannot precede a terminal one")
	ErrEventAlreadyExperienced  = errors.New("an entity cannot experience the same event more than once")
)

// StackError carries every violation found by a non-short-circuiting
// constraint chain, in chain order.
type StackError struct {
	Errs []error
}

// Error implements the error interface.
func (e *StackError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the stacked errors to errors.Is and errors.As.
func (e *StackError) Unwrap() []error {
	return e.Errs
}

// stack combines errs into one error, flattening nested stacks.
// Returns nil when errs holds no error and the error itself when it holds one.
func stack(errs ...error) error {
	var flat []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		var se *StackError
		if errors.As(err, &se) && se == err {
			flat = append(flat, se.Errs...)
			continue
		}
		flat = append(flat, err)
	}

	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return &StackError{Errs: flat}
	}
}
