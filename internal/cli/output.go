package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/plotline/internal/plot"
	"github.com/roach88/plotline/internal/schema"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected command (unknown record, constraint violation, etc.)
	ExitCommandError = 2 // Command error (bad flags, unreadable plot file, etc.)
)

// Error codes reported for failures that are not plot.Error or
// schema.TxError values.
const (
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeCommandError        = "COMMAND_ERROR"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
//
// ExitError values carry their own code. Rejections by the plot (unknown
// records, constraint violations, refused transactions) exit with
// ExitFailure; anything else, such as a usage error, with ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if isRejection(err) {
		return ExitFailure
	}
	return ExitCommandError
}

// ErrorCode returns the code reported for err in CLI output.
func ErrorCode(err error) string {
	var pe *plot.Error
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	var te *schema.TxError
	if errors.As(err, &te) {
		return string(te.Code)
	}
	if isViolation(err) {
		return CodeConstraintViolation
	}
	return CodeCommandError
}

var violations = []error{
	plot.ErrNotInPreviousExperience,
	plot.ErrSimultaneousEvents,
	plot.ErrTerminalFollowsTerminal,
	plot.ErrTerminalPrecedesTerminal,
	plot.ErrEventAlreadyExperienced,
}

func isViolation(err error) bool {
	for _, v := range violations {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func isRejection(err error) bool {
	var pe *plot.Error
	var te *schema.TxError
	return errors.As(err, &pe) || errors.As(err, &te) || isViolation(err)
}

// errorDetails lists every violation of a stacked constraint error.
func errorDetails(err error) any {
	var se *plot.StackError
	if !errors.As(err, &se) {
		return nil
	}
	msgs := make([]string, len(se.Errs))
	for i, e := range se.Errs {
		msgs[i] = e.Error()
	}
	return msgs
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "NOT_FOUND", "CONSTRAINT_VIOLATION", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// Text output prints data with fmt, so views implement fmt.Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Report outputs err with the code and details derived from it.
func (f *OutputFormatter) Report(err error) error {
	return f.Error(ErrorCode(err), err.Error(), errorDetails(err))
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
