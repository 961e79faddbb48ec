package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/rowlock/internal/store"
	"github.com/roach88/rowlock/internal/workitem"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Update conflicted or failed, or scenarios failed
	ExitCommandError = 2 // Command error (invalid paths, bad config, etc.)
	ExitNotFound     = 3 // Work item does not exist
)

// ExitError carries the process exit code alongside an error.
type ExitError struct {
	Code    int
	Message string
	Err     error // optional
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
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// exitCodeFor maps an update outcome to the process exit code.
func exitCodeFor(outcome workitem.Outcome) int {
	switch outcome {
	case workitem.Success:
		return ExitSuccess
	case workitem.NotFound:
		return ExitNotFound
	}
	return ExitFailure
}

// outcomeMessage is the user-facing text for a non-Success outcome. The
// wording follows the HTTP API.
func outcomeMessage(outcome workitem.Outcome, id workitem.ID) string {
	switch outcome {
	case workitem.NotFound:
		return fmt.Sprintf("Work Item with Id %d was not found!", id)
	case workitem.Conflict:
		return "Resource was already modified. Please retry"
	}
	return "update failed"
}

// CLIResponse is the JSON envelope for every command's output.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error part of a CLIResponse.
type CLIError struct {
	Code    string      `json:"code"` // workitem error code, e.g. "VERSION_CONFLICT"
	Message string      `json:"message"`
	Outcome string      `json:"outcome,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// UpdateReport is the JSON payload of a successful assign.
type UpdateReport struct {
	Strategy   workitem.Strategy `json:"strategy"`
	ID         workitem.ID       `json:"id"`
	AssignedTo string            `json:"assignedTo"`
	Outcome    workitem.Outcome  `json:"outcome"`
}

// OutputFormatter renders command results as text or JSON.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(cliErr CLIError) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: &cliErr})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", cliErr.Code, cliErr.Message)
	if f.Verbose && cliErr.Details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", cliErr.Details)
	}
	return nil
}

// Outcome reports a failed work item operation and returns the ExitError
// the command should exit with.
func (f *OutputFormatter) Outcome(outcome workitem.Outcome, id workitem.ID, err error) error {
	message := outcomeMessage(outcome, id)
	cliErr := CLIError{
		Code:    string(workitem.CodeOf(err)),
		Message: message,
		Outcome: outcome.String(),
	}
	if err != nil {
		cliErr.Details = err.Error()
	}
	if ferr := f.Error(cliErr); ferr != nil {
		return ferr
	}
	return WrapExitError(exitCodeFor(outcome), message, err)
}

// Updated reports a successful assign.
func (f *OutputFormatter) Updated(r UpdateReport) error {
	if f.Format == "json" {
		return f.Success(r)
	}
	return f.Success(fmt.Sprintf("✓ %s: work item %d assigned to %s", r.Strategy, r.ID, r.AssignedTo))
}

// Record prints one work item.
func (f *OutputFormatter) Record(snap store.Snapshot) error {
	if f.Format == "json" {
		return f.Success(snap)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s work item %d\n", snap.Strategy, snap.ID)
	fmt.Fprintf(&b, "  assigned_to: %s", snap.AssignedTo)
	if snap.RowVersion != "" {
		fmt.Fprintf(&b, "\n  row_version: %s", snap.RowVersion)
	}
	if snap.Version != nil {
		fmt.Fprintf(&b, "\n  version:     %d", *snap.Version)
	}
	return f.Success(b.String())
}
