package workitem

import (
	"errors"
	"fmt"
)

// Sentinel errors. Store and controller errors wrap one of these so callers
// can branch with errors.Is.
var (
	// ErrNotFound means no record exists with the requested id.
	ErrNotFound = errors.New("work item not found")

	// ErrConflict means a compare-and-set precondition failed because another
	// writer committed first.
	ErrConflict = errors.New("work item was modified concurrently")

	// ErrTransient means the store rejected the operation for reasons
	// unrelated to versioning, such as lock timeouts.
	ErrTransient = errors.New("transient store failure")
)

// ErrorCode categorises a failed operation.
type ErrorCode string

const (
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeConflict         ErrorCode = "VERSION_CONFLICT"
	ErrCodeTransient        ErrorCode = "TRANSIENT_STORE_FAILURE"
	ErrCodeInvalidAssignee  ErrorCode = "INVALID_ASSIGNEE"
	ErrCodeInvalidVersion   ErrorCode = "INVALID_VERSION"
	ErrCodeInjectorDisabled ErrorCode = "INJECTOR_DISABLED"
	ErrCodeStore            ErrorCode = "STORE_ERROR"
)

// Error carries the code, the failed operation and the record it targeted.
type Error struct {
	Code     ErrorCode
	Op       string
	Strategy Strategy
	ID       ID
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Code)
	if e.Strategy != "" {
		msg += fmt.Sprintf(" (strategy=%s, id=%d)", e.Strategy, e.ID)
	} else if e.ID != 0 {
		msg += fmt.Sprintf(" (id=%d)", e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the error code, so a typed
// error built without wrapping a sentinel still satisfies errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == ErrCodeNotFound
	case ErrConflict:
		return e.Code == ErrCodeConflict
	case ErrTransient:
		return e.Code == ErrCodeTransient
	}
	return false
}

// NewNotFoundError reports a missing record.
func NewNotFoundError(op string, s Strategy, id ID) *Error {
	return &Error{Code: ErrCodeNotFound, Op: op, Strategy: s, ID: id, Err: ErrNotFound}
}

// NewConflictError reports a failed compare-and-set.
func NewConflictError(op string, s Strategy, id ID) *Error {
	return &Error{Code: ErrCodeConflict, Op: op, Strategy: s, ID: id, Err: ErrConflict}
}

// NewTransientError wraps a store error that is worth retrying by the caller.
func NewTransientError(op string, s Strategy, id ID, err error) *Error {
	return &Error{Code: ErrCodeTransient, Op: op, Strategy: s, ID: id, Err: fmt.Errorf("%w: %w", ErrTransient, err)}
}

// IsNotFound returns true if err reports a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if err reports a failed compare-and-set.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsTransient returns true if err reports a transient store failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// CodeOf extracts the code of a typed error, or ErrCodeStore.
func CodeOf(err error) ErrorCode {
	var we *Error
	if errors.As(err, &we) {
		return we.Code
	}
	return ErrCodeStore
}
