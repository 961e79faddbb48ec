package workitem

import (
	"errors"
	"fmt"
)

// Outcome is the terminal result of a single update call.
type Outcome int

const (
	Success Outcome = iota
	NotFound
	Conflict
	Failure
)

var outcomeNames = [...]string{
	Success:  "Success",
	NotFound: "NotFound",
	Conflict: "Conflict",
	Failure:  "Failure",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	for i, name := range outcomeNames {
		if name == s {
			return Outcome(i), nil
		}
	}
	return Failure, fmt.Errorf("unknown outcome %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(b []byte) error {
	v, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// OutcomeOf classifies an error returned by the store or a controller.
// A nil error is Success; anything unrecognised is Failure.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrConflict):
		return Conflict
	default:
		return Failure
	}
}
