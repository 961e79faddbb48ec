package workitem

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxAssigneeLen bounds AssignedTo in bytes after normalisation.
const MaxAssigneeLen = 256

// NormalizeAssignee trims surrounding space and converts the name to NFC so
// that composed and decomposed spellings store identically.
func NormalizeAssignee(s string) (string, error) {
	n := norm.NFC.String(strings.TrimSpace(s))
	if n == "" {
		return "", &Error{Code: ErrCodeInvalidAssignee, Op: "normalize assignee", Err: fmt.Errorf("assignee is empty")}
	}
	if len(n) > MaxAssigneeLen {
		return "", &Error{
			Code: ErrCodeInvalidAssignee,
			Op:   "normalize assignee",
			Err:  fmt.Errorf("assignee is %d bytes, max %d", len(n), MaxAssigneeLen),
		}
	}
	return n, nil
}
