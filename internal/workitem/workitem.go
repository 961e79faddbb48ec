package workitem

import (
	"fmt"
	"strconv"
)

// ID identifies a record. IDs are assigned at seed time and never change.
type ID int64

// ParseID parses a decimal record id.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be positive", s)
	}
	return ID(n), nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// WorkItem is a record of the pessimistic collection.
type WorkItem struct {
	ID         ID     `json:"id"`
	AssignedTo string `json:"assignedTo"`
}

// Stamp is an opaque row version generated by the store on every write.
// Stamps support equality only.
type Stamp struct {
	v string
}

// StampOf wraps a raw store token. Only the store should call this.
func StampOf(raw string) Stamp {
	return Stamp{v: raw}
}

// Equal reports whether two stamps denote the same row version.
func (s Stamp) Equal(o Stamp) bool {
	return s.v == o.v
}

// IsZero reports whether the stamp was never set.
func (s Stamp) IsZero() bool {
	return s.v == ""
}

// Raw returns the token for binding into a store query.
func (s Stamp) Raw() string {
	return s.v
}

func (s Stamp) String() string {
	return s.v
}

// MarshalText lets stamps travel through JSON and YAML as plain strings.
func (s Stamp) MarshalText() ([]byte, error) {
	return []byte(s.v), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stamp) UnmarshalText(b []byte) error {
	s.v = string(b)
	return nil
}

// RowVersionItem is a record of the automatic optimistic collection.
type RowVersionItem struct {
	ID         ID     `json:"id"`
	AssignedTo string `json:"assignedTo"`
	RowVersion Stamp  `json:"rowVersion"`
}

// TokenItem is a record of the manual optimistic collection.
type TokenItem struct {
	ID         ID     `json:"id"`
	AssignedTo string `json:"assignedTo"`
	Version    int64  `json:"version"`
}
