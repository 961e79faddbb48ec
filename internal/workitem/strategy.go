package workitem

import "fmt"

// Strategy selects a concurrency-control strategy and, with it, the record
// collection the update targets.
type Strategy string

const (
	Pessimistic      Strategy = "pessimistic"
	RowVersion       Strategy = "row-version"
	ConcurrencyToken Strategy = "concurrency-token"
)

// Strategies lists every strategy in a stable order.
var Strategies = []Strategy{Pessimistic, RowVersion, ConcurrencyToken}

// ParseStrategy accepts the canonical names plus a few short aliases.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "pessimistic", "lock":
		return Pessimistic, nil
	case "row-version", "rowversion", "optimistic-row-version":
		return RowVersion, nil
	case "concurrency-token", "token", "manual", "optimistic-concurrency-token":
		return ConcurrencyToken, nil
	}
	return "", fmt.Errorf("unknown strategy %q: must be one of %v", s, Strategies)
}

// Optimistic reports whether the strategy detects conflicts at commit time
// instead of serialising writers.
func (s Strategy) Optimistic() bool {
	return s == RowVersion || s == ConcurrencyToken
}
