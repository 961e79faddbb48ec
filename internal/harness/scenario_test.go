package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowlock/internal/workitem"
)

const validScenario = `
name: valid
description: "valid scenario"
seed:
  - id: 4
    assigned_to: Alice
    version: 2
flow:
  - strategy: token
    id: 4
    assign: Bob
    expect:
      outcome: Success
assertions:
  - type: final_state
    strategy: concurrency-token
    id: 4
    expect:
      version: 3
`

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "valid", s.Name)
	assert.True(t, s.preflight())
	require.Len(t, s.Seed, 1)
	assert.Equal(t, workitem.ID(4), s.Seed[0].ID)
	assert.Equal(t, int64(2), s.Seed[0].Version)
	require.Len(t, s.Flow, 1)
	assert.Equal(t, "Success", s.Flow[0].Expect.Outcome)
	assert.Equal(t, 3, s.Assertions[0].Expect[FieldVersion])
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "typo"
flow:
  - strategy: token
    id: 1
    assign: Bob
    force: true
assertions:
  - type: trace_count
    outcome: Success
    count: 1
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "force")
}

func TestParseScenario_Invalid(t *testing.T) {
	base := func(flow, assertions string) string {
		return "name: n\ndescription: d\nflow:\n" + flow + "assertions:\n" + assertions
	}
	okFlow := "  - {strategy: token, id: 1, assign: Bob}\n"
	okAssert := "  - {type: trace_count, outcome: Success, count: 1}\n"

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "description: d\nflow:\n" + okFlow + "assertions:\n" + okAssert, "name is required"},
		{"missing description", "name: n\nflow:\n" + okFlow + "assertions:\n" + okAssert, "description is required"},
		{"empty flow", "name: n\ndescription: d\nflow: []\nassertions:\n" + okAssert, "flow list is required"},
		{"no assertions", "name: n\ndescription: d\nflow:\n" + okFlow, "assertions list is required"},
		{"bad strategy", base("  - {strategy: mvcc, id: 1, assign: Bob}\n", okAssert), "unknown strategy"},
		{"missing id", base("  - {strategy: token, assign: Bob}\n", okAssert), "id is required"},
		{"bad outcome", base("  - {strategy: token, id: 1, assign: Bob, expect: {outcome: Maybe}}\n", okAssert), "unknown outcome"},
		{"bad assertion type", base(okFlow, "  - {type: trace_magic}\n"), "unknown assertion type"},
		{"empty trace_order", base(okFlow, "  - {type: trace_order}\n"), "outcomes list is required"},
		{"final_state without expect", base(okFlow, "  - {type: final_state, strategy: token, id: 1}\n"), "expect is required"},
		{"final_state unknown field", base(okFlow, "  - {type: final_state, strategy: token, id: 1, expect: {owner: Bob}}\n"), "unknown final_state field"},
		{"bad seed", "name: n\ndescription: d\nseed:\n  - {id: 0, assigned_to: A}\nflow:\n" + okFlow + "assertions:\n" + okAssert, "id must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "valid", s.Name)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
