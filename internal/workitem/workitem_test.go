package workitem

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, ID(42), id)
	assert.Equal(t, "42", id.String())

	for _, bad := range []string{"", "abc", "0", "-1", "1.5"} {
		_, err := ParseID(bad)
		assert.Error(t, err, "ParseID(%q)", bad)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]Strategy{
		"pessimistic":       Pessimistic,
		"lock":              Pessimistic,
		"row-version":       RowVersion,
		"rowversion":        RowVersion,
		"concurrency-token": ConcurrencyToken,
		"token":             ConcurrencyToken,
		"manual":            ConcurrencyToken,
	}
	for in, want := range tests {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStrategy("mvcc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestStrategy_Optimistic(t *testing.T) {
	assert.False(t, Pessimistic.Optimistic())
	assert.True(t, RowVersion.Optimistic())
	assert.True(t, ConcurrencyToken.Optimistic())
}

func TestStamp_EqualityOnly(t *testing.T) {
	a := StampOf("0a1b")
	b := StampOf("0a1b")
	c := StampOf("ffff")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, Stamp{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestRowVersionItem_JSON(t *testing.T) {
	item := RowVersionItem{ID: 1, AssignedTo: "Alice", RowVersion: StampOf("abc")}
	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"assignedTo":"Alice","rowVersion":"abc"}`, string(data))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "Success", Success.String())
	assert.Equal(t, "NotFound", NotFound.String())
	assert.Equal(t, "Conflict", Conflict.String())
	assert.Equal(t, "Failure", Failure.String())
	assert.Equal(t, "Outcome(9)", Outcome(9).String())

	for _, o := range []Outcome{Success, NotFound, Conflict, Failure} {
		parsed, err := ParseOutcome(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
	}
	_, err := ParseOutcome("Maybe")
	assert.Error(t, err)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, Success, OutcomeOf(nil))
	assert.Equal(t, NotFound, OutcomeOf(NewNotFoundError("read", Pessimistic, 1)))
	assert.Equal(t, Conflict, OutcomeOf(fmt.Errorf("update: %w", NewConflictError("cas", RowVersion, 1))))
	assert.Equal(t, Failure, OutcomeOf(NewTransientError("commit", Pessimistic, 1, errors.New("database is locked"))))
	assert.Equal(t, Failure, OutcomeOf(errors.New("boom")))
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Code: ErrCodeConflict, Op: "cas"})
	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))
	assert.False(t, IsTransient(err))

	tr := NewTransientError("begin", Pessimistic, 3, errors.New("database is locked"))
	assert.True(t, IsTransient(tr))
	assert.Contains(t, tr.Error(), "database is locked")
	assert.Equal(t, ErrCodeTransient, CodeOf(tr))
	assert.Equal(t, ErrCodeStore, CodeOf(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	err := NewNotFoundError("read work item", ConcurrencyToken, 99)
	assert.Equal(t, "read work item: NOT_FOUND (strategy=concurrency-token, id=99): work item not found", err.Error())
}

func TestNormalizeAssignee(t *testing.T) {
	decomposed := "Rene\u0301"
	got, err := NormalizeAssignee("  " + decomposed + " ")
	require.NoError(t, err)
	assert.Equal(t, "Ren\u00e9", got)

	_, err = NormalizeAssignee("   ")
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidAssignee, CodeOf(err))

	_, err = NormalizeAssignee(strings.Repeat("x", MaxAssigneeLen+1))
	require.Error(t, err)
	assert.Equal(t, Failure, OutcomeOf(err))
}
