package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWrapsOnce(t *testing.T) {
	base := errors.New("connection reset")

	err := Store("get question", base)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "get question", se.Op)
	assert.ErrorIs(t, err, base)

	again := Store("outer", err)
	assert.Same(t, err, again)
}

func TestStoreKeepsNotFound(t *testing.T) {
	err := Store("get quiz", fmt.Errorf("quiz q1: %w", ErrNotFound))
	assert.ErrorIs(t, err, ErrNotFound)

	var se *StoreError
	assert.False(t, errors.As(err, &se))
	assert.NoError(t, Store("noop", nil))
}

func TestBatchOutcome(t *testing.T) {
	ok := BatchOutcome{Succeeded: []string{"a", "b"}}
	assert.NoError(t, ok.Err())

	partial := BatchOutcome{
		Succeeded: []string{"a"},
		Failed:    map[string]error{"c": ErrNotFound, "b": errors.New("timeout")},
	}
	err := partial.Err()
	var pbf *PartialBatchFailure
	require.ErrorAs(t, err, &pbf)
	assert.Equal(t, []string{"b", "c"}, pbf.FailedIDs())
	assert.Equal(t, "2 of 3 items failed: b, c", err.Error())
}

func TestValidationError(t *testing.T) {
	err := Validation("title", "must not be empty")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title", ve.Field)
}
