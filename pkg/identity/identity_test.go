package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkflowID(t *testing.T) {
	id, err := NewWorkflowID(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.Int64())
	assert.Equal(t, "42", id.String())
	assert.False(t, id.IsZero())
}

func TestNewWorkflowID_Invalid(t *testing.T) {
	for _, raw := range []int64{0, -1, -42} {
		_, err := NewWorkflowID(raw)
		assert.ErrorIs(t, err, ErrInvalidID, "raw=%d", raw)
	}
}

func TestParseWorkflowID(t *testing.T) {
	id, err := ParseWorkflowID("7")
	require.NoError(t, err)
	assert.Equal(t, WorkflowID(7), id)

	_, err = ParseWorkflowID("abc")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = ParseWorkflowID("-3")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestNewUserID_Invalid(t *testing.T) {
	_, err := NewUserID(0)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestNewConnectedAppID(t *testing.T) {
	id, err := NewConnectedAppID(3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id.Int64())

	_, err = NewConnectedAppID(-5)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestNewExecutionID(t *testing.T) {
	id, err := NewExecutionID("exec_123_abcd")
	require.NoError(t, err)
	assert.Equal(t, "exec_123_abcd", id.String())

	_, err = NewExecutionID("")
	assert.ErrorIs(t, err, ErrEmptyExecutionID)
}
