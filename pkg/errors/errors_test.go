package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredError_Error(t *testing.T) {
	e := New(ErrCodeInvalidConfig, "replicas must be positive")
	assert.Equal(t, "[INVALID_CONFIG] replicas must be positive", e.Error())

	cause := fmt.Errorf("connection refused")
	wrapped := Wrap(ErrCodeUnavailable, "kubernetes api unreachable", cause)
	assert.Equal(t, "[SERVICE_UNAVAILABLE] kubernetes api unreachable: connection refused", wrapped.Error())
}

func TestStructuredError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(ErrCodeInternal, "deploy failed", cause)

	require.ErrorIs(t, wrapped, cause)

	var se *StructuredError
	require.ErrorAs(t, fmt.Errorf("outer: %w", wrapped), &se)
	assert.Equal(t, ErrCodeInternal, se.Code)
}

func TestStructuredError_Context(t *testing.T) {
	e := NewWithContext(ErrCodeRolloutFailed, "statefulset not ready", map[string]any{
		"namespace": "data",
		"name":      "kafka",
	})
	assert.Equal(t, "data", e.Context["namespace"])
	assert.Nil(t, e.Unwrap())
}
