package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadNotFound(t *testing.T) {
	err := ThreadNotFound(42)
	assert.Equal(t, CodeThreadNotFound, err.Code)
	assert.Contains(t, err.Error(), "thread 42 not found")
	assert.Equal(t, 42, err.Details["threadId"])
}

func TestVMServiceFailed_Unwraps(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := VMServiceFailed("resume", cause)

	assert.Equal(t, CodeVMServiceFailed, err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestErrorIncludesHint(t *testing.T) {
	err := BreakpointFailed("file:///a.dart", 12, "no executable code")
	assert.Contains(t, err.Error(), "file:///a.dart:12")
	assert.Contains(t, err.Error(), "Hint:")
}

func TestFromError(t *testing.T) {
	original := ThreadNotPaused(3)
	wrapped := fmt.Errorf("request failed: %w", original)
	require.Same(t, original, FromError(wrapped), "structured errors survive wrapping")

	plain := FromError(stderrors.New("boom"))
	assert.Equal(t, ErrorCode("UNKNOWN_ERROR"), plain.Code)
	assert.Equal(t, "boom", plain.Message)
}

func TestWithDetails(t *testing.T) {
	err := EvaluationFailed("x + 1", stderrors.New("no such variable"))
	err.WithDetails("frame", 0)
	assert.Equal(t, "x + 1", err.Details["expression"])
	assert.Equal(t, 0, err.Details["frame"])
}
