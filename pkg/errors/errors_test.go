package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMissingEndpointError(t *testing.T) {
	err := NewMissingEndpointError("Calculus", "Topology")

	assert.Equal(t, ErrorTypeMissingEndpoint, err.Type)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.False(t, err.Retryable)
	assert.Contains(t, err.Message, "Calculus")
	assert.Contains(t, err.Message, "Topology")

	labels, ok := err.Details["missing_labels"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"Calculus", "Topology"}, labels)
}

func TestNewExpansionFailedError(t *testing.T) {
	cause := errors.New("provider timed out")
	err := NewExpansionFailedError("Quantum Mechanics", cause)

	assert.Equal(t, ErrorTypeExpansionFailed, err.Type)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
	assert.True(t, err.Retryable)
	assert.Equal(t, "Quantum Mechanics", err.Details["label"])
	assert.ErrorIs(t, err, cause)
}

func TestNewPersistenceError(t *testing.T) {
	cause := errors.New("conditional check failed")
	err := NewPersistenceError("save_tree", cause)

	assert.Equal(t, ErrorTypePersistence, err.Type)
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus)
	assert.True(t, err.Retryable)
	assert.Equal(t, "save_tree", err.Details["operation"])
	assert.ErrorIs(t, err, cause)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "expansion failure is retryable",
			err:       NewExpansionFailedError("Biology", errors.New("boom")),
			retryable: true,
		},
		{
			name:      "persistence failure is retryable",
			err:       NewPersistenceError("load_tree", errors.New("boom")),
			retryable: true,
		},
		{
			name:      "missing endpoint is not retryable",
			err:       NewMissingEndpointError("Ghost"),
			retryable: false,
		},
		{
			name:      "validation is not retryable",
			err:       NewEmptyLabelError(),
			retryable: false,
		},
		{
			name:      "wrapped retryable error stays retryable",
			err:       fmt.Errorf("expand step: %w", NewExpansionFailedError("Physics", errors.New("boom"))),
			retryable: true,
		},
		{
			name:      "plain error is not retryable",
			err:       errors.New("something"),
			retryable: false,
		},
		{
			name:      "nil error is not retryable",
			err:       nil,
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestTypeChecks(t *testing.T) {
	missing := NewMissingEndpointError("A")
	expansion := NewExpansionFailedError("B", nil)
	persistence := NewPersistenceError("save_tree", nil)

	assert.True(t, IsMissingEndpoint(missing))
	assert.False(t, IsMissingEndpoint(expansion))

	assert.True(t, IsExpansionFailed(expansion))
	assert.False(t, IsExpansionFailed(persistence))

	assert.True(t, IsPersistence(persistence))
	assert.False(t, IsPersistence(missing))

	// Checks see through wrapping.
	wrapped := fmt.Errorf("outer: %w", persistence)
	assert.True(t, IsPersistence(wrapped))
}

func TestWrap_PreservesAppError(t *testing.T) {
	inner := NewExpansionFailedError("Chemistry", errors.New("bad json"))

	wrapped := Wrap(inner, "auto-expand step")

	appErr := GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeExpansionFailed, appErr.Type)
	assert.True(t, appErr.Retryable)
	assert.Contains(t, appErr.Message, "auto-expand step")

	// The wrapped value is a copy; the original keeps its message.
	assert.Equal(t, "expansion of 'Chemistry' failed", inner.Message)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "anything"))
}

func TestValidationErrors(t *testing.T) {
	v := NewValidationErrors()
	assert.False(t, v.HasErrors())

	v.Add("label", "must not be empty")
	v.Add("label", "must be shorter than 256 characters")
	v.Add("weight", "must be at least 1")

	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors, 3)

	m := v.ToMap()
	assert.Len(t, m["label"], 2)
	assert.Len(t, m["weight"], 1)
	assert.Contains(t, v.Error(), "must be at least 1")
}
