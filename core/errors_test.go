package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"empty input is validation", ErrEmptyInput, ErrValidation},
		{"validation error", &ValidationError{Field: "steps[0].agent_name", Message: "unknown"}, ErrValidation},
		{"no matching agent", &NoMatchingAgentError{Reason: "travel"}, ErrNoMatchingAgent},
		{"upstream", NewUpstreamResponseError("classifier", "empty reason"), ErrUpstreamResponse},
		{"wrapped", fmt.Errorf("step 2: %w", &ValidationError{Field: "f"}), ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.target)
		})
	}

	assert.False(t, errors.Is(&NoMatchingAgentError{}, ErrValidation))
	assert.False(t, errors.Is(ErrEmptyInput, ErrUpstreamResponse))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "no matching agent: No suitable agent available for travel planning",
		(&NoMatchingAgentError{Reason: "No suitable agent available for travel planning"}).Error())
	assert.Equal(t, `no matching agent "ghost": not registered`,
		(&NoMatchingAgentError{AgentName: "ghost", Reason: "not registered"}).Error())
	assert.Equal(t, "validation error for field 'input': input cannot be empty",
		(&ValidationError{Field: "input", Message: "input cannot be empty"}).Error())
	assert.Equal(t, "validation error: input cannot be empty", ErrEmptyInput.Error())
}

func TestErrorsAs(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", &NoMatchingAgentError{Reason: "nope"})

	var nm *NoMatchingAgentError
	require.ErrorAs(t, err, &nm)
	assert.Equal(t, "nope", nm.Reason)
}
