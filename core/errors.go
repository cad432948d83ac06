package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation classifies every input validation failure.
	ErrValidation = errors.New("validation error")
	// ErrEmptyInput is returned when a request carries no input text.
	ErrEmptyInput = fmt.Errorf("%w: input cannot be empty", ErrValidation)
	// ErrNoMatchingAgent classifies routing failures.
	ErrNoMatchingAgent = errors.New("no matching agent")
	// ErrUpstreamResponse classifies semantically incomplete reasoning-service answers.
	ErrUpstreamResponse = errors.New("upstream response error")
	// ErrModelCallLimit is returned once a dispatch exhausted its model call budget.
	ErrModelCallLimit = errors.New("model call limit exceeded")
)

// ValidationError describes a rejected value, e.g. a plan step naming an
// unknown agent.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NoMatchingAgentError is returned when the classifier declined the request
// or named an agent that is not registered.
type NoMatchingAgentError struct {
	Reason    string
	AgentName string
}

// Error implements the error interface.
func (e *NoMatchingAgentError) Error() string {
	if e.AgentName != "" {
		return fmt.Sprintf("no matching agent %q: %s", e.AgentName, e.Reason)
	}
	return fmt.Sprintf("no matching agent: %s", e.Reason)
}

// Is makes errors.Is(err, ErrNoMatchingAgent) match.
func (e *NoMatchingAgentError) Is(target error) bool { return target == ErrNoMatchingAgent }

// UpstreamResponseError is returned when the reasoning service answered with a
// structurally valid but incomplete result.
type UpstreamResponseError struct {
	Component string
	Message   string
}

// Error implements the error interface.
func (e *UpstreamResponseError) Error() string {
	return fmt.Sprintf("upstream response error in %s: %s", e.Component, e.Message)
}

// Is makes errors.Is(err, ErrUpstreamResponse) match.
func (e *UpstreamResponseError) Is(target error) bool { return target == ErrUpstreamResponse }

// NewUpstreamResponseError creates an UpstreamResponseError.
func NewUpstreamResponseError(component, message string) *UpstreamResponseError {
	return &UpstreamResponseError{Component: component, Message: message}
}
