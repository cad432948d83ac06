// Package tool converts Go result shapes into function (tool) declarations
// for the reasoning service and validates the arguments it produces against
// the declared JSON schema. Lamina forces the model to answer through exactly
// one such tool per structured call.
package tool

import (
	"fmt"

	"github.com/hupe1980/lamina/model"
)

// Tool is a declaration exposed to the model.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case recommended).
	Name() string

	// Description returns a human-readable description shown to the model.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any
}

// Definition converts a Tool into the model's function declaration.
func Definition(t Tool) model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// ToolError represents errors that occur while handling tool arguments.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details error  `json:"details,omitempty"` // Underlying cause
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ToolError) Unwrap() error { return e.Details }

// Error codes used by SchemaTool.
const (
	CodeInvalidJSON      = "INVALID_JSON"
	CodeValidationFailed = "VALIDATION_ERROR"
)
