package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/lamina/internal/util"
	"github.com/kaptinlin/jsonschema"
)

// SchemaTool declares a structured result shape derived from a Go struct.
//
// The schema is compiled once at construction and the tool has no mutable
// state afterwards, so a SchemaTool is safe for concurrent use.
type SchemaTool struct {
	name        string
	description string
	parameters  map[string]any
	compiled    *jsonschema.Schema
}

// NewSchemaTool derives the parameter schema from structType using reflection
// (see util.CreateSchema) and compiles it for validation.
//
// Example:
//
//	type CodeFix struct {
//	  OriginalCode string `json:"original_code" description:"The code as submitted"`
//	  FixedCode    string `json:"fixed_code" description:"The corrected code"`
//	}
//
//	fix, err := NewSchemaTool("code_fix", "A code fix suggestion", CodeFix{})
func NewSchemaTool(name, description string, structType any) (*SchemaTool, error) {
	if name == "" {
		return nil, errors.New("tool name is required")
	}
	if description == "" {
		return nil, fmt.Errorf("tool %s: description is required", name)
	}

	parameters := util.CreateSchema(structType)

	raw, err := json.Marshal(parameters)
	if err != nil {
		return nil, fmt.Errorf("tool %s: marshal schema: %w", name, err)
	}

	compiled, err := jsonschema.NewCompiler().Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("tool %s: invalid schema: %w", name, err)
	}

	return &SchemaTool{
		name:        name,
		description: description,
		parameters:  parameters,
		compiled:    compiled,
	}, nil
}

// MustSchemaTool is like NewSchemaTool but panics on error. Use it for
// package-level declarations of fixed shapes.
func MustSchemaTool(name, description string, structType any) *SchemaTool {
	t, err := NewSchemaTool(name, description, structType)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the unique tool name used in function call declarations.
func (t *SchemaTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *SchemaTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *SchemaTool) Parameters() map[string]any { return t.parameters }

// Validate checks raw JSON arguments against the schema.
//
// Error Semantics:
//
//	malformed JSON     -> *ToolError{Code: "INVALID_JSON"}
//	schema violations  -> *ToolError{Code: "VALIDATION_ERROR"}
func (t *SchemaTool) Validate(raw []byte) error {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("arguments are not valid JSON: %v", err),
			Code:    CodeInvalidJSON,
			Details: err,
		}
	}

	result := t.compiled.Validate(data)
	if !result.IsValid() {
		return &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("arguments do not match schema: %s", violations(result)),
			Code:    CodeValidationFailed,
		}
	}

	return nil
}

// violations flattens a failed evaluation into "location: message" entries.
func violations(result *jsonschema.EvaluationResult) string {
	list := result.ToList(false)

	seen := map[string]struct{}{}
	var out []string

	add := func(loc string, errs map[string]string) {
		if loc == "" {
			loc = "/"
		}
		for kw, msg := range errs {
			v := fmt.Sprintf("%s: %s (%s)", loc, msg, kw)
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}

	add(list.InstanceLocation, list.Errors)
	for _, d := range list.Details {
		add(d.InstanceLocation, d.Errors)
	}

	if len(out) == 0 {
		return result.Error()
	}

	sort.Strings(out)

	return strings.Join(out, "; ")
}
