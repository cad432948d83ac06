// Package model defines the reasoning-service contract consumed by Lamina and
// a scripted in-memory implementation for tests. Provider adapters live in
// the openai and anthropic sub-packages.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/lamina/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	// ToolChoice forces the model to answer through the named tool.
	ToolChoice string `json:"tool_choice,omitempty"`
	Stream     bool   `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
	Model        string       `json:"model,omitempty"` // Model identifier reported by the provider
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoResponse is returned by Collect when the model closed its channels
// without a final response.
var ErrNoResponse = errors.New("model returned no final response")

// Collect drains Generate and returns the final (non-partial) response.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final Response
		found bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final, found = r, true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if !found {
		return Response{}, ErrNoResponse
	}

	return final, nil
}

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// Function responses are queued per tool name; the last queued answer for a
// tool is repeated once the queue drains.
type MockModel struct {
	info      Info
	responses map[string]string
	functions map[string][]string
	usage     *TokenUsage
	err       error
	requests  []Request
	mu        sync.Mutex
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
		functions: make(map[string][]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// AddFunctionResponse queues JSON arguments returned when the request forces
// the named tool.
func (m *MockModel) AddFunctionResponse(tool string, arguments any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var args string
	switch v := arguments.(type) {
	case string:
		args = v
	case []byte:
		args = string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Sprintf("mock model: marshal arguments for %s: %v", tool, err))
		}
		args = string(b)
	}

	m.functions[tool] = append(m.functions[tool], args)
}

// SetUsage makes every response report the given usage.
func (m *MockModel) SetUsage(u TokenUsage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = &u
}

// SetError makes every call fail with err.
func (m *MockModel) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of all requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Calls returns the number of Generate invocations.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	final, err := m.answerLocked(req)
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)
		if err != nil {
			errCh <- err
			return
		}
		if req.Stream {
			text := final.Content.Text()
			for _, r := range text {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.NewTextContent(core.RoleAssistant, string(r)),
				}:
				}
			}
		}
		respCh <- final
	}()
	return respCh, errCh
}

func (m *MockModel) answerLocked(req Request) (Response, error) {
	if m.err != nil {
		return Response{}, m.err
	}
	if len(req.Contents) == 0 {
		return Response{}, fmt.Errorf("no contents provided")
	}

	resp := Response{
		ID:           core.NewID(),
		FinishReason: "stop",
		Usage:        m.usage,
		Model:        m.info.Name,
	}

	if req.ToolChoice != "" {
		queue := m.functions[req.ToolChoice]
		if len(queue) == 0 {
			return Response{}, fmt.Errorf("mock model: no function response for %s", req.ToolChoice)
		}
		args := queue[0]
		if len(queue) > 1 {
			m.functions[req.ToolChoice] = queue[1:]
		}
		resp.FinishReason = "tool_calls"
		resp.Content = core.Content{
			Role: core.RoleAssistant,
			Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        core.NewID(),
				Name:      req.ToolChoice,
				Arguments: args,
			}}},
		}
		return resp, nil
	}

	inputText := req.Contents[len(req.Contents)-1].Text()
	full := m.responses[inputText]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", inputText)
	}
	resp.Content = core.NewTextContent(core.RoleAssistant, full)
	return resp, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
