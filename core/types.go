package core

import (
	"fmt"
	"strings"
)

// AgentRequest is the immutable input of a dispatch.
type AgentRequest struct {
	Input   string            `json:"input"`
	Context map[string]string `json:"context,omitempty"`
}

// NewAgentRequest builds a request owning a copy of the context map.
func NewAgentRequest(input string, context map[string]string) AgentRequest {
	return AgentRequest{Input: input, Context: cloneContext(context)}
}

// IsEmpty reports whether the request carries no usable input.
func (r AgentRequest) IsEmpty() bool { return strings.TrimSpace(r.Input) == "" }

// WithInput derives a request for a sub-step, keeping the auxiliary context.
func (r AgentRequest) WithInput(input string) AgentRequest {
	return AgentRequest{Input: input, Context: cloneContext(r.Context)}
}

func cloneContext(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// AgentMetadata describes how a unit of work was produced.
type AgentMetadata struct {
	AgentName   string   `json:"agent_name"`
	Model       string   `json:"model,omitempty"`
	TokensUsed  *int     `json:"tokens_used,omitempty"`
	ToolsCalled []string `json:"tools_called"`
	DurationMS  *int64   `json:"duration_ms,omitempty"`
	Success     bool     `json:"success"`
}

// NewAgentMetadata returns metadata for agentName with Success set.
func NewAgentMetadata(agentName string) AgentMetadata {
	return AgentMetadata{AgentName: agentName, ToolsCalled: []string{}, Success: true}
}

// AgentResponse is the terminal value returned to the caller of a dispatch.
type AgentResponse struct {
	Output   string        `json:"output"`
	Metadata AgentMetadata `json:"metadata"`
	Steps    []string      `json:"steps,omitempty"`
}

// ExecutionStep is one agent invocation of a plan.
type ExecutionStep struct {
	AgentName string `json:"agent_name" description:"Name of the agent that runs this step"`
	Input     string `json:"input" description:"Input text handed to the agent"`
}

// String renders the step as "agent: input".
func (s ExecutionStep) String() string { return fmt.Sprintf("%s: %s", s.AgentName, s.Input) }

// ExecutionGraph is an ordered, linear plan. Despite the name there are no
// branches or parallel edges.
type ExecutionGraph struct {
	Steps []ExecutionStep `json:"steps"`
}

// NewExecutionGraph builds a graph preserving the given step order.
func NewExecutionGraph(steps ...ExecutionStep) ExecutionGraph {
	return ExecutionGraph{Steps: append([]ExecutionStep(nil), steps...)}
}

// Len returns the number of steps.
func (g ExecutionGraph) Len() int { return len(g.Steps) }

// AgentNames returns the step agent names in plan order.
func (g ExecutionGraph) AgentNames() []string {
	names := make([]string, len(g.Steps))
	for i, s := range g.Steps {
		names[i] = s.AgentName
	}
	return names
}

// DispatchDecision is the classifier's verdict for one request.
type DispatchDecision struct {
	Actionable bool   `json:"actionable" description:"Whether any available agent can handle the request"`
	AgentName  string `json:"agent_name,omitempty" description:"Name of the agent that should handle the request"`
	Reason     string `json:"reason" description:"Why the agent was chosen, or why nothing applies"`
}

// HasAgent reports whether the decision routes to a concrete agent.
func (d DispatchDecision) HasAgent() bool {
	return d.Actionable && strings.TrimSpace(d.AgentName) != ""
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }
