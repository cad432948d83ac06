package core

import "context"

// Agent defines the contract every routable agent in Lamina implements.
//
// Agents map one request to one response, usually through a single call to a
// reasoning service. Implementations must:
//   - Reject an empty request input with ErrEmptyInput before any external call
//   - Populate AgentResponse.Metadata.AgentName with their own Name
//   - Return *UpstreamResponseError when structured output misses required data
type Agent interface {
	Name() string
	Description() string
	Run(ctx context.Context, req AgentRequest) (AgentResponse, error)
}

// Planner is implemented by agents that decompose a request into a linear
// plan instead of answering it directly. The dispatcher hands plans to the
// executor.
type Planner interface {
	Agent
	Plan(ctx context.Context, req AgentRequest) (ExecutionGraph, error)
}

// AgentInfo carries identifying details about an agent shown to the
// classifier and the planner.
type AgentInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
