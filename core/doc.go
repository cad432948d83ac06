// Package core provides the foundational domain types and contracts used by
// Lamina. It defines:
//
//   - Requests, responses and their metadata (AgentRequest, AgentResponse)
//   - The Agent contract and the optional Planner capability
//   - Plans (ExecutionStep, ExecutionGraph) and routing decisions
//   - Typed errors shared by every layer (validation, no matching agent,
//     upstream response)
//   - The write-only structured call log contract (CallLogStore)
//
// Implementation concerns (providers, persistence, orchestration, concrete
// agents) live in other packages and depend on the small interfaces here.
package core
