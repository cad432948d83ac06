// Package agent contains the agent registry and the built-in agents.
//
//   - Registry: explicit name → constructor table filled at startup
//   - FixMyBug: repairs code through one structured model call
//   - Planner: decomposes a request into an ordered list of agent steps
//
// Agents embed BaseAgent for identity and implement core.Agent. Prompts are
// Instructions: text/template strings or dynamic providers.
package agent
