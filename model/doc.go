// Package model defines the provider-agnostic abstraction over reasoning
// services used by Lamina.
//
// A Model accepts a Request (system instruction, contents, tool definitions,
// optional forced tool choice) and streams Responses. Collect drains a stream
// into its final response. Agents and the classifier force a single tool so
// providers return structured JSON arguments instead of free text.
//
// Providers (OpenAI, Anthropic) live in subpackages; MockModel serves tests
// and offline examples with scripted answers.
package model
