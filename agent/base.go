package agent

import (
	"time"

	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/llm"
)

// BaseAgent bundles identity helpers shared by concrete agents. Embed it and
// supply a Run method to satisfy core.Agent.
type BaseAgent struct {
	name        string
	description string
}

// NewBaseAgent constructs a BaseAgent.
func NewBaseAgent(name, description string) BaseAgent {
	return BaseAgent{name: name, description: description}
}

// Name returns the registry name of the agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns the routing description of the agent.
func (b *BaseAgent) Description() string { return b.description }

// Info returns the catalog entry for the agent.
func (b *BaseAgent) Info() core.AgentInfo {
	return core.AgentInfo{Name: b.name, Description: b.description}
}

// metadata converts model call metadata into response metadata attributed to
// this agent.
func (b *BaseAgent) metadata(meta llm.Metadata, start time.Time) core.AgentMetadata {
	md := core.NewAgentMetadata(b.name)
	md.Model = meta.Model
	if meta.UsageReported {
		md.TokensUsed = core.IntPtr(meta.TokensUsed)
	}
	md.DurationMS = core.Int64Ptr(time.Since(start).Milliseconds())
	return md
}
