package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/llm"
	"github.com/hupe1980/lamina/logging"
	"github.com/hupe1980/lamina/tool"
)

const (
	// PlannerName is the registry name of the planning agent.
	PlannerName = "planner"
	// PlannerDescription is the routing description of the planning agent.
	PlannerDescription = "Plans multi-step executions by coordinating other agents."
)

// executionPlan wraps the steps because function parameters need an object root.
type executionPlan struct {
	Steps []core.ExecutionStep `json:"steps" description:"Ordered steps, each calling one available agent"`
}

var planTool = tool.MustSchemaTool("execution_plan", "An ordered list of agent invocations", executionPlan{})

// PlannerOptions configures a Planner.
type PlannerOptions struct {
	Description  string
	Instructions Instruction // system prompt
	Prompt       Instruction // user prompt template, receives {{.Input}} and {{.Agents}}
	Logger       logging.Logger
}

// Planner decomposes a request into an ordered sequence of agent steps.
type Planner struct {
	BaseAgent
	client       *llm.Client
	catalog      Catalog
	instructions Instruction
	prompt       Instruction
	logger       logging.Logger
}

// NewPlanner creates the planning agent. The catalog is read on every Plan
// call so agents registered after construction are visible.
func NewPlanner(client *llm.Client, catalog Catalog, optFns ...func(o *PlannerOptions)) *Planner {
	opts := PlannerOptions{Description: PlannerDescription}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Planner{
		BaseAgent:    NewBaseAgent(PlannerName, opts.Description),
		client:       client,
		catalog:      catalog,
		instructions: orDefault(opts.Instructions, plannerSystem),
		prompt:       orDefault(opts.Prompt, plannerPrompt),
		logger:       logging.OrNoOp(opts.Logger),
	}
}

type plannerPromptData struct {
	Input  string
	Agents []core.AgentInfo
}

// Plan asks the model for an execution plan. Every step must name one of the
// other known agents; order is kept as returned.
func (p *Planner) Plan(ctx context.Context, req core.AgentRequest) (core.ExecutionGraph, error) {
	graph, _, err := p.plan(ctx, req)
	return graph, err
}

func (p *Planner) plan(ctx context.Context, req core.AgentRequest) (core.ExecutionGraph, llm.Metadata, error) {
	if req.IsEmpty() {
		return core.ExecutionGraph{}, llm.Metadata{}, core.ErrEmptyInput
	}

	agents := p.candidates()
	if len(agents) == 0 {
		return core.ExecutionGraph{}, llm.Metadata{}, &core.ValidationError{
			Field:   "agents",
			Message: "no agents available for planning",
		}
	}

	data := plannerPromptData{Input: req.Input, Agents: agents}

	system, err := p.instructions.Resolve(ctx, req, data)
	if err != nil {
		return core.ExecutionGraph{}, llm.Metadata{}, fmt.Errorf("%s: resolve instructions: %w", p.Name(), err)
	}

	prompt, err := p.prompt.Resolve(ctx, req, data)
	if err != nil {
		return core.ExecutionGraph{}, llm.Metadata{}, fmt.Errorf("%s: resolve prompt: %w", p.Name(), err)
	}

	res, err := llm.Structured[executionPlan](ctx, p.client, planTool, llm.Prompt{
		System:    system,
		User:      prompt,
		AgentName: p.Name(),
	})
	if err != nil {
		return core.ExecutionGraph{}, llm.Metadata{}, fmt.Errorf("%s: %w", p.Name(), err)
	}

	if len(res.Data.Steps) == 0 {
		return core.ExecutionGraph{}, res.Metadata, core.NewUpstreamResponseError(p.Name(), "model returned an empty plan")
	}

	known := make(map[string]struct{}, len(agents))
	for _, a := range agents {
		known[a.Name] = struct{}{}
	}

	for i, step := range res.Data.Steps {
		if _, ok := known[step.AgentName]; !ok {
			return core.ExecutionGraph{}, res.Metadata, &core.ValidationError{
				Field:   fmt.Sprintf("steps[%d].agent_name", i),
				Value:   step.AgentName,
				Message: "plan references an unknown agent",
			}
		}
	}

	p.logger.Debug("agent.plan.complete", "agent", p.Name(), "steps", len(res.Data.Steps))

	return core.NewExecutionGraph(res.Data.Steps...), res.Metadata, nil
}

// Run plans and renders the plan as text without executing it.
func (p *Planner) Run(ctx context.Context, req core.AgentRequest) (core.AgentResponse, error) {
	start := time.Now()

	graph, meta, err := p.plan(ctx, req)
	if err != nil {
		return core.AgentResponse{}, err
	}

	steps := make([]string, graph.Len())
	for i, s := range graph.Steps {
		steps[i] = fmt.Sprintf("%d. %s", i+1, s)
	}

	return core.AgentResponse{
		Output:   strings.Join(steps, "\n"),
		Metadata: p.metadata(meta, start),
		Steps:    steps,
	}, nil
}

func (p *Planner) candidates() []core.AgentInfo {
	if p.catalog == nil {
		return nil
	}

	all := p.catalog.Describe()
	out := make([]core.AgentInfo, 0, len(all))
	for _, a := range all {
		if a.Name == p.Name() {
			continue
		}
		out = append(out, a)
	}

	return out
}
