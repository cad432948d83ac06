package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/internal/tracing"
	"github.com/hupe1980/lamina/logging"
	"go.opentelemetry.io/otel/attribute"
)

// ExecutorName is the agent name reported for aggregated plan responses.
const ExecutorName = "executor"

// ExecutorMode selects how plan steps are carried out.
type ExecutorMode string

const (
	// ExecutorModeRun invokes every step's agent and aggregates the results.
	ExecutorModeRun ExecutorMode = "run"
	// ExecutorModeDescribe only records what would be executed.
	ExecutorModeDescribe ExecutorMode = "describe"
)

// ParseExecutorMode maps a configuration value to a mode. Empty means run.
func ParseExecutorMode(s string) (ExecutorMode, error) {
	switch ExecutorMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExecutorModeRun:
		return ExecutorModeRun, nil
	case ExecutorModeDescribe:
		return ExecutorModeDescribe, nil
	default:
		return "", fmt.Errorf("unknown executor mode %q", s)
	}
}

// AgentSource constructs agents by name.
type AgentSource interface {
	Has(name string) bool
	New(name string) (core.Agent, error)
}

// PlanRunner executes a plan.
type PlanRunner interface {
	Run(ctx context.Context, graph core.ExecutionGraph, req core.AgentRequest) (core.AgentResponse, error)
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	Mode   ExecutorMode
	Logger logging.Logger
}

// Executor runs linear plans one step at a time.
type Executor struct {
	agents AgentSource
	mode   ExecutorMode
	logger logging.Logger
}

// NewExecutor creates an Executor resolving step agents through agents.
func NewExecutor(agents AgentSource, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{Mode: ExecutorModeRun}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Mode == "" {
		opts.Mode = ExecutorModeRun
	}

	return &Executor{
		agents: agents,
		mode:   opts.Mode,
		logger: logging.OrNoOp(opts.Logger),
	}
}

// Mode returns the configured execution mode.
func (e *Executor) Mode() ExecutorMode { return e.mode }

// Run executes graph in order. Every step receives its own input together
// with the context map of req. The aggregate output is each step's
// contribution followed by a newline; tools_called lists the step agents in
// plan order. The first failing step aborts the run and its error is returned
// annotated with the step number.
func (e *Executor) Run(ctx context.Context, graph core.ExecutionGraph, req core.AgentRequest) (resp core.AgentResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "executor.run",
		attribute.Int("plan.steps", graph.Len()),
		attribute.String("executor.mode", string(e.mode)),
	)
	defer func() { tracing.End(span, err) }()

	agents, err := e.resolve(graph)
	if err != nil {
		return core.AgentResponse{}, err
	}

	start := time.Now()
	md := core.NewAgentMetadata(ExecutorName)

	var (
		out     strings.Builder
		steps   []string
		tokens  int
		counted bool
		models  = map[string]struct{}{}
	)

	for i, step := range graph.Steps {
		if err := ctx.Err(); err != nil {
			return core.AgentResponse{}, err
		}

		n := i + 1
		stepStart := time.Now()

		e.logger.Debug("executor.step.start", "step", n, "agent", step.AgentName)
		tracing.Event(ctx, "executor.step", attribute.Int("step", n), attribute.String("agent", step.AgentName))

		var stepResp core.AgentResponse
		if e.mode == ExecutorModeDescribe {
			stepResp = core.AgentResponse{Output: fmt.Sprintf("Executed %s with input: %s", step.AgentName, step.Input)}
		} else {
			stepResp, err = agents[i].Run(ctx, req.WithInput(step.Input))
		}

		e.logStep(n, step.AgentName, time.Since(stepStart), err)

		if err != nil {
			return core.AgentResponse{}, fmt.Errorf("step %d (%s): %w", n, step.AgentName, err)
		}

		out.WriteString(stepResp.Output)
		out.WriteString("\n")

		md.ToolsCalled = append(md.ToolsCalled, step.AgentName)
		steps = append(steps, fmt.Sprintf("%d. %s", n, step))
		steps = append(steps, stepResp.Steps...)

		if stepResp.Metadata.TokensUsed != nil {
			tokens += *stepResp.Metadata.TokensUsed
			counted = true
		}
		if stepResp.Metadata.Model != "" {
			models[stepResp.Metadata.Model] = struct{}{}
		}
	}

	if counted {
		md.TokensUsed = core.IntPtr(tokens)
	}
	if len(models) == 1 {
		for m := range models {
			md.Model = m
		}
	}
	md.DurationMS = core.Int64Ptr(time.Since(start).Milliseconds())

	return core.AgentResponse{
		Output:   out.String(),
		Metadata: md,
		Steps:    steps,
	}, nil
}

// resolve checks every step before anything runs so a bad plan has no side
// effects. Planners are rejected as step agents.
func (e *Executor) resolve(graph core.ExecutionGraph) ([]core.Agent, error) {
	if graph.Len() == 0 {
		return nil, &core.ValidationError{Field: "steps", Message: "plan has no steps"}
	}

	agents := make([]core.Agent, graph.Len())

	for i, step := range graph.Steps {
		field := fmt.Sprintf("steps[%d].agent_name", i)

		if !e.agents.Has(step.AgentName) {
			return nil, &core.ValidationError{Field: field, Value: step.AgentName, Message: "unknown agent"}
		}

		ag, err := e.agents.New(step.AgentName)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.AgentName, err)
		}

		if _, ok := ag.(core.Planner); ok {
			return nil, &core.ValidationError{Field: field, Value: step.AgentName, Message: "planners cannot be plan steps"}
		}

		agents[i] = ag
	}

	return agents, nil
}

func (e *Executor) logStep(n int, agent string, dur time.Duration, err error) {
	if l, ok := e.logger.(logging.StepLogger); ok {
		l.LogStep(n, agent, dur, err)
		return
	}

	if err != nil {
		e.logger.Error("executor.step.error", "step", n, "agent", agent, "error", err)
		return
	}

	e.logger.Debug("executor.step.complete", "step", n, "agent", agent, "duration", dur)
}
