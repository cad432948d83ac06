package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/internal/tracing"
	"github.com/hupe1980/lamina/logging"
	"go.opentelemetry.io/otel/attribute"
)

// Phase names a stage of a dispatch. Phases are logged at debug level and
// recorded as span events.
type Phase string

const (
	PhaseReceived             Phase = "received"
	PhaseClassifying          Phase = "classifying"
	PhaseRejected             Phase = "rejected"
	PhaseRoutingError         Phase = "routing-error"
	PhaseSingleAgentExecution Phase = "single-agent-execution"
	PhasePlanning             Phase = "planning"
	PhaseExecuting            Phase = "executing"
	PhaseCompleted            Phase = "completed"
)

// AgentRegistry is the registry view the dispatcher needs.
type AgentRegistry interface {
	AgentSource
	Describe() []core.AgentInfo
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// MaxModelCalls caps reasoning-service calls per dispatch. 0 means unlimited.
	MaxModelCalls int
	// MaxConcurrent bounds simultaneous dispatches. 0 means unbounded.
	MaxConcurrent int
	Logger        logging.Logger
}

// Dispatcher is the single entry point for routing a request.
type Dispatcher struct {
	registry      AgentRegistry
	classifier    IntentClassifier
	executor      PlanRunner
	maxModelCalls int
	sem           chan struct{}
	logger        logging.Logger
}

// NewDispatcher wires the dispatch pipeline.
func NewDispatcher(registry AgentRegistry, classifier IntentClassifier, executor PlanRunner, optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	d := &Dispatcher{
		registry:      registry,
		classifier:    classifier,
		executor:      executor,
		maxModelCalls: opts.MaxModelCalls,
		logger:        logging.OrNoOp(opts.Logger),
	}

	if opts.MaxConcurrent > 0 {
		d.sem = make(chan struct{}, opts.MaxConcurrent)
	}

	return d
}

// Dispatch validates req, classifies it and runs the chosen agent, or plans
// and executes when the chosen agent is a planner.
//
// Errors:
//   - core.ErrEmptyInput for blank input, before any external call
//   - *core.NoMatchingAgentError when the request is not actionable or the
//     chosen agent is not registered
//   - *core.ValidationError for plans naming unknown agents
//   - *core.UpstreamResponseError for incomplete model answers
//   - anything else returned by the model or an agent, wrapped
func (d *Dispatcher) Dispatch(ctx context.Context, req core.AgentRequest) (resp core.AgentResponse, err error) {
	if req.IsEmpty() {
		return core.AgentResponse{}, core.ErrEmptyInput
	}

	if d.sem != nil {
		select {
		case d.sem <- struct{}{}:
			defer func() { <-d.sem }()
		case <-ctx.Done():
			return core.AgentResponse{}, ctx.Err()
		}
	}

	id := core.NewID()
	start := time.Now()

	ctx, span := tracing.StartSpan(ctx, "dispatch", attribute.String("dispatch.id", id))
	defer func() { tracing.End(span, err) }()

	if d.maxModelCalls > 0 {
		ctx = core.WithModelLimiter(ctx, core.NewModelLimiter(d.maxModelCalls))
	}

	d.phase(ctx, id, PhaseReceived)

	routed := ""
	defer func() { d.logDispatch(id, routed, resp, time.Since(start), err) }()

	candidates := d.registry.Describe()

	d.phase(ctx, id, PhaseClassifying)

	decision, err := d.classifier.Classify(ctx, req.Input, candidates)
	if err != nil {
		return core.AgentResponse{}, fmt.Errorf("classify: %w", err)
	}

	span.SetAttributes(
		attribute.Bool("dispatch.actionable", decision.Actionable),
		attribute.String("dispatch.agent", decision.AgentName),
	)

	if !decision.HasAgent() {
		d.phase(ctx, id, PhaseRejected, attribute.String("reason", decision.Reason))
		return core.AgentResponse{}, &core.NoMatchingAgentError{Reason: decision.Reason}
	}

	routed = decision.AgentName

	if !d.registry.Has(decision.AgentName) {
		d.phase(ctx, id, PhaseRoutingError, attribute.String("agent", decision.AgentName))
		return core.AgentResponse{}, &core.NoMatchingAgentError{
			AgentName: decision.AgentName,
			Reason:    "classifier selected an agent that is not registered",
		}
	}

	ag, err := d.registry.New(decision.AgentName)
	if err != nil {
		return core.AgentResponse{}, fmt.Errorf("construct agent %s: %w", decision.AgentName, err)
	}

	if planner, ok := ag.(core.Planner); ok {
		resp, err = d.plan(ctx, id, planner, req)
	} else {
		d.phase(ctx, id, PhaseSingleAgentExecution, attribute.String("agent", ag.Name()))
		resp, err = ag.Run(ctx, req)
		if err != nil {
			err = fmt.Errorf("agent %s: %w", ag.Name(), err)
		}
	}

	if err != nil {
		return core.AgentResponse{}, err
	}

	d.phase(ctx, id, PhaseCompleted)

	return resp, nil
}

func (d *Dispatcher) plan(ctx context.Context, id string, planner core.Planner, req core.AgentRequest) (core.AgentResponse, error) {
	d.phase(ctx, id, PhasePlanning, attribute.String("agent", planner.Name()))

	graph, err := planner.Plan(ctx, req)
	if err != nil {
		return core.AgentResponse{}, fmt.Errorf("plan: %w", err)
	}

	d.phase(ctx, id, PhaseExecuting, attribute.Int("plan.steps", graph.Len()))

	resp, err := d.executor.Run(ctx, graph, req)
	if err != nil {
		return core.AgentResponse{}, fmt.Errorf("execute plan: %w", err)
	}

	return resp, nil
}

func (d *Dispatcher) phase(ctx context.Context, id string, p Phase, attrs ...attribute.KeyValue) {
	tracing.Event(ctx, string(p), attrs...)
	d.logger.Debug("dispatch.phase", "dispatch_id", id, "phase", string(p))
}

func (d *Dispatcher) logDispatch(id, agent string, resp core.AgentResponse, dur time.Duration, err error) {
	if resp.Metadata.AgentName != "" {
		agent = resp.Metadata.AgentName
	}

	rejected := errors.Is(err, core.ErrNoMatchingAgent) || errors.Is(err, core.ErrValidation)

	if l, ok := d.logger.(logging.DispatchLogger); ok {
		l.LogDispatch(logging.DispatchOutcome{
			ID:       id,
			Agent:    agent,
			Steps:    len(resp.Metadata.ToolsCalled),
			Duration: dur,
			Err:      err,
			Rejected: rejected,
		})
		return
	}

	switch {
	case err == nil:
		d.logger.Info("dispatch.completed", "dispatch_id", id, "agent", agent, "duration", dur)
	case rejected:
		d.logger.Warn("dispatch.rejected", "dispatch_id", id, "agent", agent, "error", err)
	default:
		d.logger.Error("dispatch.failed", "dispatch_id", id, "agent", agent, "error", err)
	}
}
