// Package lamina provides a high-level façade over the dispatch pipeline.
// Most applications interact with this package by:
//  1. Creating a Lamina via New() with at least one reasoning-service model
//  2. Optionally registering extra agents through Options.Agents
//  3. Calling Dispatch for every incoming request
//
// New registers the built-in fix_my_bug and planner agents, builds the
// classifier, executor and dispatcher, and wires logging and the call log
// into every component.
package lamina

import (
	"context"
	"errors"

	"github.com/hupe1980/lamina/agent"
	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/llm"
	"github.com/hupe1980/lamina/logging"
	"github.com/hupe1980/lamina/model"
	"github.com/hupe1980/lamina/orchestrator"
)

// ErrNoModel is returned by New when no model is configured.
var ErrNoModel = errors.New("lamina: a model is required")

// Options configures the Lamina instance.
type Options struct {
	// Model backs every component that has no dedicated model below.
	Model model.Model
	// ClassifierModel, PlannerModel and AgentModel override Model per component.
	ClassifierModel model.Model
	PlannerModel    model.Model
	AgentModel      model.Model

	// Agents are registered after the built-in agents.
	Agents []agent.Entry

	// CallLog receives one record per reasoning-service call (optional).
	CallLog core.CallLogStore

	// MaxModelCalls caps reasoning-service calls per dispatch. 0 means unlimited.
	MaxModelCalls int
	// MaxConcurrentDispatches bounds simultaneous dispatches. 0 means unbounded.
	MaxConcurrentDispatches int
	// ExecutorMode selects whether plan steps run or are only described.
	ExecutorMode orchestrator.ExecutorMode

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Lamina is the high-level façade aggregating registry and dispatcher.
type Lamina struct {
	opts       Options
	registry   *agent.Registry
	dispatcher *orchestrator.Dispatcher
}

// New creates a Lamina instance.
func New(optFns ...func(o *Options)) (*Lamina, error) {
	opts := Options{
		ExecutorMode: orchestrator.ExecutorModeRun,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	classifierModel := firstModel(opts.ClassifierModel, opts.Model)
	plannerModel := firstModel(opts.PlannerModel, opts.Model)
	agentModel := firstModel(opts.AgentModel, opts.Model)

	if classifierModel == nil || plannerModel == nil || agentModel == nil {
		return nil, ErrNoModel
	}

	client := func(m model.Model) *llm.Client {
		return llm.New(m, func(o *llm.Options) {
			o.Logger = opts.Logger
			o.CallLog = opts.CallLog
		})
	}

	classifierClient := client(classifierModel)
	plannerClient := client(plannerModel)
	agentClient := client(agentModel)

	registry, err := agent.NewRegistry(agent.Entry{
		Name:        agent.FixMyBugName,
		Description: agent.FixMyBugDescription,
		New: func() core.Agent {
			return agent.NewFixMyBug(agentClient, func(o *agent.FixMyBugOptions) { o.Logger = opts.Logger })
		},
	})
	if err != nil {
		return nil, err
	}

	if err := registry.Register(agent.Entry{
		Name:        agent.PlannerName,
		Description: agent.PlannerDescription,
		New: func() core.Agent {
			return agent.NewPlanner(plannerClient, registry, func(o *agent.PlannerOptions) { o.Logger = opts.Logger })
		},
	}); err != nil {
		return nil, err
	}

	for _, e := range opts.Agents {
		if err := registry.Register(e); err != nil {
			return nil, err
		}
	}

	classifier := orchestrator.NewClassifier(classifierClient, func(o *orchestrator.ClassifierOptions) {
		o.Logger = opts.Logger
	})

	executor := orchestrator.NewExecutor(registry, func(o *orchestrator.ExecutorOptions) {
		o.Mode = opts.ExecutorMode
		o.Logger = opts.Logger
	})

	dispatcher := orchestrator.NewDispatcher(registry, classifier, executor, func(o *orchestrator.DispatcherOptions) {
		o.MaxModelCalls = opts.MaxModelCalls
		o.MaxConcurrent = opts.MaxConcurrentDispatches
		o.Logger = opts.Logger
	})

	return &Lamina{opts: opts, registry: registry, dispatcher: dispatcher}, nil
}

// Dispatch routes req to the right agent and returns its response.
func (l *Lamina) Dispatch(ctx context.Context, req core.AgentRequest) (core.AgentResponse, error) {
	return l.dispatcher.Dispatch(ctx, req)
}

// Agents maps every registered agent name to its implementation type.
func (l *Lamina) Agents() map[string]string { return l.registry.List() }

// Describe lists registered agents with their descriptions in registration order.
func (l *Lamina) Describe() []core.AgentInfo { return l.registry.Describe() }

// Registry exposes the agent registry.
func (l *Lamina) Registry() *agent.Registry { return l.registry }

func firstModel(models ...model.Model) model.Model {
	for _, m := range models {
		if m != nil {
			return m
		}
	}
	return nil
}
