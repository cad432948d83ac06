package orchestrator

import (
	"context"
	"testing"

	"github.com/hupe1980/lamina/agent"
	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/llm"
	"github.com/hupe1980/lamina/model"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubAgent is a scripted core.Agent.
type stubAgent struct {
	mock.Mock
	name string
}

func (s *stubAgent) Name() string        { return s.name }
func (s *stubAgent) Description() string { return "stub " + s.name }

func (s *stubAgent) Run(ctx context.Context, req core.AgentRequest) (core.AgentResponse, error) {
	args := s.Called(ctx, req)
	return args.Get(0).(core.AgentResponse), args.Error(1)
}

type fixture struct {
	model    *model.MockModel
	registry *agent.Registry
	client   *llm.Client
}

func newFixture(t *testing.T, extra ...agent.Entry) *fixture {
	t.Helper()

	m := model.NewMockModel("mock-1", "mock")
	client := llm.New(m)

	r, err := agent.NewRegistry(agent.Entry{
		Name:        agent.FixMyBugName,
		Description: agent.FixMyBugDescription,
		New:         func() core.Agent { return agent.NewFixMyBug(client) },
	})
	require.NoError(t, err)

	require.NoError(t, r.Register(agent.Entry{
		Name:        agent.PlannerName,
		Description: agent.PlannerDescription,
		New:         func() core.Agent { return agent.NewPlanner(client, r) },
	}))

	for _, e := range extra {
		require.NoError(t, r.Register(e))
	}

	return &fixture{model: m, registry: r, client: client}
}

func (f *fixture) dispatcher(optFns ...func(o *DispatcherOptions)) *Dispatcher {
	return NewDispatcher(f.registry, NewClassifier(f.client), NewExecutor(f.registry), optFns...)
}

func (f *fixture) decide(actionable bool, agentName, reason string) {
	f.model.AddFunctionResponse("dispatch_decision", core.DispatchDecision{
		Actionable: actionable,
		AgentName:  agentName,
		Reason:     reason,
	})
}

func (f *fixture) fix(fixed, explanation string) {
	f.model.AddFunctionResponse("code_fix", agent.CodeFix{
		OriginalCode: "orig",
		FixedCode:    fixed,
		Explanation:  explanation,
	})
}

func (f *fixture) plan(steps ...core.ExecutionStep) {
	f.model.AddFunctionResponse("execution_plan", map[string]any{"steps": steps})
}

func stubEntry(s *stubAgent) agent.Entry {
	return agent.Entry{Name: s.name, Description: s.Description(), New: func() core.Agent { return s }}
}
