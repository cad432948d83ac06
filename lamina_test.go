package lamina

import (
	"context"
	"testing"

	"github.com/hupe1980/lamina/agent"
	"github.com/hupe1980/lamina/calllog"
	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/model"
	"github.com/hupe1980/lamina/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperAgent struct{ agent.BaseAgent }

func (u *upperAgent) Run(_ context.Context, req core.AgentRequest) (core.AgentResponse, error) {
	return core.AgentResponse{Output: "UPPER " + req.Input, Metadata: core.NewAgentMetadata(u.Name())}, nil
}

func TestNew_RequiresModel(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestNew_RegistersBuiltins(t *testing.T) {
	l, err := New(func(o *Options) { o.Model = model.NewMockModel("m", "mock") })
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"fix_my_bug": "*agent.FixMyBug",
		"planner":    "*agent.Planner",
	}, l.Agents())
	assert.Equal(t, []string{"fix_my_bug", "planner"}, l.Registry().Names())
}

func TestNew_DuplicateAgentFails(t *testing.T) {
	_, err := New(func(o *Options) {
		o.Model = model.NewMockModel("m", "mock")
		o.Agents = []agent.Entry{{Name: agent.FixMyBugName, New: func() core.Agent { return nil }}}
	})
	assert.ErrorIs(t, err, agent.ErrDuplicateAgent)
}

func TestDispatch_EndToEnd(t *testing.T) {
	classifierModel := model.NewMockModel("classifier-model", "mock")
	agentModel := model.NewMockModel("agent-model", "mock")
	store := calllog.NewInMemoryStore()

	l, err := New(func(o *Options) {
		o.Model = agentModel
		o.ClassifierModel = classifierModel
		o.CallLog = store
	})
	require.NoError(t, err)

	classifierModel.AddFunctionResponse("dispatch_decision", core.DispatchDecision{Actionable: true, AgentName: "fix_my_bug", Reason: "bug"})
	agentModel.AddFunctionResponse("code_fix", agent.CodeFix{OriginalCode: "a - b", FixedCode: "a + b", Explanation: "plus"})

	resp, err := l.Dispatch(context.Background(), core.AgentRequest{Input: "return a - b"})
	require.NoError(t, err)
	assert.Equal(t, "a + b", resp.Output)
	assert.Equal(t, "agent-model", resp.Metadata.Model)

	assert.Equal(t, 1, classifierModel.Calls())
	assert.Equal(t, 1, agentModel.Calls())

	recs := store.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "classifier", recs[0].AgentName)
	assert.Equal(t, "fix_my_bug", recs[1].AgentName)
}

func TestDispatch_CustomAgentAndDescribeMode(t *testing.T) {
	m := model.NewMockModel("m", "mock")

	l, err := New(func(o *Options) {
		o.Model = m
		o.ExecutorMode = orchestrator.ExecutorModeDescribe
		o.Agents = []agent.Entry{{
			Name:        "upper",
			Description: "Upper-cases text",
			New:         func() core.Agent { return &upperAgent{BaseAgent: agent.NewBaseAgent("upper", "Upper-cases text")} },
		}}
	})
	require.NoError(t, err)

	assert.Equal(t, core.AgentInfo{Name: "upper", Description: "Upper-cases text"}, l.Describe()[2])

	m.AddFunctionResponse("dispatch_decision", core.DispatchDecision{Actionable: true, AgentName: "planner", Reason: "multi"})
	m.AddFunctionResponse("execution_plan", map[string]any{"steps": []core.ExecutionStep{{AgentName: "upper", Input: "hi"}}})

	resp, err := l.Dispatch(context.Background(), core.AgentRequest{Input: "shout hi"})
	require.NoError(t, err)
	assert.Equal(t, "Executed upper with input: hi\n", resp.Output)
	assert.Equal(t, []string{"upper"}, resp.Metadata.ToolsCalled)
}
