package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hupe1980/lamina/agent"
	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/logging"
	"github.com/hupe1980/lamina/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_SingleAgentBugFix(t *testing.T) {
	f := newFixture(t)
	f.decide(true, agent.FixMyBugName, "The user reports a bug in an add function")
	f.fix("def add(a, b): return a + b", "Subtraction replaced with addition.")

	resp, err := f.dispatcher().Dispatch(context.Background(), core.AgentRequest{Input: "def add(a, b): return a - b"})
	require.NoError(t, err)

	assert.Contains(t, resp.Output, "a + b")
	assert.Equal(t, agent.FixMyBugName, resp.Metadata.AgentName)
	assert.Equal(t, []string{"Subtraction replaced with addition."}, resp.Steps)
	assert.Equal(t, 2, f.model.Calls())
}

func TestDispatch_NotActionable(t *testing.T) {
	f := newFixture(t)
	f.decide(false, "", "No suitable agent available for travel planning")

	_, err := f.dispatcher().Dispatch(context.Background(), core.AgentRequest{Input: "plan a trip to Paris"})
	require.ErrorIs(t, err, core.ErrNoMatchingAgent)

	var nm *core.NoMatchingAgentError
	require.ErrorAs(t, err, &nm)
	assert.Equal(t, "No suitable agent available for travel planning", nm.Reason)
	assert.Equal(t, 1, f.model.Calls())
}

func TestDispatch_NotActionableWithNullAgent(t *testing.T) {
	f := newFixture(t)
	f.model.AddFunctionResponse("dispatch_decision",
		`{"actionable": false, "agent_name": null, "reason": "No suitable agent available for travel planning"}`)

	_, err := f.dispatcher().Dispatch(context.Background(), core.AgentRequest{Input: "plan a trip to Paris"})
	require.ErrorIs(t, err, core.ErrNoMatchingAgent)
	assert.NotErrorIs(t, err, core.ErrUpstreamResponse)

	var nm *core.NoMatchingAgentError
	require.ErrorAs(t, err, &nm)
	assert.Equal(t, "No suitable agent available for travel planning", nm.Reason)
}

func TestDispatch_ActionableWithoutAgent(t *testing.T) {
	f := newFixture(t)
	f.decide(true, "", "Looks actionable but nothing named")

	_, err := f.dispatcher().Dispatch(context.Background(), core.AgentRequest{Input: "do it"})
	assert.ErrorIs(t, err, core.ErrNoMatchingAgent)
}

func TestDispatch_UnknownAgent(t *testing.T) {
	f := newFixture(t)
	f.decide(true, "book_flight", "Travel booking")

	_, err := f.dispatcher().Dispatch(context.Background(), core.AgentRequest{Input: "book a flight"})
	require.ErrorIs(t, err, core.ErrNoMatchingAgent)

	var nm *core.NoMatchingAgentError
	require.ErrorAs(t, err, &nm)
	assert.Equal(t, "book_flight", nm.AgentName)
	assert.Equal(t, 1, f.model.Calls())
}

func TestDispatch_EmptyInputMakesNoCalls(t *testing.T) {
	f := newFixture(t)

	for _, input := range []string{"", "  ", "\n\t"} {
		_, err := f.dispatcher().Dispatch(context.Background(), core.AgentRequest{Input: input})
		assert.ErrorIs(t, err, core.ErrEmptyInput)
	}
	assert.Zero(t, f.model.Calls())
}

func TestDispatch_PlannerRunsEachStep(t *testing.T) {
	f := newFixture(t)
	f.decide(true, agent.PlannerName, "Two independent bugs need fixing")
	f.plan(
		core.ExecutionStep{AgentName: agent.FixMyBugName, Input: "def add(a, b): return a - b"},
		core.ExecutionStep{AgentName: agent.FixMyBugName, Input: "def mul(a, b): return a + b"},
	)
	f.fix("def add(a, b): return a + b", "use +")
	f.fix("def mul(a, b): return a * b", "use *")
	f.model.SetUsage(model.TokenUsage{TotalTokens: 10})

	resp, err := f.dispatcher().Dispatch(context.Background(), core.AgentRequest{Input: "fix both functions"})
	require.NoError(t, err)

	assert.Equal(t, ExecutorName, resp.Metadata.AgentName)
	assert.Equal(t, []string{agent.FixMyBugName, agent.FixMyBugName}, resp.Metadata.ToolsCalled)
	assert.Equal(t, "def add(a, b): return a + b\ndef mul(a, b): return a * b\n", resp.Output)
	assert.Equal(t, []string{
		"1. fix_my_bug: def add(a, b): return a - b",
		"use +",
		"2. fix_my_bug: def mul(a, b): return a + b",
		"use *",
	}, resp.Steps)
	require.NotNil(t, resp.Metadata.TokensUsed)
	assert.Equal(t, 20, *resp.Metadata.TokensUsed)

	// classifier + planner + two fixes
	assert.Equal(t, 4, f.model.Calls())
}

func TestDispatch_PlanWithUnknownAgent(t *testing.T) {
	f := newFixture(t)
	f.decide(true, agent.PlannerName, "multi step")
	f.plan(core.ExecutionStep{AgentName: "book_hotel", Input: "Paris"})

	_, err := f.dispatcher().Dispatch(context.Background(), core.AgentRequest{Input: "plan a trip"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, 2, f.model.Calls())
}

func TestDispatch_ModelCallBudget(t *testing.T) {
	f := newFixture(t)
	f.decide(true, agent.FixMyBugName, "bug")
	f.fix("fixed", "why")

	d := f.dispatcher(func(o *DispatcherOptions) { o.MaxModelCalls = 1 })

	_, err := d.Dispatch(context.Background(), core.AgentRequest{Input: "a - b"})
	assert.ErrorIs(t, err, core.ErrModelCallLimit)
	assert.Equal(t, 1, f.model.Calls())

	// the budget is per dispatch
	d = f.dispatcher(func(o *DispatcherOptions) { o.MaxModelCalls = 2 })
	_, err = d.Dispatch(context.Background(), core.AgentRequest{Input: "a - b"})
	assert.NoError(t, err)
}

func TestDispatch_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.decide(true, agent.FixMyBugName, "bug")
	f.fix("a + b", "swap")

	d := f.dispatcher()
	first, err := d.Dispatch(context.Background(), core.AgentRequest{Input: "a - b"})
	require.NoError(t, err)
	second, err := d.Dispatch(context.Background(), core.AgentRequest{Input: "a - b"})
	require.NoError(t, err)

	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, first.Metadata.AgentName, second.Metadata.AgentName)
}

func TestDispatch_ConcurrencyBound(t *testing.T) {
	f := newFixture(t)
	d := f.dispatcher(func(o *DispatcherOptions) { o.MaxConcurrent = 1 })
	d.sem <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dispatch(ctx, core.AgentRequest{Input: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.model.Calls())
}

func TestDispatch_RejectionLoggedAsWarning(t *testing.T) {
	var buf bytes.Buffer
	cfg := logging.DefaultLoggerConfig()
	cfg.Output = &buf
	logger := logging.NewLogger(cfg)

	f := newFixture(t)
	f.decide(false, "", "No suitable agent available for travel planning")

	_, err := f.dispatcher(func(o *DispatcherOptions) { o.Logger = logger }).
		Dispatch(context.Background(), core.AgentRequest{Input: "plan a trip to Paris"})
	require.ErrorIs(t, err, core.ErrNoMatchingAgent)

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		if m["msg"] == "Dispatch rejected" {
			entry = m
		}
	}
	require.NotNil(t, entry)
	assert.Equal(t, "WARN", entry["level"])
	assert.NotEmpty(t, entry["dispatch_id"])
}
