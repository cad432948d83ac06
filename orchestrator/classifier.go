package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/internal/util"
	"github.com/hupe1980/lamina/llm"
	"github.com/hupe1980/lamina/logging"
	"github.com/hupe1980/lamina/tool"
)

// ClassifierName tags classifier calls in the call log.
const ClassifierName = "classifier"

const defaultClassifierSystem = "You classify user requests and decide which agent, if any, should handle them."

const defaultClassifierPrompt = `Decide whether the request is actionable. If it is, choose the best agent and explain why.
If no agent fits, set actionable to false and explain why in the reason.

Available agents:
{{- range .Agents}}
- **{{.Name}}**: {{default "No description" .Description}}
{{- end}}

User input:
"""
{{.Input}}
"""`

var decisionTool = tool.MustSchemaTool("dispatch_decision", "Routing decision for a user request", core.DispatchDecision{})

// IntentClassifier decides which agent should handle an input.
type IntentClassifier interface {
	Classify(ctx context.Context, input string, candidates []core.AgentInfo) (core.DispatchDecision, error)
}

// ClassifierOptions configures a Classifier.
type ClassifierOptions struct {
	// Instructions is the system prompt.
	Instructions string
	// Prompt is a text/template receiving {{.Input}} and {{.Agents}}.
	Prompt string
	Logger logging.Logger
}

// Classifier implements IntentClassifier with one forced structured call.
type Classifier struct {
	client       *llm.Client
	instructions string
	prompt       string
	logger       logging.Logger
}

// NewClassifier creates a Classifier backed by client.
func NewClassifier(client *llm.Client, optFns ...func(o *ClassifierOptions)) *Classifier {
	opts := ClassifierOptions{
		Instructions: defaultClassifierSystem,
		Prompt:       defaultClassifierPrompt,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Classifier{
		client:       client,
		instructions: opts.Instructions,
		prompt:       opts.Prompt,
		logger:       logging.OrNoOp(opts.Logger),
	}
}

type classifierPromptData struct {
	Input  string
	Agents []core.AgentInfo
}

// Classify returns the routing decision for input. The reason is always
// non-empty and AgentName is cleared when the request is not actionable.
// Model failures are returned, never replaced by a local fallback.
func (c *Classifier) Classify(ctx context.Context, input string, candidates []core.AgentInfo) (core.DispatchDecision, error) {
	if strings.TrimSpace(input) == "" {
		return core.DispatchDecision{}, core.ErrEmptyInput
	}

	prompt, err := util.RenderTemplate(c.prompt, classifierPromptData{Input: input, Agents: candidates})
	if err != nil {
		return core.DispatchDecision{}, fmt.Errorf("classifier: render prompt: %w", err)
	}

	res, err := llm.Structured[core.DispatchDecision](ctx, c.client, decisionTool, llm.Prompt{
		System:    c.instructions,
		User:      prompt,
		AgentName: ClassifierName,
	})
	if err != nil {
		return core.DispatchDecision{}, fmt.Errorf("classifier: %w", err)
	}

	decision := res.Data
	decision.AgentName = strings.TrimSpace(decision.AgentName)
	decision.Reason = strings.TrimSpace(decision.Reason)

	if decision.Reason == "" {
		return core.DispatchDecision{}, core.NewUpstreamResponseError(ClassifierName, "decision carries no reason")
	}

	if !decision.Actionable {
		decision.AgentName = ""
	}

	c.logger.Debug("dispatch.classify.complete",
		"actionable", decision.Actionable,
		"agent", decision.AgentName,
		"reason", decision.Reason,
	)

	return decision, nil
}
