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
	// FixMyBugName is the registry name of the bug fixing agent.
	FixMyBugName = "fix_my_bug"
	// FixMyBugDescription is the routing description of the bug fixing agent.
	FixMyBugDescription = "Finds and fixes bugs in code snippets and explains the fix."
)

// CodeFix is the structured answer of the bug fixing agent.
type CodeFix struct {
	OriginalCode string `json:"original_code" description:"The code as submitted"`
	FixedCode    string `json:"fixed_code" description:"The corrected code"`
	Explanation  string `json:"explanation" description:"Short explanation of the bug and the fix"`
}

var codeFixTool = tool.MustSchemaTool("code_fix", "A code fix suggestion", CodeFix{})

// FixMyBugOptions configures a FixMyBug agent.
type FixMyBugOptions struct {
	Description  string
	Instructions Instruction // system prompt
	Prompt       Instruction // user prompt template, receives {{.Input}}
	Logger       logging.Logger
}

// FixMyBug repairs code through a single structured model call.
type FixMyBug struct {
	BaseAgent
	client       *llm.Client
	instructions Instruction
	prompt       Instruction
	logger       logging.Logger
}

// NewFixMyBug creates the bug fixing agent.
func NewFixMyBug(client *llm.Client, optFns ...func(o *FixMyBugOptions)) *FixMyBug {
	opts := FixMyBugOptions{Description: FixMyBugDescription}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &FixMyBug{
		BaseAgent:    NewBaseAgent(FixMyBugName, opts.Description),
		client:       client,
		instructions: orDefault(opts.Instructions, fixMyBugSystem),
		prompt:       orDefault(opts.Prompt, fixMyBugPrompt),
		logger:       logging.OrNoOp(opts.Logger),
	}
}

// Run asks the model for a CodeFix. The fixed code becomes the output and the
// explanation the single step.
func (a *FixMyBug) Run(ctx context.Context, req core.AgentRequest) (core.AgentResponse, error) {
	if req.IsEmpty() {
		return core.AgentResponse{}, core.ErrEmptyInput
	}

	start := time.Now()

	system, err := a.instructions.Resolve(ctx, req, req)
	if err != nil {
		return core.AgentResponse{}, fmt.Errorf("%s: resolve instructions: %w", a.Name(), err)
	}

	prompt, err := a.prompt.Resolve(ctx, req, req)
	if err != nil {
		return core.AgentResponse{}, fmt.Errorf("%s: resolve prompt: %w", a.Name(), err)
	}

	a.logger.Debug("agent.run.start", "agent", a.Name(), "model", a.client.ModelName())

	res, err := llm.Structured[CodeFix](ctx, a.client, codeFixTool, llm.Prompt{
		System:    system,
		User:      prompt,
		AgentName: a.Name(),
	})
	if err != nil {
		return core.AgentResponse{}, fmt.Errorf("%s: %w", a.Name(), err)
	}

	if strings.TrimSpace(res.Data.FixedCode) == "" {
		return core.AgentResponse{}, core.NewUpstreamResponseError(a.Name(), "no fixed_code returned by the model")
	}

	a.logger.Debug("agent.run.complete", "agent", a.Name(), "tokens", res.Metadata.TokensUsed)

	return core.AgentResponse{
		Output:   res.Data.FixedCode,
		Metadata: a.metadata(res.Metadata, start),
		Steps:    []string{res.Data.Explanation},
	}, nil
}
