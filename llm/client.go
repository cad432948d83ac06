package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/internal/tracing"
	"github.com/hupe1980/lamina/logging"
	"github.com/hupe1980/lamina/model"
	"github.com/hupe1980/lamina/tool"
	"go.opentelemetry.io/otel/attribute"
)

// Prompt is a single-turn exchange with the reasoning service.
type Prompt struct {
	System string
	User   string
	// AgentName tags the call log entry with the calling agent.
	AgentName string
}

// Metadata describes one reasoning-service call.
type Metadata struct {
	Model      string
	TokensUsed int
	// UsageReported is false when the provider returned no token usage.
	UsageReported bool
	Duration      time.Duration
}

// Result couples the parsed answer with call metadata.
type Result[T any] struct {
	Data     T
	Metadata Metadata
}

// Options configures a Client.
type Options struct {
	Logger  logging.Logger
	CallLog core.CallLogStore
}

// Client issues calls against a single model.
type Client struct {
	model   model.Model
	logger  logging.Logger
	callLog core.CallLogStore
}

// New creates a Client for m.
func New(m model.Model, optFns ...func(o *Options)) *Client {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{
		model:   m,
		logger:  logging.OrNoOp(opts.Logger),
		callLog: opts.CallLog,
	}
}

// Model returns the wrapped model.
func (c *Client) Model() model.Model { return c.model }

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string { return c.model.Info().Name }

// Call asks for a free text completion.
func (c *Client) Call(ctx context.Context, p Prompt) (Result[string], error) {
	resp, meta, err := c.generate(ctx, "llm.call", p, model.Request{
		Instructions: p.System,
		Contents:     []core.Content{core.NewTextContent(core.RoleUser, p.User)},
	})
	if err != nil {
		return Result[string]{}, err
	}

	text := resp.Content.Text()
	c.record(ctx, p, "text", meta, text, nil)

	return Result[string]{Data: text, Metadata: meta}, nil
}

// Structured forces the model to answer through schema and decodes the
// validated arguments into T. An answer that is missing or does not satisfy
// the schema yields a *core.UpstreamResponseError.
func Structured[T any](ctx context.Context, c *Client, schema *tool.SchemaTool, p Prompt) (Result[T], error) {
	var zero Result[T]

	resp, meta, err := c.generate(ctx, "llm.structured", p, model.Request{
		Instructions: p.System,
		Contents:     []core.Content{core.NewTextContent(core.RoleUser, p.User)},
		Tools:        []model.ToolDefinition{tool.Definition(schema)},
		ToolChoice:   schema.Name(),
	})
	if err != nil {
		return zero, err
	}

	raw := structuredPayload(resp.Content, schema.Name())
	if raw == "" {
		c.record(ctx, p, schema.Name(), meta, resp.Content.Text(), nil)
		return zero, core.NewUpstreamResponseError(schema.Name(), "model returned no structured answer")
	}

	if err := schema.Validate([]byte(raw)); err != nil {
		c.record(ctx, p, schema.Name(), meta, raw, nil)
		return zero, core.NewUpstreamResponseError(schema.Name(), err.Error())
	}

	var data T
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		c.record(ctx, p, schema.Name(), meta, raw, nil)
		return zero, core.NewUpstreamResponseError(schema.Name(), fmt.Sprintf("decode answer: %v", err))
	}

	c.record(ctx, p, schema.Name(), meta, raw, json.RawMessage(raw))

	return Result[T]{Data: data, Metadata: meta}, nil
}

func (c *Client) generate(ctx context.Context, spanName string, p Prompt, req model.Request) (model.Response, Metadata, error) {
	if l := core.ModelLimiterFrom(ctx); l != nil {
		if err := l.Increment(); err != nil {
			return model.Response{}, Metadata{}, err
		}
	}

	name := c.ModelName()

	ctx, span := tracing.StartSpan(ctx, spanName,
		attribute.String("llm.model", name),
		attribute.String("llm.agent", p.AgentName),
	)

	start := time.Now()
	resp, err := model.Collect(ctx, c.model, req)
	meta := Metadata{Model: name, Duration: time.Since(start)}

	if err == nil {
		if resp.Model != "" {
			meta.Model = resp.Model
		}
		if resp.Usage != nil {
			meta.TokensUsed = resp.Usage.TotalTokens
			meta.UsageReported = true
		}
		span.SetAttributes(attribute.Int("llm.tokens", meta.TokensUsed))
	}

	tracing.End(span, err)
	c.logCall(meta, err)

	if err != nil {
		return model.Response{}, meta, fmt.Errorf("model %s: %w", name, err)
	}

	return resp, meta, nil
}

func (c *Client) logCall(meta Metadata, err error) {
	if l, ok := c.logger.(logging.LLMCallLogger); ok {
		l.LogLLMCall(meta.Model, meta.TokensUsed, meta.Duration, err == nil, err)
		return
	}

	if err != nil {
		c.logger.Error("llm.call.error", "model", meta.Model, "error", err)
		return
	}

	c.logger.Debug("llm.call.complete", "model", meta.Model, "tokens", meta.TokensUsed, "duration", meta.Duration)
}

func (c *Client) record(ctx context.Context, p Prompt, schema string, meta Metadata, response string, parsed json.RawMessage) {
	if c.callLog == nil {
		return
	}

	rec := core.CallRecord{
		ID:         core.NewID(),
		Timestamp:  time.Now().UTC(),
		Model:      meta.Model,
		Prompt:     p.User,
		System:     p.System,
		Response:   response,
		Parsed:     parsed,
		Schema:     schema,
		AgentName:  p.AgentName,
		DurationMS: meta.Duration.Milliseconds(),
		TokensUsed: meta.TokensUsed,
	}

	if err := c.callLog.Append(ctx, rec); err != nil {
		c.logger.Warn("llm.call_log.append_failed", "schema", schema, "error", err)
	}
}

var codeFenceRe = regexp.MustCompile(`(?si)^` + "```" + `(?:json)?\s*(.*?)\s*` + "```" + `$`)

// structuredPayload returns the arguments of the forced function call. Models
// that ignore the tool choice and answer in text are accepted when the text
// is a (possibly fenced) JSON document.
func structuredPayload(content core.Content, name string) string {
	calls := content.FunctionCalls()
	for _, fc := range calls {
		if fc.Name == name {
			return strings.TrimSpace(fc.Arguments)
		}
	}
	if len(calls) == 1 {
		return strings.TrimSpace(calls[0].Arguments)
	}

	text := strings.TrimSpace(content.Text())
	if m := codeFenceRe.FindStringSubmatch(text); len(m) > 1 {
		text = strings.TrimSpace(m[1])
	}
	if json.Valid([]byte(text)) {
		return text
	}

	return ""
}
