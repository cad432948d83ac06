package agent

import (
	"context"

	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/internal/util"
)

// Provider supplies dynamic prompt text at runtime.
type Provider interface {
	Instruction(ctx context.Context, req core.AgentRequest) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(ctx context.Context, req core.AgentRequest) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ctx context.Context, req core.AgentRequest) (string, error) {
	return f(ctx, req)
}

// Instruction represents either a static prompt template or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a text/template string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(ctx context.Context, req core.AgentRequest) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a template string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether the instruction carries neither text nor provider.
func (i Instruction) IsZero() bool { return i.provider == nil && i.text == "" }

// Resolve returns the prompt text. Templates are rendered with data;
// providers receive the request instead.
func (i Instruction) Resolve(ctx context.Context, req core.AgentRequest, data any) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx, req)
	}
	return util.RenderTemplate(i.text, data)
}

func orDefault(i Instruction, fallback string) Instruction {
	if i.IsZero() {
		return NewInstructionFromText(fallback)
	}
	return i
}
