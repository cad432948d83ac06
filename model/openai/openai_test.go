package openai

import (
	"testing"

	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	req := model.Request{
		Instructions: "be brief",
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "hello"),
			core.NewTextContent(core.RoleAssistant, "hi"),
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 3)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	assert.NotNil(t, msgs[2].OfAssistant)
}

func TestBuildParams_ForcedToolChoice(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Model = "gpt-4o" })

	req := model.Request{
		Contents: []core.Content{core.NewTextContent(core.RoleUser, "fix it")},
		Tools: []model.ToolDefinition{{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        "code_fix",
				Description: "A code fix",
				Parameters:  map[string]any{"type": "object"},
			},
		}},
		ToolChoice: "code_fix",
	}

	params := m.buildParams(req, buildMessages(req))
	assert.Equal(t, "gpt-4o", params.Model)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "code_fix", params.Tools[0].Function.Name)
	require.NotNil(t, params.ToolChoice.OfChatCompletionNamedToolChoice)
	assert.Equal(t, "code_fix", params.ToolChoice.OfChatCompletionNamedToolChoice.Function.Name)
}

func TestInfo(t *testing.T) {
	m := NewModelFromClient(nil)
	info := m.Info()
	assert.Equal(t, "openai", info.Provider)
	assert.True(t, info.SupportsTools)
}
