package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	Agent string `json:"agent" description:"agent name"`
	Input string `json:"input"`
}

type plan struct {
	Steps []step `json:"steps"`
	Note  string `json:"note,omitempty"`
	Skip  string `json:"-"`
}

func TestCreateSchema_NestedArray(t *testing.T) {
	schema := CreateSchema(plan{})

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"steps"}, schema["required"])

	props := schema["properties"].(map[string]any)
	require.Contains(t, props, "steps")
	require.Contains(t, props, "note")
	assert.NotContains(t, props, "Skip")

	steps := props["steps"].(map[string]any)
	assert.Equal(t, "array", steps["type"])

	items := steps["items"].(map[string]any)
	assert.Equal(t, "object", items["type"])
	assert.ElementsMatch(t, []string{"agent", "input"}, items["required"])

	agent := items["properties"].(map[string]any)["agent"].(map[string]any)
	assert.Equal(t, "string", agent["type"])
	assert.Equal(t, "agent name", agent["description"])
}

func TestCreateSchema_NonStruct(t *testing.T) {
	schema := CreateSchema(42)
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])

	assert.Equal(t, "object", CreateSchema(nil)["type"])
}

func TestCreateSchema_Pointer(t *testing.T) {
	type withPtr struct {
		Name  *string `json:"name"`
		Count int     `json:"count"`
	}
	schema := CreateSchema(&withPtr{})
	assert.Equal(t, []string{"count"}, schema["required"])
	props := schema["properties"].(map[string]any)
	assert.Equal(t, "integer", props["count"].(map[string]any)["type"])
	assert.Equal(t, []string{"string", "null"}, props["name"].(map[string]any)["type"])
}

func TestCreateSchema_OptionalFieldsAcceptNull(t *testing.T) {
	type decision struct {
		Actionable bool   `json:"actionable"`
		AgentName  string `json:"agent_name,omitempty"`
		Mode       string `json:"mode,omitempty" enum:"run|describe"`
	}
	schema := CreateSchema(decision{})
	assert.Equal(t, []string{"actionable"}, schema["required"])

	props := schema["properties"].(map[string]any)
	assert.Equal(t, "boolean", props["actionable"].(map[string]any)["type"])
	assert.Equal(t, []string{"string", "null"}, props["agent_name"].(map[string]any)["type"])

	mode := props["mode"].(map[string]any)
	assert.Equal(t, []any{"run", "describe", nil}, mode["enum"])
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate(`Fix: {{ .Input }} ({{ default "none" .Lang }})`, map[string]any{
		"Input": `return a - b "quoted"`,
		"Lang":  "",
	})
	require.NoError(t, err)
	assert.Equal(t, `Fix: return a - b "quoted" (none)`, out)
}

func TestRenderTemplate_FastPath(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestRenderTemplate_ParseError(t *testing.T) {
	_, err := RenderTemplate("{{ .Broken ", nil)
	require.Error(t, err)
}

func TestCreateSchema_Enum(t *testing.T) {
	type mode struct {
		Mode string `json:"mode" enum:"run|describe"`
	}
	props := CreateSchema(mode{})["properties"].(map[string]any)
	assert.Equal(t, []string{"run", "describe"}, props["mode"].(map[string]any)["enum"])
}
