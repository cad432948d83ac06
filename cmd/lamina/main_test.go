package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lamina.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigCommand_PrintsMaskedYAML(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LAMINA_OPENAI_API_KEY", "")
	t.Setenv("LAMINA_PROVIDER", "")
	path := writeConfig(t, `
provider: openai
openai:
  api_key: sk-test-1234567890
call_log:
  backend: none
`)

	out, err := run(t, "config", "--config", path)
	require.NoError(t, err)

	var printed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &printed))

	assert.Equal(t, "openai", printed["provider"])
	assert.Equal(t, "sk-t****7890", printed["openai"].(map[string]any)["api_key"])
	assert.Equal(t, "gpt-4o", printed["models"].(map[string]any)["planner"])
	assert.NotContains(t, out, "sk-test-1234567890")
}

func TestConfigCommand_RejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, "provider: gemini\n")
	_, err := run(t, "config", "--config", path)
	assert.Error(t, err)
}

func TestAgentsCommand(t *testing.T) {
	path := writeConfig(t, `
openai:
  api_key: sk-test
call_log:
  backend: none
`)

	out, err := run(t, "agents", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "fix_my_bug")
	assert.Contains(t, out, "*agent.FixMyBug")
	assert.Contains(t, out, "planner")
}

func TestDispatchCommand_EmptyInput(t *testing.T) {
	path := writeConfig(t, `
openai:
  api_key: sk-test
call_log:
  backend: none
`)

	_, err := run(t, "dispatch", "--config", path, "   ")
	assert.ErrorContains(t, err, "input cannot be empty")
}

func TestParseContext(t *testing.T) {
	got, err := parseContext([]string{"lang=go", "file=main.go"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lang": "go", "file": "main.go"}, got)

	got, err = parseContext(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseContext([]string{"novalue"})
	assert.Error(t, err)
}
