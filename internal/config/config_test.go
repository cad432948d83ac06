package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "LAMINA_PROVIDER", "LAMINA_SERVER_ADDR", "LAMINA_OPENAI_API_KEY", "LAMINA_ANTHROPIC_API_KEY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg := Default()

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.Classifier)
	assert.Equal(t, "gpt-4o", cfg.Models.Planner)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.Agents)
	assert.Equal(t, "jsonl", cfg.CallLog.Backend)
	assert.Equal(t, filepath.Join("logs", "llm_calls.jsonl"), cfg.CallLog.Path)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "run", cfg.Executor.Mode)
	assert.InDelta(t, 0.2, cfg.Temperature, 1e-9)
	assert.False(t, cfg.Tracing.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "lamina.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: anthropic
anthropic:
  api_key: ${TEST_LAMINA_KEY}
models:
  classifier: claude-3-5-haiku-latest
call_log:
  backend: sqlite
  path: /tmp/calls.db
dispatch:
  max_model_calls: 5
executor:
  mode: describe
`), 0o600))
	t.Setenv("TEST_LAMINA_KEY", "sk-ant-secret-key")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "sk-ant-secret-key", cfg.APIKey())
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Models.Classifier)
	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.Models.Planner)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Models.Agents)
	assert.Equal(t, "sqlite", cfg.CallLog.Backend)
	assert.Equal(t, 5, cfg.Dispatch.MaxModelCalls)
	assert.Equal(t, "describe", cfg.Executor.Mode)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPath_Missing(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("LAMINA_SERVER_ADDR", ":9999")

	path := filepath.Join(t.TempDir(), "lamina.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7000\"\n"), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Provider = "gemini"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.CallLog.Backend = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Dispatch.MaxModelCalls = -1
	assert.Error(t, cfg.Validate())
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.APIKey = "sk-1234567890abcd"
	cfg.Anthropic.APIKey = "short"

	r := cfg.Redacted()
	assert.Equal(t, "sk-1****abcd", r.OpenAI.APIKey)
	assert.Equal(t, "****", r.Anthropic.APIKey)
	assert.Equal(t, "sk-1234567890abcd", cfg.OpenAI.APIKey)
}
