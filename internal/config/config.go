// Package config loads Lamina configuration from defaults, an optional YAML
// file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for Lamina.
type Config struct {
	Provider    string          `mapstructure:"provider" yaml:"provider"`
	OpenAI      OpenAIConfig    `mapstructure:"openai" yaml:"openai"`
	Anthropic   AnthropicConfig `mapstructure:"anthropic" yaml:"anthropic"`
	Models      ModelsConfig    `mapstructure:"models" yaml:"models"`
	Temperature float64         `mapstructure:"temperature" yaml:"temperature"`
	CallLog     CallLogConfig   `mapstructure:"call_log" yaml:"call_log"`
	Log         LogConfig       `mapstructure:"log" yaml:"log"`
	Server      ServerConfig    `mapstructure:"server" yaml:"server"`
	Dispatch    DispatchConfig  `mapstructure:"dispatch" yaml:"dispatch"`
	Executor    ExecutorConfig  `mapstructure:"executor" yaml:"executor"`
	Tracing     TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

// ModelsConfig selects the model per component.
type ModelsConfig struct {
	Classifier string `mapstructure:"classifier" yaml:"classifier"`
	Planner    string `mapstructure:"planner" yaml:"planner"`
	Agents     string `mapstructure:"agents" yaml:"agents"`
}

// CallLogConfig selects the call log backend ("none", "memory", "jsonl", "sqlite").
type CallLogConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DispatchConfig holds per-dispatch limits.
type DispatchConfig struct {
	MaxModelCalls int `mapstructure:"max_model_calls" yaml:"max_model_calls"`
	MaxConcurrent int `mapstructure:"max_concurrent" yaml:"max_concurrent"`
}

// ExecutorConfig holds plan execution settings.
type ExecutorConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Exporter string `mapstructure:"exporter" yaml:"exporter"`
}

// Redacted returns a copy with API keys masked.
func (c Config) Redacted() Config {
	c.OpenAI.APIKey = mask(c.OpenAI.APIKey)
	c.Anthropic.APIKey = mask(c.Anthropic.APIKey)
	return c
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch c.CallLog.Backend {
	case "none", "memory", "jsonl", "sqlite":
	default:
		return fmt.Errorf("unknown call log backend %q", c.CallLog.Backend)
	}

	if c.Dispatch.MaxModelCalls < 0 {
		return errors.New("dispatch.max_model_calls must not be negative")
	}

	return nil
}

// APIKey returns the key of the configured provider.
func (c Config) APIKey() string {
	if c.Provider == "anthropic" {
		return c.Anthropic.APIKey
	}
	return c.OpenAI.APIKey
}

// Load reads lamina.yaml from the working directory or the user config
// directory. Precedence (highest to lowest):
//  1. Environment variables (LAMINA_*, OPENAI_API_KEY, ANTHROPIC_API_KEY)
//  2. Config file
//  3. Built-in defaults
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("lamina")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(userConfigDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

// Default returns a Config with default values only.
func Default() *Config {
	cfg, err := unmarshal(viper.New())
	if err != nil {
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("LAMINA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("openai.api_key", "LAMINA_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("anthropic.api_key", "LAMINA_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.OpenAI.APIKey = os.ExpandEnv(cfg.OpenAI.APIKey)
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	if d, ok := providerModels[cfg.Provider]; ok {
		cfg.Models.Classifier = firstNonEmpty(cfg.Models.Classifier, d.Classifier)
		cfg.Models.Planner = firstNonEmpty(cfg.Models.Planner, d.Planner)
		cfg.Models.Agents = firstNonEmpty(cfg.Models.Agents, d.Agents)
	}

	return cfg, nil
}

// providerModels holds the per-component model defaults of each provider.
var providerModels = map[string]ModelsConfig{
	"openai": {
		Classifier: "gpt-4o-mini",
		Planner:    "gpt-4o",
		Agents:     "gpt-4o-mini",
	},
	"anthropic": {
		Classifier: "claude-3-5-haiku-latest",
		Planner:    "claude-3-5-sonnet-latest",
		Agents:     "claude-3-5-haiku-latest",
	},
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "openai")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("anthropic.api_key", "")

	v.SetDefault("models.classifier", "")
	v.SetDefault("models.planner", "")
	v.SetDefault("models.agents", "")
	v.SetDefault("temperature", 0.2)

	v.SetDefault("call_log.backend", "jsonl")
	v.SetDefault("call_log.path", filepath.Join("logs", "llm_calls.jsonl"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("server.addr", ":8000")

	v.SetDefault("dispatch.max_model_calls", 0)
	v.SetDefault("dispatch.max_concurrent", 0)

	v.SetDefault("executor.mode", "run")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
}

// userConfigDir returns the XDG config directory for Lamina.
func userConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lamina")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "lamina")
	}

	return filepath.Join(home, ".config", "lamina")
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
