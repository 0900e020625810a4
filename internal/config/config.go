// Package config loads tablenerd configuration from a YAML file with
// environment-variable overrides for provider credentials.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all tablenerd configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Agent   AgentConfig   `yaml:"agent"`
	Logging LoggingConfig `yaml:"logging"`
	Session SessionConfig `yaml:"session"`
}

// LLMConfig configures the planning model client.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // anthropic, openai, gemini
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Timeout     string  `yaml:"timeout"`
}

// AgentConfig configures the orchestration loop.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

// LoggingConfig configures the categorized file logging service.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// SessionConfig configures the transcript store.
type SessionConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Temperature: 0.1,
			MaxTokens:   8192,
			Timeout:     "5m",
		},
		Agent: AgentConfig{
			MaxIterations: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Session: SessionConfig{
			DBPath: ".tablenerd/session.db",
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides maps environment variables onto the config.
// Provider precedence: ANTHROPIC > OPENAI > GEMINI; a later key in the
// chain wins only when set.
func (c *Config) applyEnvOverrides() {
	type providerEnv struct {
		envVar   string
		provider string
	}
	// Checked lowest-priority first so higher entries overwrite.
	chain := []providerEnv{
		{"GEMINI_API_KEY", "gemini"},
		{"OPENAI_API_KEY", "openai"},
		{"ANTHROPIC_API_KEY", "anthropic"},
	}
	for _, p := range chain {
		if key := os.Getenv(p.envVar); key != "" {
			c.LLM.APIKey = key
			if c.LLM.Provider == "" || providerFromEnv(c.LLM.Provider) {
				c.LLM.Provider = p.provider
			}
		}
	}

	if model := os.Getenv("TABLENERD_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if raw := os.Getenv("TABLENERD_MAX_ITERATIONS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			c.Agent.MaxIterations = n
		}
	}
	if os.Getenv("TABLENERD_DEBUG") == "true" {
		c.Logging.DebugMode = true
	}
}

// providerFromEnv reports whether the current provider value is one the
// env chain is allowed to overwrite (an explicit custom value wins).
func providerFromEnv(provider string) bool {
	switch provider {
	case "anthropic", "openai", "gemini":
		return true
	}
	return false
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations)
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("invalid llm.timeout %q: %w", c.LLM.Timeout, err)
		}
	}
	switch c.LLM.Provider {
	case "", "anthropic", "openai", "gemini":
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	return nil
}

// LLMTimeout returns the parsed client timeout, defaulting to 5 minutes.
func (c *Config) LLMTimeout() time.Duration {
	if c.LLM.Timeout == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}
