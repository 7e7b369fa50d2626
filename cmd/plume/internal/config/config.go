// Package config loads the plume CLI configuration.
//
// Configuration is a single YAML file under os.UserConfigDir()/plume/:
//
//	~/Library/Application Support/plume/config.yaml   (macOS)
//	~/.config/plume/config.yaml                       (Linux)
//	%AppData%/plume/config.yaml                       (Windows)
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/plumechat/plume/pkg/chat"
	"github.com/plumechat/plume/pkg/relay"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "plume"

	configFile = "config.yaml"
)

// Config selects the upstream provider and its generation defaults.
type Config struct {
	// Provider is "gemini" or "openai".
	Provider string `yaml:"provider,omitzero"`

	// APIKey may be an env var reference like "$GEMINI_API_KEY".
	APIKey  string `yaml:"api_key,omitzero"`
	BaseURL string `yaml:"base_url,omitzero"`
	Model   string `yaml:"model,omitzero"`

	SystemPrompt    string  `yaml:"system_prompt,omitzero"`
	Temperature     float32 `yaml:"temperature,omitzero"`
	TopP            float32 `yaml:"top_p,omitzero"`
	MaxOutputTokens int     `yaml:"max_output_tokens,omitzero"`
}

// Load reads the configuration from the default location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir, configFile))
}

// LoadFrom reads the configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{Provider: "gemini"}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	return cfg, nil
}

// ResolveAPIKey expands an env var reference in api_key and, when the key
// is still empty, falls back to the provider's conventional env var.
func (c *Config) ResolveAPIKey() string {
	key := expandEnv(c.APIKey)
	if key != "" {
		return key
	}
	switch c.Provider {
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// Options returns the generation options derived from the config. Zero
// values mean provider defaults.
func (c *Config) Options() *chat.GenerationOptions {
	return &chat.GenerationOptions{
		Model:             c.Model,
		Temperature:       c.Temperature,
		TopP:              c.TopP,
		MaxOutputTokens:   c.MaxOutputTokens,
		SystemInstruction: c.SystemPrompt,
	}
}

// BuildProvider constructs the provider binding the config selects.
func (c *Config) BuildProvider(ctx context.Context) (relay.Provider, error) {
	switch c.Provider {
	case "gemini":
		return relay.NewGemini(ctx, relay.GeminiConfig{
			APIKey: c.ResolveAPIKey(),
			Model:  c.Model,
		})
	case "openai":
		return relay.NewOpenAI(relay.OpenAIConfig{
			APIKey:  c.ResolveAPIKey(),
			BaseURL: c.BaseURL,
			Model:   c.Model,
		})
	default:
		return nil, fmt.Errorf("unknown provider: %q", c.Provider)
	}
}

// expandEnv expands environment variables in a string.
// Supports formats: $VAR, ${VAR}, and plain values.
// If the value starts with $ but the env var is not set, returns empty string.
func expandEnv(s string) string {
	if s == "" {
		return s
	}
	if strings.HasPrefix(s, "$") {
		return os.ExpandEnv(s)
	}
	return s
}
