package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds CLI settings. Files may be YAML or JSON.
type Config struct {
	Format   string            `json:"format" yaml:"format"`
	LogLevel string            `json:"log_level" yaml:"log_level"`
	Schema   string            `json:"schema,omitempty" yaml:"schema,omitempty"`
	Rules    string            `json:"rules,omitempty" yaml:"rules,omitempty"`
	Engine   string            `json:"engine" yaml:"engine"`
	Drafts   string            `json:"drafts,omitempty" yaml:"drafts,omitempty"`
	Messages map[string]string `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Format:   "json",
		LogLevel: "warn",
		Engine:   "expr",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source == nil {
		return
	}
	if source.Format != "" {
		c.Format = strings.ToLower(source.Format)
	}
	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
	if source.Schema != "" {
		c.Schema = source.Schema
	}
	if source.Rules != "" {
		c.Rules = source.Rules
	}
	if source.Engine != "" {
		c.Engine = strings.ToLower(source.Engine)
	}
	if source.Drafts != "" {
		c.Drafts = source.Drafts
	}
	if len(source.Messages) > 0 {
		if c.Messages == nil {
			c.Messages = map[string]string{}
		}
		for key, message := range source.Messages {
			c.Messages[key] = message
		}
	}
}

// LoadConfig reads a config file, merges it over the defaults and returns the
// result.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
