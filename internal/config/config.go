// Package config loads the daemon configuration from a YAML file, layering
// environment variables over anything the file leaves unset.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stella-dust/blogreader/pkg/fetch"
	"github.com/stella-dust/blogreader/pkg/llm"
	"github.com/stella-dust/blogreader/pkg/search"
)

const (
	DefaultListen   = "127.0.0.1:8799"
	DefaultLogLevel = "info"
)

type Config struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`

	// SettingsPath overrides where chat settings persist. Empty means the
	// default location under the user home directory.
	SettingsPath string `yaml:"settings_path"`

	LLM    llm.Config    `yaml:"llm"`
	Fetch  fetch.Config  `yaml:"fetch"`
	Search search.Config `yaml:"search"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.Listen) == "" {
		c.Listen = DefaultListen
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LLM = c.LLM.WithDefaults()
	c.Fetch = *fetch.ApplyEnvDefaults(&c.Fetch)
	c.Search = *search.ApplyEnvDefaults(&c.Search)
	return c
}

// Load reads the config file at path. A missing file is not an error; the
// daemon then runs on defaults and environment variables alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(cfg)
	return cfg.WithDefaults(), nil
}

// applyEnv overlays daemon-level environment variables. Provider-specific
// variables are handled by the provider packages themselves.
func applyEnv(cfg *Config) {
	if listen := strings.TrimSpace(os.Getenv("BLOGREADER_LISTEN")); listen != "" {
		cfg.Listen = listen
	}
	if level := strings.TrimSpace(os.Getenv("BLOGREADER_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
	if path := strings.TrimSpace(os.Getenv("BLOGREADER_SETTINGS_PATH")); path != "" {
		cfg.SettingsPath = path
	}
	if providerType := strings.TrimSpace(os.Getenv("LLM_PROVIDER")); providerType != "" {
		cfg.LLM.Type = llm.ProviderType(providerType)
	}
	if apiKey := strings.TrimSpace(os.Getenv("LLM_API_KEY")); apiKey != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = apiKey
	}
	if baseURL := strings.TrimSpace(os.Getenv("LLM_BASE_URL")); baseURL != "" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = baseURL
	}
	if model := strings.TrimSpace(os.Getenv("LLM_MODEL")); model != "" && cfg.LLM.Model == "" {
		cfg.LLM.Model = model
	}
}
