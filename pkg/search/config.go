package search

import (
	"slices"
	"strings"
)

const (
	ProviderSearxNG    = "searxng"
	ProviderDuckDuckGo = "ddg"
	ProviderExa        = "exa"

	DefaultSearchCount = 5
	MaxSearchCount     = 10
	DefaultTimeoutSecs = 10
)

var DefaultFallbackOrder = []string{
	ProviderSearxNG,
	ProviderDuckDuckGo,
	ProviderExa,
}

// DefaultSearxNGInstances are public SearxNG deployments tried in order
// until one answers. Self-hosted setups should configure their own.
var DefaultSearxNGInstances = []string{
	"https://searx.be",
	"https://search.sapti.me",
	"https://searx.tiekoetter.com",
}

// Config controls search provider selection and credentials.
type Config struct {
	Provider  string   `yaml:"provider"`
	Fallbacks []string `yaml:"fallbacks"`

	SearxNG SearxNGConfig `yaml:"searxng"`
	DDG     DDGConfig     `yaml:"ddg"`
	Exa     ExaConfig     `yaml:"exa"`
}

type SearxNGConfig struct {
	Enabled     *bool    `yaml:"enabled"`
	Instances   []string `yaml:"instances"`
	TimeoutSecs int      `yaml:"timeout_seconds"`
	Language    string   `yaml:"language"`
}

type DDGConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
}

type ExaConfig struct {
	Enabled           *bool  `yaml:"enabled"`
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"`
	Type              string `yaml:"type"`
	NumResults        int    `yaml:"num_results"`
	TextMaxCharacters int    `yaml:"text_max_chars"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = ProviderSearxNG
	}
	if len(c.Fallbacks) == 0 {
		c.Fallbacks = slices.Clone(DefaultFallbackOrder)
	}
	c.SearxNG = c.SearxNG.withDefaults()
	c.DDG = c.DDG.withDefaults()
	c.Exa = c.Exa.withDefaults()
	return c
}

func (c SearxNGConfig) withDefaults() SearxNGConfig {
	if len(c.Instances) == 0 {
		c.Instances = slices.Clone(DefaultSearxNGInstances)
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.Language == "" {
		c.Language = "zh-CN"
	}
	return c
}

func (c DDGConfig) withDefaults() DDGConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.duckduckgo.com"
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	return c
}

func (c ExaConfig) withDefaults() ExaConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.exa.ai"
	}
	if c.Type == "" {
		c.Type = "auto"
	}
	if c.NumResults <= 0 {
		c.NumResults = DefaultSearchCount
	}
	if c.TextMaxCharacters <= 0 {
		c.TextMaxCharacters = 500
	}
	return c
}

func isEnabled(flag *bool, fallback bool) bool {
	if flag == nil {
		return fallback
	}
	return *flag
}
