package fetch

import (
	"slices"
	"strings"
)

const (
	ProviderDirect = "direct"
	ProviderExa    = "exa"

	// DefaultTimeoutSecs is the per-URL fetch timeout.
	DefaultTimeoutSecs = 10
	// DefaultMaxChars bounds extracted article text length.
	DefaultMaxChars = 50_000
	// MaxBatchURLs caps how many URLs a single batch may carry. Extra URLs
	// are dropped, not rejected.
	MaxBatchURLs = 5
	// DefaultMaxConcurrent bounds in-flight fetches within one batch.
	DefaultMaxConcurrent = 3
)

var DefaultFallbackOrder = []string{
	ProviderDirect,
	ProviderExa,
}

// Config controls fetch provider selection and credentials.
type Config struct {
	Provider  string   `yaml:"provider"`
	Fallbacks []string `yaml:"fallbacks"`

	Direct DirectConfig `yaml:"direct"`
	Exa    ExaConfig    `yaml:"exa"`
}

type DirectConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
	UserAgent   string `yaml:"user_agent"`
	MaxChars    int    `yaml:"max_chars"`
	// AllowPrivateHosts disables the loopback/private-range guard. Meant
	// for self-hosted deployments that read from an internal network.
	AllowPrivateHosts bool `yaml:"allow_private_hosts"`
}

type ExaConfig struct {
	Enabled           *bool  `yaml:"enabled"`
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"`
	TextMaxCharacters int    `yaml:"text_max_chars"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = ProviderDirect
	}
	if len(c.Fallbacks) == 0 {
		c.Fallbacks = slices.Clone(DefaultFallbackOrder)
	}
	c.Direct = c.Direct.withDefaults()
	c.Exa = c.Exa.withDefaults()
	return c
}

func (c DirectConfig) withDefaults() DirectConfig {
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; BlogReader/1.0; +https://github.com/stella-dust/blogreader)"
	}
	if c.MaxChars <= 0 {
		c.MaxChars = DefaultMaxChars
	}
	return c
}

func (c ExaConfig) withDefaults() ExaConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.exa.ai"
	}
	if c.TextMaxCharacters <= 0 {
		c.TextMaxCharacters = 5_000
	}
	return c
}

func isEnabled(flag *bool, fallback bool) bool {
	if flag == nil {
		return fallback
	}
	return *flag
}
