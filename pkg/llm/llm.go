// Package llm provides a uniform client for the chat model backends the
// assistant can talk to. DeepSeek, OpenAI, Ollama and LM Studio all speak
// the OpenAI chat completions protocol; Claude goes through the Anthropic
// SDK.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type ProviderType string

const (
	ProviderDeepSeek ProviderType = "deepseek"
	ProviderOpenAI   ProviderType = "openai"
	ProviderClaude   ProviderType = "claude"
	ProviderOllama   ProviderType = "ollama"
	ProviderLMStudio ProviderType = "lmstudio"
)

// DefaultMaxTokens bounds completion length when callers do not set one.
const DefaultMaxTokens = 4096

// Config selects a backend and model.
type Config struct {
	Type    ProviderType `json:"type" yaml:"type"`
	APIKey  string       `json:"apiKey,omitempty" yaml:"api_key"`
	BaseURL string       `json:"baseUrl,omitempty" yaml:"base_url"`
	Model   string       `json:"model,omitempty" yaml:"model"`
}

type providerDefaults struct {
	baseURL string
	model   string
	apiKey  string
}

// Local backends ignore the API key but the OpenAI client requires one.
var defaultsByType = map[ProviderType]providerDefaults{
	ProviderDeepSeek: {baseURL: "https://api.deepseek.com", model: "deepseek-chat"},
	ProviderOpenAI:   {baseURL: "https://api.openai.com/v1", model: "gpt-3.5-turbo"},
	ProviderClaude:   {model: "claude-3-sonnet-20240229"},
	ProviderOllama:   {baseURL: "http://localhost:11434/v1", model: "llama2", apiKey: "ollama"},
	ProviderLMStudio: {baseURL: "http://localhost:1234/v1", model: "local-model", apiKey: "lm-studio"},
}

func (c Config) WithDefaults() Config {
	if c.Type == "" {
		c.Type = ProviderDeepSeek
	}
	defaults, ok := defaultsByType[c.Type]
	if !ok {
		return c
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = defaults.baseURL
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = defaults.model
	}
	if strings.TrimSpace(c.APIKey) == "" {
		c.APIKey = defaults.apiKey
	}
	return c
}

// IsLocal reports whether the backend runs on the user's machine and needs
// no real credentials.
func (c Config) IsLocal() bool {
	return c.Type == ProviderOllama || c.Type == ProviderLMStudio
}

// Validate checks that the config names a known backend and carries
// credentials when the backend needs them.
func (c Config) Validate() error {
	if _, ok := defaultsByType[c.Type]; !ok {
		return fmt.Errorf("unknown provider type %q", c.Type)
	}
	if !c.IsLocal() && strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("provider %s requires an api key", c.Type)
	}
	return nil
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type StreamEventType string

const (
	StreamEventDelta    StreamEventType = "delta"
	StreamEventComplete StreamEventType = "complete"
	StreamEventError    StreamEventType = "error"
)

// StreamEvent is one item on a generation stream. Exactly one terminal
// event (complete or error) closes every stream.
type StreamEvent struct {
	Type         StreamEventType
	Delta        string
	FinishReason string
	Error        error
}

// GenerateParams describes a single generation request.
type GenerateParams struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
}

// Provider generates chat completions for one backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, params GenerateParams) (string, error)
	GenerateStream(ctx context.Context, params GenerateParams) (<-chan StreamEvent, error)
}

// New builds a provider for the configured backend.
func New(cfg Config, log zerolog.Logger) (Provider, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Type == ProviderClaude {
		return newAnthropicProvider(cfg, log)
	}
	return newOpenAICompatProvider(cfg, log)
}
