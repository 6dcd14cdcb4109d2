package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stella-dust/blogreader/pkg/httputil"
)

const validateTimeoutSecs = 10

// TestResult reports whether a config can reach its backend.
type TestResult struct {
	OK      bool     `json:"ok"`
	Message string   `json:"message"`
	Models  []string `json:"models,omitempty"`
}

// TestConfig verifies connectivity for a provider config. Local backends
// are probed through their model listing endpoints so no generation
// happens; hosted backends answer a one-word prompt.
func TestConfig(ctx context.Context, cfg Config, log zerolog.Logger) *TestResult {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return &TestResult{Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, validateTimeoutSecs*time.Second)
	defer cancel()

	switch cfg.Type {
	case ProviderOllama:
		return probeOllama(ctx, cfg)
	case ProviderLMStudio:
		return probeLMStudio(ctx, cfg)
	default:
		return probeHosted(ctx, cfg, log)
	}
}

// probeOllama lists models via the native API, which lives one level above
// the OpenAI-compatible /v1 prefix.
func probeOllama(ctx context.Context, cfg Config) *TestResult {
	base := strings.TrimSuffix(strings.TrimRight(cfg.BaseURL, "/"), "/v1")
	data, _, err := httputil.GetJSON(ctx, base+"/api/tags", nil, validateTimeoutSecs)
	if err != nil {
		return &TestResult{Message: fmt.Sprintf("ollama unreachable: %v", err)}
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return &TestResult{Message: fmt.Sprintf("unexpected ollama response: %v", err)}
	}

	models := make([]string, 0, len(payload.Models))
	found := false
	for _, model := range payload.Models {
		models = append(models, model.Name)
		if model.Name == cfg.Model || strings.HasPrefix(model.Name, cfg.Model+":") {
			found = true
		}
	}
	if !found {
		return &TestResult{
			Models:  models,
			Message: fmt.Sprintf("model %q is not pulled", cfg.Model),
		}
	}
	return &TestResult{OK: true, Models: models, Message: "connected"}
}

func probeLMStudio(ctx context.Context, cfg Config) *TestResult {
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/models"
	data, _, err := httputil.GetJSON(ctx, endpoint, nil, validateTimeoutSecs)
	if err != nil {
		return &TestResult{Message: fmt.Sprintf("lm studio unreachable: %v", err)}
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return &TestResult{Message: fmt.Sprintf("unexpected lm studio response: %v", err)}
	}

	models := make([]string, 0, len(payload.Data))
	for _, model := range payload.Data {
		models = append(models, model.ID)
	}
	if len(models) == 0 {
		return &TestResult{Message: "lm studio has no model loaded"}
	}
	return &TestResult{OK: true, Models: models, Message: "connected"}
}

func probeHosted(ctx context.Context, cfg Config, log zerolog.Logger) *TestResult {
	provider, err := New(cfg, log)
	if err != nil {
		return &TestResult{Message: err.Error()}
	}
	_, err = provider.Generate(ctx, GenerateParams{
		Messages:  []Message{{Role: RoleUser, Content: "hello"}},
		MaxTokens: 10,
	})
	if err != nil {
		return &TestResult{Message: fmt.Sprintf("generation failed: %v", err)}
	}
	return &TestResult{OK: true, Message: "connected"}
}
