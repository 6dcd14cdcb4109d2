package fetch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/stella-dust/blogreader/pkg/registry"
)

// Fetch executes a fetch using the configured provider chain. Providers are
// tried in order; the first success wins and the last failure is reported
// when the whole chain fails.
func Fetch(ctx context.Context, req Request, cfg *Config) (*Result, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("missing url")
	}
	cfg = cfg.WithDefaults()

	providers := registry.New[Provider]()
	registerProviders(providers, cfg)
	order := buildOrder(cfg)

	var lastErr error
	for _, name := range order {
		provider, ok := providers.Get(name)
		if !ok {
			continue
		}
		result, err := provider.Fetch(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if result == nil {
			lastErr = fmt.Errorf("provider %s returned empty result", name)
			continue
		}
		if result.Provider == "" {
			result.Provider = name
		}
		return result, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("no fetch providers available")
}

func buildOrder(cfg *Config) []string {
	order := make([]string, 0, len(cfg.Fallbacks)+1)
	provider := strings.TrimSpace(cfg.Provider)
	if provider != "" && provider != "auto" {
		order = append(order, provider)
	}
	order = append(order, cfg.Fallbacks...)
	return dedupeOrder(order)
}

func dedupeOrder(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	if len(result) == 0 {
		return slices.Clone(DefaultFallbackOrder)
	}
	return result
}

func registerProviders(providers *registry.Registry[Provider], cfg *Config) {
	if providers == nil || cfg == nil {
		return
	}
	if p := newDirectProvider(cfg); p != nil {
		providers.Register(p)
	}
	if p := newExaProvider(cfg); p != nil {
		providers.Register(p)
	}
}
