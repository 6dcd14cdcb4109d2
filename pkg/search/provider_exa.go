package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stella-dust/blogreader/pkg/httputil"
)

type exaProvider struct {
	cfg ExaConfig
}

func newExaProvider(cfg *Config) Provider {
	if cfg == nil {
		return nil
	}
	if !isEnabled(cfg.Exa.Enabled, true) {
		return nil
	}
	apiKey := strings.TrimSpace(cfg.Exa.APIKey)
	if apiKey == "" {
		return nil
	}
	return &exaProvider{cfg: cfg.Exa}
}

func (p *exaProvider) Name() string {
	return ProviderExa
}

func (p *exaProvider) Search(ctx context.Context, req Request) (*Response, error) {
	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/search"
	count := req.Count
	if count <= 0 {
		count = p.cfg.NumResults
	}
	payload := map[string]any{
		"query":      req.Query,
		"type":       p.cfg.Type,
		"numResults": count,
		"contents": map[string]any{
			"text": map[string]any{
				"maxCharacters": p.cfg.TextMaxCharacters,
			},
		},
	}

	start := time.Now()
	data, _, err := httputil.PostJSON(ctx, endpoint, map[string]string{
		"x-api-key": p.cfg.APIKey,
		"accept":    "application/json",
	}, payload, DefaultTimeoutSecs)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []struct {
			Title         string `json:"title"`
			URL           string `json:"url"`
			Text          string `json:"text"`
			Summary       string `json:"summary"`
			PublishedDate string `json:"publishedDate"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing exa response: %w", err)
	}

	results := make([]Result, 0, len(resp.Results))
	for _, entry := range resp.Results {
		snippet := entry.Text
		if snippet == "" {
			snippet = entry.Summary
		}
		results = append(results, Result{
			Title:     strings.TrimSpace(entry.Title),
			URL:       entry.URL,
			Snippet:   strings.TrimSpace(snippet),
			Published: entry.PublishedDate,
		})
	}

	return &Response{
		Query:     req.Query,
		Provider:  ProviderExa,
		Count:     len(results),
		TookMs:    time.Since(start).Milliseconds(),
		Results:   results,
		NoResults: len(results) == 0,
	}, nil
}
