package fetch

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

func (p *exaProvider) Fetch(ctx context.Context, req Request) (*Result, error) {
	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/contents"
	maxChars := req.MaxChars
	if maxChars <= 0 {
		maxChars = p.cfg.TextMaxCharacters
	}
	payload := map[string]any{
		"urls": []string{req.URL},
		"text": map[string]any{
			"maxCharacters": maxChars,
		},
	}

	timeout := DefaultTimeoutSecs
	if req.TimeoutSecs > 0 {
		timeout = req.TimeoutSecs
	}

	start := time.Now()
	data, _, err := httputil.PostJSON(ctx, endpoint, map[string]string{
		"x-api-key": p.cfg.APIKey,
		"accept":    "application/json",
	}, payload, timeout)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []struct {
			URL         string   `json:"url"`
			Title       string   `json:"title"`
			Author      string   `json:"author"`
			Text        string   `json:"text"`
			Summary     string   `json:"summary"`
			Highlights  []string `json:"highlights"`
			PublishedAt string   `json:"publishedDate"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("exa contents returned no results")
	}
	entry := resp.Results[0]
	text := entry.Text
	if text == "" && len(entry.Highlights) > 0 {
		text = entry.Highlights[0]
	}
	if text == "" {
		text = entry.Summary
	}

	content, truncated := truncateContent(text, maxChars)
	return &Result{
		URL:         req.URL,
		Title:       entry.Title,
		Content:     content,
		Author:      entry.Author,
		PublishDate: entry.PublishedAt,
		Description: entry.Summary,
		Success:     true,
		FetchTimeMs: time.Since(start).Milliseconds(),
		Provider:    ProviderExa,
		Truncated:   truncated,
	}, nil
}
