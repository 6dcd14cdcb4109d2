package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stella-dust/blogreader/pkg/httputil"
)

type searxngProvider struct {
	cfg SearxNGConfig
}

func newSearxNGProvider(cfg *Config) Provider {
	if cfg == nil {
		return nil
	}
	if !isEnabled(cfg.SearxNG.Enabled, true) {
		return nil
	}
	if len(cfg.SearxNG.Instances) == 0 {
		return nil
	}
	return &searxngProvider{cfg: cfg.SearxNG}
}

func (p *searxngProvider) Name() string {
	return ProviderSearxNG
}

func (p *searxngProvider) Search(ctx context.Context, req Request) (*Response, error) {
	language := req.Language
	if language == "" {
		language = p.cfg.Language
	}
	values := url.Values{
		"q":          {req.Query},
		"format":     {"json"},
		"categories": {"general"},
		"language":   {language},
		"safesearch": {"0"},
	}

	start := time.Now()
	var lastErr error
	for _, instance := range p.cfg.Instances {
		endpoint := strings.TrimRight(instance, "/") + "/search"
		data, _, err := httputil.PostForm(ctx, endpoint, map[string]string{
			"Accept": "application/json",
		}, values, p.cfg.TimeoutSecs)
		if err != nil {
			lastErr = err
			continue
		}

		resp, err := p.parseResponse(req, data, time.Since(start).Milliseconds())
		if err != nil {
			lastErr = err
			continue
		}
		return resp, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all searxng instances failed: %w", lastErr)
	}
	return nil, fmt.Errorf("no searxng instances configured")
}

func (p *searxngProvider) parseResponse(req Request, data []byte, tookMs int64) (*Response, error) {
	var payload struct {
		Results []struct {
			Title         string `json:"title"`
			URL           string `json:"url"`
			Content       string `json:"content"`
			PublishedDate string `json:"publishedDate"`
			Engine        string `json:"engine"`
			Score         any    `json:"score"`
		} `json:"results"`
		Answers []any `json:"answers"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parsing searxng response: %w", err)
	}

	count := req.Count
	if count <= 0 {
		count = DefaultSearchCount
	}
	results := make([]Result, 0, count)
	for _, entry := range payload.Results {
		if len(results) >= count {
			break
		}
		if strings.TrimSpace(entry.URL) == "" {
			continue
		}
		results = append(results, Result{
			Title:     strings.TrimSpace(entry.Title),
			URL:       entry.URL,
			Snippet:   strings.TrimSpace(entry.Content),
			Published: entry.PublishedDate,
			Engine:    entry.Engine,
			Score:     toFloat(entry.Score),
		})
	}

	return &Response{
		Query:     req.Query,
		Provider:  ProviderSearxNG,
		Count:     len(results),
		TookMs:    tookMs,
		Results:   results,
		NoResults: len(results) == 0,
	}, nil
}

// Some instances report score as a number, others as a string.
func toFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
