package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/stella-dust/blogreader/pkg/httputil"
)

type ddgProvider struct {
	cfg DDGConfig
}

func newDDGProvider(cfg *Config) Provider {
	if cfg == nil {
		return nil
	}
	if !isEnabled(cfg.DDG.Enabled, true) {
		return nil
	}
	return &ddgProvider{cfg: cfg.DDG}
}

func (p *ddgProvider) Name() string {
	return ProviderDuckDuckGo
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

// Search queries the DuckDuckGo instant answer API. It returns abstracts,
// definitions and related topics rather than full web results, so it works
// best as a fallback when SearxNG is unreachable.
func (p *ddgProvider) Search(ctx context.Context, req Request) (*Response, error) {
	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1",
		strings.TrimRight(p.cfg.BaseURL, "/"), url.QueryEscape(req.Query))

	start := time.Now()
	data, _, err := httputil.GetJSON(ctx, endpoint, nil, p.cfg.TimeoutSecs)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Abstract      string     `json:"Abstract"`
		AbstractText  string     `json:"AbstractText"`
		AbstractURL   string     `json:"AbstractURL"`
		Answer        string     `json:"Answer"`
		Definition    string     `json:"Definition"`
		Heading       string     `json:"Heading"`
		RelatedTopics []ddgTopic `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parsing duckduckgo response: %w", err)
	}

	count := req.Count
	if count <= 0 {
		count = DefaultSearchCount
	}

	var results []Result
	var appendTopic func(topic ddgTopic)
	appendTopic = func(topic ddgTopic) {
		if len(results) >= count {
			return
		}
		if topic.Text != "" {
			title, snippet := splitTopicText(topic.Text)
			results = append(results, Result{
				Title:   title,
				URL:     topic.FirstURL,
				Snippet: snippet,
			})
		}
		for _, child := range topic.Topics {
			appendTopic(child)
		}
	}
	for _, topic := range payload.RelatedTopics {
		appendTopic(topic)
	}

	// The abstract is often the only meaningful content; surface it as a
	// result so downstream consumers see it alongside topics.
	if len(results) == 0 && payload.AbstractText != "" {
		results = append(results, Result{
			Title:   payload.Heading,
			URL:     payload.AbstractURL,
			Snippet: payload.AbstractText,
		})
	}

	resp := &Response{
		Query:      req.Query,
		Provider:   ProviderDuckDuckGo,
		Count:      len(results),
		TookMs:     time.Since(start).Milliseconds(),
		Results:    results,
		Answer:     payload.Answer,
		Summary:    payload.AbstractText,
		Definition: payload.Definition,
	}
	if resp.Answer == "" && resp.Summary == "" && resp.Definition == "" && len(results) == 0 {
		resp.NoResults = true
	}
	return resp, nil
}

func splitTopicText(text string) (title string, snippet string) {
	parts := strings.SplitN(text, " - ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(text), ""
}
