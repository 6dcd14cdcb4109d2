package fetch

import (
	"context"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchOptions tunes a batch fetch. Zero values fall back to defaults.
type BatchOptions struct {
	TimeoutSecs   int
	MaxConcurrent int
	MaxChars      int
}

// BatchSummary aggregates the outcome of a batch fetch.
type BatchSummary struct {
	Total       int   `json:"total"`
	Successful  int   `json:"successful"`
	Failed      int   `json:"failed"`
	TotalTimeMs int64 `json:"totalTime"`
}

// BatchResult carries one Result per requested URL, in input order, plus a
// summary. Invalid URLs and fetch failures produce failure records rather
// than errors; a batch never fails as a whole.
type BatchResult struct {
	Results []Result     `json:"results"`
	Summary BatchSummary `json:"summary"`
}

// Batch fetches up to MaxBatchURLs pages concurrently. Concurrency is
// bounded by opts.MaxConcurrent and each URL gets its own timeout, so one
// slow page cannot stall the rest.
func Batch(ctx context.Context, urls []string, opts BatchOptions, cfg *Config) *BatchResult {
	cfg = cfg.WithDefaults()
	if opts.TimeoutSecs <= 0 {
		opts.TimeoutSecs = cfg.Direct.TimeoutSecs
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}

	if len(urls) > MaxBatchURLs {
		urls = urls[:MaxBatchURLs]
	}

	start := time.Now()
	results := make([]Result, len(urls))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.MaxConcurrent)
	for i, rawURL := range urls {
		group.Go(func() error {
			results[i] = fetchOne(groupCtx, rawURL, opts, cfg)
			return nil
		})
	}
	// Workers never return errors; failures land in their result slot.
	_ = group.Wait()

	summary := BatchSummary{
		Total:       len(results),
		TotalTimeMs: time.Since(start).Milliseconds(),
	}
	for _, result := range results {
		if result.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	return &BatchResult{Results: results, Summary: summary}
}

func fetchOne(ctx context.Context, rawURL string, opts BatchOptions, cfg *Config) Result {
	if !isValidBatchURL(rawURL) {
		return Result{
			URL:     rawURL,
			Title:   "Failed to fetch",
			Error:   "invalid url",
			Success: false,
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(opts.TimeoutSecs)*time.Second)
	defer cancel()

	result, err := Fetch(fetchCtx, Request{
		URL:         rawURL,
		TimeoutSecs: opts.TimeoutSecs,
		MaxChars:    opts.MaxChars,
	}, cfg)
	if err != nil {
		return Result{
			URL:     rawURL,
			Title:   "Failed to fetch",
			Error:   err.Error(),
			Success: false,
		}
	}
	return *result
}

func isValidBatchURL(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
