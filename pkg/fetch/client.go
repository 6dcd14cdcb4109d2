package fetch

import (
	"context"

	"github.com/rs/zerolog"
)

// Client binds a fetch config and logger so callers do not have to thread
// them through every call.
type Client struct {
	cfg *Config
	log zerolog.Logger
}

func NewClient(cfg *Config, log zerolog.Logger) *Client {
	return &Client{
		cfg: cfg.WithDefaults(),
		log: log.With().Str("component", "fetch").Logger(),
	}
}

func (c *Client) Fetch(ctx context.Context, req Request) (*Result, error) {
	result, err := Fetch(ctx, req, c.cfg)
	if err != nil {
		c.log.Warn().Err(err).Str("url", req.URL).Msg("Fetch failed")
		return nil, err
	}
	c.log.Debug().
		Str("url", req.URL).
		Str("provider", result.Provider).
		Int64("took_ms", result.FetchTimeMs).
		Msg("Fetched page")
	return result, nil
}

func (c *Client) BatchFetch(ctx context.Context, urls []string, opts BatchOptions) *BatchResult {
	batch := Batch(ctx, urls, opts, c.cfg)
	c.log.Debug().
		Int("total", batch.Summary.Total).
		Int("successful", batch.Summary.Successful).
		Int("failed", batch.Summary.Failed).
		Int64("took_ms", batch.Summary.TotalTimeMs).
		Msg("Batch fetch finished")
	return batch
}
