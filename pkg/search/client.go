package search

import (
	"context"

	"github.com/rs/zerolog"
)

// Client binds a search config, page fetcher and answer synthesizer.
type Client struct {
	cfg     *Config
	fetcher PageFetcher
	answer  AnswerFunc
	log     zerolog.Logger
}

func NewClient(cfg *Config, fetcher PageFetcher, answer AnswerFunc, log zerolog.Logger) *Client {
	return &Client{
		cfg:     cfg.WithDefaults(),
		fetcher: fetcher,
		answer:  answer,
		log:     log.With().Str("component", "search").Logger(),
	}
}

func (c *Client) Search(ctx context.Context, req Request) (*Response, error) {
	resp, err := Search(ctx, req, c.cfg)
	if err != nil {
		c.log.Warn().Err(err).Str("query", req.Query).Msg("Search failed")
		return nil, err
	}
	c.log.Debug().
		Str("query", req.Query).
		Str("provider", resp.Provider).
		Int("results", len(resp.Results)).
		Int64("took_ms", resp.TookMs).
		Msg("Search finished")
	return resp, nil
}
