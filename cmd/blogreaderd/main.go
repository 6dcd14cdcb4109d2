// Command blogreaderd serves the blog reading assistant API: page fetching,
// web search, chat settings and the mode-routed chat stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stella-dust/blogreader/internal/api"
	"github.com/stella-dust/blogreader/internal/config"
	"github.com/stella-dust/blogreader/pkg/chat"
	"github.com/stella-dust/blogreader/pkg/fetch"
	"github.com/stella-dust/blogreader/pkg/llm"
	"github.com/stella-dust/blogreader/pkg/search"
	"github.com/stella-dust/blogreader/pkg/settings"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	listen := flag.String("listen", "", "listen address (overrides config)")
	flag.Parse()

	if err := run(*configPath, *listen); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, listenOverride string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenOverride != "" {
		cfg.Listen = listenOverride
	}

	log := newLogger(cfg.LogLevel)

	provider, err := llm.New(cfg.LLM, log)
	if err != nil {
		// The daemon still serves fetch, search and settings without a
		// working model; chat requests report the problem per run.
		log.Warn().Err(err).Msg("LLM provider unavailable")
		provider = nil
	}

	fetcher := fetch.NewClient(&cfg.Fetch, log)
	searcher := search.NewClient(&cfg.Search, fetcher, answerFunc(provider), log)
	orchestrator := chat.NewOrchestrator(provider, fetcher, searcher, log)
	store := settings.NewStore(cfg.SettingsPath)

	server := api.NewServer(orchestrator, provider, fetcher, searcher, store, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("listen", cfg.Listen).
		Str("llm", string(cfg.LLM.Type)).
		Str("fetch", cfg.Fetch.Provider).
		Str("search", cfg.Search.Provider).
		Msg("Starting blogreaderd")

	if err := server.Start(ctx, cfg.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("Shut down")
	return nil
}

// answerFunc adapts the LLM provider to the search package's synthesis
// hook. A nil provider makes the search pipeline fall back to extractive
// summaries.
func answerFunc(provider llm.Provider) search.AnswerFunc {
	if provider == nil {
		return nil
	}
	return func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		return provider.Generate(ctx, llm.GenerateParams{
			SystemPrompt: systemPrompt,
			Messages:     []llm.Message{{Role: llm.RoleUser, Content: userPrompt}},
		})
	}
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
}
