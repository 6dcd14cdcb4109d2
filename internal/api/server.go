// Package api exposes the assistant over HTTP: content fetching, web
// search, chat settings, LLM connectivity checks, and the chat stream
// itself as server-sent events.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/stella-dust/blogreader/pkg/analyzer"
	"github.com/stella-dust/blogreader/pkg/chat"
	"github.com/stella-dust/blogreader/pkg/fetch"
	"github.com/stella-dust/blogreader/pkg/llm"
	"github.com/stella-dust/blogreader/pkg/search"
	"github.com/stella-dust/blogreader/pkg/settings"
)

// Fetcher reads single pages and URL batches.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) (*fetch.Result, error)
	BatchFetch(ctx context.Context, urls []string, opts fetch.BatchOptions) *fetch.BatchResult
}

// Searcher runs comprehensive web searches.
type Searcher interface {
	Comprehensive(ctx context.Context, req search.ComprehensiveRequest) (*search.ComprehensiveResult, error)
}

// Processor starts chat runs.
type Processor interface {
	Process(ctx context.Context, req chat.ProcessRequest, cb chat.Callbacks) (*chat.Run, error)
}

// Generator answers one-shot prompts (translate, interpret).
type Generator interface {
	Generate(ctx context.Context, params llm.GenerateParams) (string, error)
}

type Server struct {
	processor Processor
	generator Generator
	fetcher   Fetcher
	searcher  Searcher
	settings  *settings.Store
	log       zerolog.Logger
}

func NewServer(processor Processor, generator Generator, fetcher Fetcher, searcher Searcher, store *settings.Store, log zerolog.Logger) *Server {
	return &Server{
		processor: processor,
		generator: generator,
		fetcher:   fetcher,
		searcher:  searcher,
		settings:  store,
		log:       log.With().Str("component", "api").Logger(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Post("/fetch-content", s.fetchContent)
		r.Post("/batch-fetch-content", s.batchFetchContent)
		r.Post("/process", s.process)
		r.Post("/comprehensive-search", s.comprehensiveSearch)
		r.Post("/test-llm-config", s.testLLMConfig)
		r.Post("/predict-mode", s.predictMode)
		r.Get("/chat-settings", s.getChatSettings)
		r.Put("/chat-settings", s.putChatSettings)
		r.Post("/chat/stream", s.chatStream)
		r.Get("/chat/ws", s.chatWS)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("Request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) testLLMConfig(w http.ResponseWriter, r *http.Request) {
	var cfg llm.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, llm.TestConfig(r.Context(), cfg, s.log))
}

type predictModeRequest struct {
	Input    string                 `json:"input"`
	Settings *settings.ChatSettings `json:"settings,omitempty"`
}

type predictModeResponse struct {
	Mode        string   `json:"mode"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
	URLs        []string `json:"urls,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Reason      string   `json:"reason"`
}

func (s *Server) predictMode(w http.ResponseWriter, r *http.Request) {
	var req predictModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st := s.currentSettings()
	if req.Settings != nil {
		st = req.Settings.WithDefaults()
	}
	analysis := chat.PredictMode(req.Input, st)
	writeJSON(w, http.StatusOK, predictModeResponse{
		Mode:        string(analysis.Mode.Type),
		Description: analyzer.ModeDescription(analysis.Mode.Type),
		Confidence:  analysis.Confidence,
		URLs:        analysis.URLs,
		Keywords:    analysis.SearchKeywords,
		Reason:      analysis.Mode.Reason,
	})
}

func (s *Server) getChatSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentSettings())
}

func (s *Server) putChatSettings(w http.ResponseWriter, r *http.Request) {
	var next settings.ChatSettings
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.settings == nil {
		writeJSON(w, http.StatusOK, next.WithDefaults())
		return
	}
	saved, err := s.settings.Update(func(settings.ChatSettings) settings.ChatSettings {
		return next
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) currentSettings() settings.ChatSettings {
	if s.settings == nil {
		return settings.Default()
	}
	return s.settings.Load()
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	s.log.Info().Str("addr", addr).Msg("HTTP server listening")
	return server.ListenAndServe()
}
