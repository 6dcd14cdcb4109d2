package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stella-dust/blogreader/pkg/analyzer"
	"github.com/stella-dust/blogreader/pkg/chaterrors"
	"github.com/stella-dust/blogreader/pkg/fetch"
	"github.com/stella-dust/blogreader/pkg/llm"
	"github.com/stella-dust/blogreader/pkg/search"
	"github.com/stella-dust/blogreader/pkg/settings"
)

// Fetcher reads pages for url_fetch runs.
type Fetcher interface {
	BatchFetch(ctx context.Context, urls []string, opts fetch.BatchOptions) *fetch.BatchResult
}

// Searcher answers web_search runs.
type Searcher interface {
	Comprehensive(ctx context.Context, req search.ComprehensiveRequest) (*search.ComprehensiveResult, error)
}

// Orchestrator turns analyzed inputs into streamed answers.
type Orchestrator struct {
	provider llm.Provider
	fetcher  Fetcher
	searcher Searcher
	log      zerolog.Logger

	// chunkDelay paces simulated streaming of pre-synthesized answers.
	chunkDelay time.Duration
	// stageInterval paces web_search staging updates.
	stageInterval time.Duration
	// tokenModel selects the tokenizer used for context budgeting.
	tokenModel string
	// contextBudgetTokens bounds the article context for rag_only runs.
	contextBudgetTokens int
}

type OrchestratorOption func(*Orchestrator)

// WithChunkDelay overrides the simulated streaming pace. Zero disables the
// delay entirely.
func WithChunkDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.chunkDelay = d
	}
}

// WithStageInterval overrides the web_search staging update interval.
func WithStageInterval(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.stageInterval = d
	}
}

// WithTokenBudget overrides the tokenizer model and budget used to trim
// article context.
func WithTokenBudget(model string, tokens int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tokenModel = model
		o.contextBudgetTokens = tokens
	}
}

func NewOrchestrator(provider llm.Provider, fetcher Fetcher, searcher Searcher, log zerolog.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		provider:            provider,
		fetcher:             fetcher,
		searcher:            searcher,
		log:                 log.With().Str("component", "chat").Logger(),
		chunkDelay:          20 * time.Millisecond,
		stageInterval:       800 * time.Millisecond,
		tokenModel:          "gpt-3.5-turbo",
		contextBudgetTokens: 3000,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessRequest is one user message plus the context it runs against.
type ProcessRequest struct {
	Input    string
	Settings settings.ChatSettings
	History  []llm.Message

	ArticleTitle   string
	ArticleURL     string
	ArticleContent string
}

// PredictMode analyzes input without side effects, for live UI hinting.
func PredictMode(input string, st settings.ChatSettings) analyzer.InputAnalysis {
	return analyzer.Analyze(input, st)
}

// Process starts one orchestration run. The returned Run is already
// executing; callers observe it through the callbacks and may Cancel it at
// any point before completion.
func (o *Orchestrator) Process(ctx context.Context, req ProcessRequest, cb Callbacks) (*Run, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, fmt.Errorf("empty input")
	}
	if o.provider == nil {
		return nil, fmt.Errorf("no llm provider configured")
	}

	analysis := analyzer.Analyze(req.Input, req.Settings)
	run := newRun(analysis, cb, o.log)

	runCtx, cancel := context.WithCancel(ctx)
	run.cancel = cancel

	o.log.Debug().
		Str("run_id", run.ID()).
		Str("mode", string(analysis.Mode.Type)).
		Float64("confidence", analysis.Confidence).
		Str("reason", analysis.Mode.Reason).
		Msg("Starting run")

	go o.execute(runCtx, run, req)
	return run, nil
}

func (o *Orchestrator) execute(ctx context.Context, run *Run, req ProcessRequest) {
	defer run.cancel()

	run.start()

	var err error
	switch run.analysis.Mode.Type {
	case analyzer.ModeURLFetch:
		err = o.runURLFetch(ctx, run, req)
	case analyzer.ModeWebSearch:
		err = o.runWebSearch(ctx, run, req)
	default:
		err = o.runRAG(ctx, run, req)
	}

	if err != nil {
		if chaterrors.IsCanceled(err) || ctx.Err() != nil {
			run.finishAborted()
			return
		}
		run.finishError(o.diagnose(run.analysis.Mode.Type, err))
		return
	}
	run.finishComplete()
}

// diagError carries a pre-built diagnostic out of a pipeline.
type diagError struct {
	diag *Diagnostic
}

func (e *diagError) Error() string {
	return e.diag.Message
}

func (o *Orchestrator) diagnose(mode analyzer.Mode, err error) *Diagnostic {
	if de, ok := err.(*diagError); ok {
		return de.diag
	}
	code := chaterrors.Classify(err)
	return &Diagnostic{
		Code:    code,
		Message: diagnosticMessage(mode, code, err),
		Err:     err,
	}
}
