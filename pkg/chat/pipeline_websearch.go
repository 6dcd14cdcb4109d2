package chat

import (
	"context"
	"time"

	"github.com/stella-dust/blogreader/pkg/chaterrors"
	"github.com/stella-dust/blogreader/pkg/search"
)

// runWebSearch runs a comprehensive search and streams the synthesized
// answer. While the search collaborator works, staging updates keep the
// user informed at a fixed cadence.
func (o *Orchestrator) runWebSearch(ctx context.Context, run *Run, req ProcessRequest) error {
	if o.searcher == nil {
		return &diagError{diag: &Diagnostic{
			Code:    chaterrors.CodeUnknown,
			Message: "❌ 联网搜索功能未配置，请在设置中关闭联网搜索或配置搜索服务。",
		}}
	}

	if req.Settings.ShowModeIndicator {
		if !run.emit(stagingText(run.Mode())) {
			return context.Canceled
		}
	}

	// Callbacks must stay sequential, so the staging goroutine is fully
	// joined before any answer text is emitted.
	stageDone := make(chan struct{})
	stageExited := make(chan struct{})
	go func() {
		defer close(stageExited)
		o.emitStages(ctx, run, stageDone)
	}()

	result, err := o.searcher.Comprehensive(ctx, search.ComprehensiveRequest{
		Query:      run.analysis.Mode.Query,
		Keywords:   run.analysis.SearchKeywords,
		Depth:      req.Settings.SearchDepth,
		MaxResults: req.Settings.MaxSearchResults,
	})
	close(stageDone)
	<-stageExited
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	o.log.Debug().
		Str("run_id", run.ID()).
		Str("provider", result.Provider).
		Int("results", len(result.Results)).
		Int("pages_read", result.PagesRead).
		Msg("Comprehensive search finished")

	run.setGenerating()

	if err := o.simulateStream(ctx, run, result.Answer); err != nil {
		return err
	}
	if !run.emit(webSearchSummary(result)) {
		return context.Canceled
	}

	if req.ArticleContent != "" {
		run.addSource(newSource(SourceOriginal, req.ArticleTitle, req.ArticleURL, req.ArticleContent))
	}
	for _, hit := range result.Results {
		run.addSource(newSource(SourceWeb, hit.Title, hit.URL, hit.Snippet))
	}
	for _, page := range result.Pages {
		run.addSource(newSource(SourceURL, page.Title, page.URL, page.Content))
	}
	return nil
}

// emitStages delivers the fixed staging sequence one entry per interval
// until the search returns or the run is cancelled.
func (o *Orchestrator) emitStages(ctx context.Context, run *Run, done <-chan struct{}) {
	for _, stage := range webSearchStages {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-time.After(o.stageInterval):
			select {
			case <-done:
				return
			default:
			}
			if !run.emit(stage) {
				return
			}
		}
	}
}
