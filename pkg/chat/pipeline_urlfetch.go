package chat

import (
	"context"
	"strings"

	"github.com/stella-dust/blogreader/pkg/chaterrors"
	"github.com/stella-dust/blogreader/pkg/fetch"
	"github.com/stella-dust/blogreader/pkg/llm"
)

// runURLFetch batch-fetches the detected URLs, answers from the pages that
// succeeded, and reports the ones that did not.
func (o *Orchestrator) runURLFetch(ctx context.Context, run *Run, req ProcessRequest) error {
	if o.fetcher == nil {
		return &diagError{diag: &Diagnostic{
			Code:    chaterrors.CodeUnknown,
			Message: "❌ 网页获取功能未配置，无法处理链接。",
		}}
	}

	if req.Settings.ShowModeIndicator {
		if !run.emit(stagingText(run.Mode())) {
			return context.Canceled
		}
	}

	urls := run.analysis.URLs
	batch := o.fetcher.BatchFetch(ctx, urls, fetch.BatchOptions{
		MaxChars: pageFetchChars,
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var pages []fetch.Result
	for _, result := range batch.Results {
		if result.Success {
			pages = append(pages, result)
		}
	}

	o.log.Debug().
		Str("run_id", run.ID()).
		Int("urls", len(urls)).
		Int("fetched", len(pages)).
		Msg("Batch fetch finished")

	if len(pages) == 0 {
		return &diagError{diag: &Diagnostic{
			Code:    chaterrors.CodeNetwork,
			Message: urlFetchAllFailedMessage(batch.Results),
		}}
	}

	run.setGenerating()

	question := strings.TrimSpace(run.analysis.CleanQuestion)
	if question == "" {
		question = defaultURLFetchQuestion
	}

	messages := historyMessages(req.History)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: buildURLFetchContext(req, pages) + "\n用户问题：" + question,
	})

	events, err := o.provider.GenerateStream(ctx, llm.GenerateParams{
		SystemPrompt: urlFetchSystemPrompt,
		Messages:     messages,
	})
	if err != nil {
		return err
	}
	if err := o.relayStream(ctx, run, events); err != nil {
		return err
	}

	if !run.emit(urlFetchSummary(batch)) {
		return context.Canceled
	}

	if req.ArticleContent != "" {
		run.addSource(newSource(SourceOriginal, req.ArticleTitle, req.ArticleURL, req.ArticleContent))
	}
	for _, page := range pages {
		run.addSource(newSource(SourceURL, page.Title, page.URL, page.Content))
	}
	return nil
}
