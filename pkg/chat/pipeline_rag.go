package chat

import (
	"context"
	"fmt"

	"github.com/stella-dust/blogreader/pkg/llm"
)

// runRAG answers strictly from the already-fetched article.
func (o *Orchestrator) runRAG(ctx context.Context, run *Run, req ProcessRequest) error {
	if req.Settings.ShowModeIndicator {
		if !run.emit(stagingText(run.Mode())) {
			return context.Canceled
		}
	}
	if !run.emit(ragAnalyzingText) {
		return context.Canceled
	}

	article := llm.TrimToTokenBudget(req.ArticleContent, o.tokenModel, o.contextBudgetTokens)
	if article == "" {
		article = "（尚未读取任何文章内容）"
	}

	run.setGenerating()

	messages := historyMessages(req.History)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: run.analysis.CleanQuestion,
	})

	events, err := o.provider.GenerateStream(ctx, llm.GenerateParams{
		SystemPrompt: fmt.Sprintf(ragSystemPromptTemplate, article),
		Messages:     messages,
	})
	if err != nil {
		return err
	}
	if err := o.relayStream(ctx, run, events); err != nil {
		return err
	}

	if req.ArticleContent != "" {
		run.addSource(newSource(SourceOriginal, req.ArticleTitle, req.ArticleURL, req.ArticleContent))
	}
	return nil
}
