// Package chat drives the mode-routed answer pipelines. Each user message
// becomes one Run that analyzes the input, executes the resolved pipeline
// (url_fetch, web_search or rag_only) and streams progress and answer text
// to the caller through Callbacks.
package chat

import (
	"time"

	"github.com/stella-dust/blogreader/pkg/analyzer"
	"github.com/stella-dust/blogreader/pkg/chaterrors"
	"github.com/stella-dust/blogreader/pkg/llm"
	"github.com/stella-dust/blogreader/pkg/textutil"
)

const (
	// maxSources caps citations on a finalized message.
	maxSources = 10
	// maxSourceSnippetChars bounds the content excerpt carried per source.
	maxSourceSnippetChars = 200
	// pageFetchChars bounds text pulled per fetched page.
	pageFetchChars = 2000
	// pageContextChars bounds per-page text in the LLM context.
	pageContextChars = 800
	// articleContextChars bounds the original article text when it rides
	// along as secondary context in url_fetch and web_search runs.
	articleContextChars = 1500
)

type SourceType string

const (
	SourceOriginal SourceType = "original"
	SourceURL      SourceType = "url"
	SourceWeb      SourceType = "web"
)

// Source is a citation record on a finalized assistant message.
type Source struct {
	Type    SourceType `json:"type"`
	Title   string     `json:"title"`
	URL     string     `json:"url,omitempty"`
	Content string     `json:"content,omitempty"`
	ChunkID string     `json:"chunkId,omitempty"`
}

func newSource(sourceType SourceType, title, url, content string) Source {
	content, _ = textutil.Truncate(content, maxSourceSnippetChars, "...")
	return Source{Type: sourceType, Title: title, URL: url, Content: content}
}

// EnhancedChatMessage is one finalized chat turn.
type EnhancedChatMessage struct {
	ID          string        `json:"id"`
	Role        llm.Role      `json:"role"`
	Content     string        `json:"content"`
	Timestamp   time.Time     `json:"timestamp"`
	Mode        analyzer.Mode `json:"mode,omitempty"`
	Sources     []Source      `json:"sources,omitempty"`
	IsStreaming bool          `json:"isStreaming,omitempty"`
}

// Diagnostic is the terminal payload of a failed run: a stable code, a
// conversational user-facing message, and the original error for logs.
type Diagnostic struct {
	Code    chaterrors.Code `json:"code"`
	Message string          `json:"message"`
	Err     error           `json:"-"`
}

// Callbacks receive run progress. OnChunk always carries the full
// accumulated text, monotonically growing. Exactly one of OnComplete and
// OnError fires per run, and neither fires after cancellation; Cancel
// returns only once an in-flight chunk delivery has finished. Callbacks
// are invoked sequentially and must not call back into the Run.
type Callbacks struct {
	OnStart    func(mode analyzer.Mode)
	OnChunk    func(accumulated string, mode analyzer.Mode)
	OnComplete func(message *EnhancedChatMessage)
	OnError    func(diag *Diagnostic, mode analyzer.Mode)
}
