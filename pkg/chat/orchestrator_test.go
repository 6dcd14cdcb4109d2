package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stella-dust/blogreader/pkg/analyzer"
	"github.com/stella-dust/blogreader/pkg/chaterrors"
	"github.com/stella-dust/blogreader/pkg/fetch"
	"github.com/stella-dust/blogreader/pkg/llm"
	"github.com/stella-dust/blogreader/pkg/search"
	"github.com/stella-dust/blogreader/pkg/settings"
)

type fakeProvider struct {
	deltas []string
	err    error

	mu         sync.Mutex
	lastParams llm.GenerateParams
	// block keeps the stream open until the context is cancelled.
	block bool
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Generate(ctx context.Context, params llm.GenerateParams) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return strings.Join(p.deltas, ""), nil
}

func (p *fakeProvider) GenerateStream(ctx context.Context, params llm.GenerateParams) (<-chan llm.StreamEvent, error) {
	p.mu.Lock()
	p.lastParams = params
	p.mu.Unlock()

	events := make(chan llm.StreamEvent, len(p.deltas)+1)
	go func() {
		defer close(events)
		for _, delta := range p.deltas {
			events <- llm.StreamEvent{Type: llm.StreamEventDelta, Delta: delta}
		}
		if p.block {
			<-ctx.Done()
			events <- llm.StreamEvent{Type: llm.StreamEventError, Error: ctx.Err()}
			return
		}
		if p.err != nil {
			events <- llm.StreamEvent{Type: llm.StreamEventError, Error: p.err}
			return
		}
		events <- llm.StreamEvent{Type: llm.StreamEventComplete, FinishReason: "stop"}
	}()
	return events, nil
}

func (p *fakeProvider) params() llm.GenerateParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastParams
}

type fakeFetcher struct {
	result *fetch.BatchResult
	urls   []string
}

func (f *fakeFetcher) BatchFetch(ctx context.Context, urls []string, opts fetch.BatchOptions) *fetch.BatchResult {
	f.urls = urls
	return f.result
}

type fakeSearcher struct {
	result *search.ComprehensiveResult
	err    error
	req    search.ComprehensiveRequest
}

func (s *fakeSearcher) Comprehensive(ctx context.Context, req search.ComprehensiveRequest) (*search.ComprehensiveResult, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// recorder collects callback invocations for assertions.
type recorder struct {
	mu        sync.Mutex
	startMode analyzer.Mode
	chunks    []string
	complete  *EnhancedChatMessage
	diag      *Diagnostic
	terminals int
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnStart: func(mode analyzer.Mode) {
			r.mu.Lock()
			r.startMode = mode
			r.mu.Unlock()
		},
		OnChunk: func(accumulated string, mode analyzer.Mode) {
			r.mu.Lock()
			r.chunks = append(r.chunks, accumulated)
			r.mu.Unlock()
		},
		OnComplete: func(message *EnhancedChatMessage) {
			r.mu.Lock()
			r.complete = message
			r.terminals++
			r.mu.Unlock()
		},
		OnError: func(diag *Diagnostic, mode analyzer.Mode) {
			r.mu.Lock()
			r.diag = diag
			r.terminals++
			r.mu.Unlock()
		},
	}
}

type recorded struct {
	startMode analyzer.Mode
	chunks    []string
	complete  *EnhancedChatMessage
	diag      *Diagnostic
	terminals int
}

func (r *recorder) snapshot() recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return recorded{
		startMode: r.startMode,
		chunks:    append([]string(nil), r.chunks...),
		complete:  r.complete,
		diag:      r.diag,
		terminals: r.terminals,
	}
}

func waitDone(t *testing.T, run *Run) {
	t.Helper()
	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
}

func assertMonotonic(t *testing.T, chunks []string) {
	t.Helper()
	for i := 1; i < len(chunks); i++ {
		if !strings.HasPrefix(chunks[i], chunks[i-1]) {
			t.Fatalf("chunk %d %q does not extend %q", i, chunks[i], chunks[i-1])
		}
	}
}

func testOrchestrator(provider llm.Provider, fetcher Fetcher, searcher Searcher) *Orchestrator {
	return NewOrchestrator(provider, fetcher, searcher, zerolog.Nop(),
		WithChunkDelay(0), WithStageInterval(10*time.Millisecond))
}

func TestProcessRAG(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"这篇文章", "讲的是缓存设计。"}}
	o := testOrchestrator(provider, nil, nil)

	rec := &recorder{}
	run, err := o.Process(context.Background(), ProcessRequest{
		Input:          "这篇文章讲了什么",
		Settings:       settings.Default(),
		ArticleTitle:   "缓存设计",
		ArticleURL:     "https://blog.example.com/cache",
		ArticleContent: "缓存是计算机系统中的重要组件。",
	}, rec.callbacks())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	waitDone(t, run)

	got := rec.snapshot()
	if got.startMode != analyzer.ModeRAGOnly {
		t.Fatalf("start mode = %s, want rag_only", got.startMode)
	}
	if got.terminals != 1 || got.complete == nil {
		t.Fatalf("terminals = %d, complete = %v", got.terminals, got.complete)
	}
	assertMonotonic(t, got.chunks)
	if !strings.Contains(got.complete.Content, "讲的是缓存设计") {
		t.Errorf("content missing answer: %q", got.complete.Content)
	}
	if len(got.complete.Sources) != 1 || got.complete.Sources[0].Type != SourceOriginal {
		t.Errorf("sources = %+v, want single original", got.complete.Sources)
	}
	if got.complete.IsStreaming {
		t.Error("final message still marked streaming")
	}
	if run.State() != StateComplete {
		t.Errorf("state = %s", run.State())
	}

	params := provider.params()
	if !strings.Contains(params.SystemPrompt, "===BLOG CONTENT START===") {
		t.Error("system prompt missing article framing")
	}
	if !strings.Contains(params.SystemPrompt, "缓存是计算机系统中的重要组件") {
		t.Error("system prompt missing article content")
	}
}

func TestProcessURLFetchAllFailed(t *testing.T) {
	fetcher := &fakeFetcher{result: &fetch.BatchResult{
		Results: []fetch.Result{
			{URL: "https://a.example.com/x", Error: "http 404: Not Found"},
			{URL: "https://b.example.com/y", Error: "connection refused"},
		},
		Summary: fetch.BatchSummary{Total: 2, Failed: 2},
	}}
	o := testOrchestrator(&fakeProvider{}, fetcher, nil)

	rec := &recorder{}
	run, err := o.Process(context.Background(), ProcessRequest{
		Input:    "对比 https://a.example.com/x 和 https://b.example.com/y",
		Settings: settings.Default(),
	}, rec.callbacks())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	waitDone(t, run)

	got := rec.snapshot()
	if got.startMode != analyzer.ModeURLFetch {
		t.Fatalf("start mode = %s", got.startMode)
	}
	if got.terminals != 1 || got.diag == nil {
		t.Fatalf("terminals = %d, diag = %v", got.terminals, got.diag)
	}
	if got.diag.Code != chaterrors.CodeNetwork {
		t.Errorf("code = %s, want network", got.diag.Code)
	}
	for _, url := range []string{"https://a.example.com/x", "https://b.example.com/y"} {
		if !strings.Contains(got.diag.Message, url) {
			t.Errorf("message missing %s: %q", url, got.diag.Message)
		}
	}
	if run.State() != StateFailed {
		t.Errorf("state = %s", run.State())
	}
	if sources := run.Message().Sources; len(sources) != 0 {
		t.Errorf("failed run has %d sources", len(sources))
	}
}

func TestProcessURLFetchPartialSuccess(t *testing.T) {
	fetcher := &fakeFetcher{result: &fetch.BatchResult{
		Results: []fetch.Result{
			{URL: "https://a.example.com/x", Title: "分布式系统", Content: "一致性协议的比较。", Success: true},
			{URL: "https://b.example.com/y", Error: "http 404: Not Found"},
		},
		Summary: fetch.BatchSummary{Total: 2, Successful: 1, Failed: 1, TotalTimeMs: 1200},
	}}
	provider := &fakeProvider{deltas: []string{"两篇网页的要点如下。"}}
	o := testOrchestrator(provider, fetcher, nil)

	rec := &recorder{}
	run, err := o.Process(context.Background(), ProcessRequest{
		Input:          "总结一下 https://a.example.com/x https://b.example.com/y",
		Settings:       settings.Default(),
		ArticleTitle:   "原文",
		ArticleURL:     "https://blog.example.com/post",
		ArticleContent: "原文内容。",
	}, rec.callbacks())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	waitDone(t, run)

	got := rec.snapshot()
	if got.terminals != 1 || got.complete == nil {
		t.Fatalf("terminals = %d, complete = %v", got.terminals, got.complete)
	}
	if !strings.Contains(got.complete.Content, "已读取 1/2 个网页") {
		t.Errorf("content missing summary: %q", got.complete.Content)
	}
	if !strings.Contains(got.complete.Content, "https://b.example.com/y") {
		t.Errorf("summary missing failed URL: %q", got.complete.Content)
	}
	if len(got.complete.Sources) != 2 {
		t.Fatalf("sources = %+v", got.complete.Sources)
	}
	if got.complete.Sources[0].Type != SourceOriginal || got.complete.Sources[1].Type != SourceURL {
		t.Errorf("source types = %s, %s", got.complete.Sources[0].Type, got.complete.Sources[1].Type)
	}
	if len(fetcher.urls) != 2 {
		t.Errorf("fetched urls = %v", fetcher.urls)
	}

	params := provider.params()
	if !strings.Contains(params.Messages[len(params.Messages)-1].Content, "一致性协议的比较") {
		t.Error("context missing fetched page content")
	}
}

func TestProcessWebSearch(t *testing.T) {
	searcher := &fakeSearcher{result: &search.ComprehensiveResult{
		Query:  "最新 AI 新闻",
		Answer: "本周发布了多款模型。",
		Results: []search.Result{
			{Title: "发布会报道", URL: "https://news.example.com/1", Snippet: "新模型上线"},
		},
		PagesRead:   1,
		TotalTimeMs: 2100,
	}}
	o := testOrchestrator(&fakeProvider{}, nil, searcher)

	st := settings.Default()
	st.WebSearchEnabled = true
	st.SearchDepth = settings.SearchDepthDeep
	st.MaxSearchResults = 5

	rec := &recorder{}
	run, err := o.Process(context.Background(), ProcessRequest{
		Input:    "最新的 AI 新闻有哪些",
		Settings: st,
	}, rec.callbacks())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	waitDone(t, run)

	got := rec.snapshot()
	if got.startMode != analyzer.ModeWebSearch {
		t.Fatalf("start mode = %s", got.startMode)
	}
	if got.terminals != 1 || got.complete == nil {
		t.Fatalf("terminals = %d", got.terminals)
	}
	assertMonotonic(t, got.chunks)
	if !strings.Contains(got.complete.Content, "本周发布了多款模型") {
		t.Errorf("content missing answer: %q", got.complete.Content)
	}
	if !strings.Contains(got.complete.Content, "搜索到 1 条结果") {
		t.Errorf("content missing summary: %q", got.complete.Content)
	}
	if len(got.complete.Sources) != 1 || got.complete.Sources[0].Type != SourceWeb {
		t.Errorf("sources = %+v", got.complete.Sources)
	}
	if searcher.req.Depth != settings.SearchDepthDeep || searcher.req.MaxResults != 5 {
		t.Errorf("search request = %+v", searcher.req)
	}
}

func TestProcessWebSearchCapsSources(t *testing.T) {
	results := make([]search.Result, 12)
	for i := range results {
		results[i] = search.Result{
			Title:   fmt.Sprintf("结果 %d", i+1),
			URL:     fmt.Sprintf("https://news.example.com/%d", i+1),
			Snippet: "相关报道",
		}
	}
	searcher := &fakeSearcher{result: &search.ComprehensiveResult{
		Query:   "最新 AI 新闻",
		Answer:  "综合整理如下。",
		Results: results,
	}}
	o := testOrchestrator(&fakeProvider{}, nil, searcher)

	st := settings.Default()
	st.WebSearchEnabled = true

	rec := &recorder{}
	run, err := o.Process(context.Background(), ProcessRequest{
		Input:          "最新的 AI 新闻有哪些",
		Settings:       st,
		ArticleTitle:   "原文",
		ArticleURL:     "https://blog.example.com/post",
		ArticleContent: "原文内容。",
	}, rec.callbacks())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	waitDone(t, run)

	got := rec.snapshot()
	if got.terminals != 1 || got.complete == nil {
		t.Fatalf("terminals = %d, complete = %v", got.terminals, got.complete)
	}
	if len(got.complete.Sources) != maxSources {
		t.Fatalf("sources = %d, want %d", len(got.complete.Sources), maxSources)
	}
	if got.complete.Sources[0].Type != SourceOriginal {
		t.Errorf("first source = %s, want original", got.complete.Sources[0].Type)
	}
}

func TestProcessWebSearchError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("all search providers failed")}
	o := testOrchestrator(&fakeProvider{}, nil, searcher)

	st := settings.Default()
	st.WebSearchEnabled = true

	rec := &recorder{}
	run, err := o.Process(context.Background(), ProcessRequest{
		Input:    "最新进展如何",
		Settings: st,
	}, rec.callbacks())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	waitDone(t, run)

	got := rec.snapshot()
	if got.terminals != 1 || got.diag == nil {
		t.Fatalf("terminals = %d, diag = %v", got.terminals, got.diag)
	}
	if !strings.Contains(got.diag.Message, "联网搜索") {
		t.Errorf("diagnostic not search specific: %q", got.diag.Message)
	}
	if run.State() != StateFailed {
		t.Errorf("state = %s", run.State())
	}
}

func TestCancelSuppressesCallbacks(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"第一段内容"}, block: true}
	o := testOrchestrator(provider, nil, nil)

	sawChunk := make(chan struct{})
	rec := &recorder{}
	cb := rec.callbacks()
	inner := cb.OnChunk
	var once sync.Once
	cb.OnChunk = func(accumulated string, mode analyzer.Mode) {
		inner(accumulated, mode)
		once.Do(func() { close(sawChunk) })
	}

	run, err := o.Process(context.Background(), ProcessRequest{
		Input:    "继续讲讲",
		Settings: settings.Default(),
	}, cb)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	select {
	case <-sawChunk:
	case <-time.After(5 * time.Second):
		t.Fatal("no chunk before cancel")
	}
	run.Cancel()
	waitDone(t, run)

	// Give the execute goroutine time to unwind before asserting silence.
	time.Sleep(50 * time.Millisecond)

	got := rec.snapshot()
	if got.terminals != 0 {
		t.Fatalf("terminal callback fired after cancel: complete=%v diag=%v", got.complete, got.diag)
	}
	if run.State() != StateAborted {
		t.Errorf("state = %s", run.State())
	}
	chunksAtCancel := len(got.chunks)

	time.Sleep(50 * time.Millisecond)
	if n := len(rec.snapshot().chunks); n != chunksAtCancel {
		t.Errorf("chunks kept arriving after cancel: %d -> %d", chunksAtCancel, n)
	}
}

func TestCancelWaitsForInFlightChunk(t *testing.T) {
	o := testOrchestrator(&fakeProvider{deltas: []string{"第一段", "第二段"}}, nil, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	rec := &recorder{}
	cb := rec.callbacks()
	inner := cb.OnChunk
	var once sync.Once
	cb.OnChunk = func(accumulated string, mode analyzer.Mode) {
		inner(accumulated, mode)
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	run, err := o.Process(context.Background(), ProcessRequest{
		Input:    "继续讲讲",
		Settings: settings.Default(),
	}, cb)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("no chunk delivered")
	}

	cancelReturned := make(chan struct{})
	go func() {
		run.Cancel()
		close(cancelReturned)
	}()

	select {
	case <-cancelReturned:
		t.Fatal("Cancel returned while a chunk delivery was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-cancelReturned:
	case <-time.After(5 * time.Second):
		t.Fatal("Cancel did not return")
	}
	delivered := len(rec.snapshot().chunks)

	waitDone(t, run)
	time.Sleep(50 * time.Millisecond)

	if n := len(rec.snapshot().chunks); n != delivered {
		t.Errorf("chunk delivered after Cancel returned: %d -> %d", delivered, n)
	}
	if run.State() != StateAborted {
		t.Errorf("state = %s", run.State())
	}
}

func TestProcessRejectsEmptyInput(t *testing.T) {
	o := testOrchestrator(&fakeProvider{}, nil, nil)
	if _, err := o.Process(context.Background(), ProcessRequest{Input: "   "}, Callbacks{}); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestProcessRejectsNilProvider(t *testing.T) {
	o := testOrchestrator(nil, nil, nil)
	if _, err := o.Process(context.Background(), ProcessRequest{Input: "你好"}, Callbacks{}); err == nil {
		t.Fatal("expected error without provider")
	}
}

func TestPredictModeMatchesProcess(t *testing.T) {
	st := settings.Default()
	analysis := PredictMode("总结 https://a.example.com/x", st)
	if analysis.Mode.Type != analyzer.ModeURLFetch {
		t.Fatalf("mode = %s", analysis.Mode.Type)
	}
	if analysis.Confidence != 0.9 {
		t.Errorf("confidence = %v", analysis.Confidence)
	}
}
