package search

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stella-dust/blogreader/pkg/fetch"
	"github.com/stella-dust/blogreader/pkg/settings"
)

type stubFetcher struct {
	urls []string
}

func (f *stubFetcher) BatchFetch(_ context.Context, urls []string, _ fetch.BatchOptions) *fetch.BatchResult {
	f.urls = urls
	results := make([]fetch.Result, len(urls))
	for i, u := range urls {
		results[i] = fetch.Result{
			URL:     u,
			Title:   "Page " + u,
			Content: "full text of " + u,
			Success: true,
		}
	}
	return &fetch.BatchResult{
		Results: results,
		Summary: fetch.BatchSummary{Total: len(urls), Successful: len(urls)},
	}
}

func comprehensiveFixture(t *testing.T, resultCount int) *Config {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(`{"results": [`)
	for i := 0; i < resultCount; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"title": "r`)
		sb.WriteString(string(rune('a' + i)))
		sb.WriteString(`", "url": "https://example.com/`)
		sb.WriteString(string(rune('a' + i)))
		sb.WriteString(`", "content": "snippet"}`)
	}
	sb.WriteString(`]}`)
	payload := sb.String()
	return searxngFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	})
}

func TestComprehensiveSynthesizes(t *testing.T) {
	cfg := comprehensiveFixture(t, 5)
	fetcher := &stubFetcher{}

	var gotSystem, gotUser string
	answer := func(_ context.Context, system, user string) (string, error) {
		gotSystem, gotUser = system, user
		return "synthesized answer", nil
	}

	client := NewClient(cfg, fetcher, answer, zerolog.Nop())
	result, err := client.Comprehensive(context.Background(), ComprehensiveRequest{
		Query:      "最新的AI趋势",
		Keywords:   []string{"最新", "趋势"},
		Depth:      settings.SearchDepthDeep,
		MaxResults: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Answer != "synthesized answer" {
		t.Fatalf("answer = %q", result.Answer)
	}
	if len(result.Results) != 5 {
		t.Fatalf("results = %d", len(result.Results))
	}
	if result.PagesRead != maxFetchPages {
		t.Fatalf("pagesRead = %d, want %d", result.PagesRead, maxFetchPages)
	}
	if len(fetcher.urls) != maxFetchPages {
		t.Fatalf("fetched urls = %v", fetcher.urls)
	}
	if gotSystem == "" {
		t.Fatal("expected a synthesis system prompt")
	}
	if !strings.Contains(gotUser, "最新的AI趋势") {
		t.Fatalf("context missing query: %q", gotUser)
	}
	if !strings.Contains(gotUser, "full text of https://example.com/a") {
		t.Fatalf("context missing page text: %q", gotUser)
	}
}

func TestComprehensiveBasicDepthCapsResults(t *testing.T) {
	cfg := comprehensiveFixture(t, 5)
	client := NewClient(cfg, nil, nil, zerolog.Nop())

	result, err := client.Comprehensive(context.Background(), ComprehensiveRequest{
		Query:      "question",
		Depth:      settings.SearchDepthBasic,
		MaxResults: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Results) != basicDepthResults {
		t.Fatalf("results = %d, want %d", len(result.Results), basicDepthResults)
	}
}

func TestComprehensiveWithoutLLMFallsBack(t *testing.T) {
	cfg := comprehensiveFixture(t, 2)
	client := NewClient(cfg, nil, nil, zerolog.Nop())

	result, err := client.Comprehensive(context.Background(), ComprehensiveRequest{Query: "question"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer == "" {
		t.Fatal("expected a fallback answer without an LLM")
	}
	if !strings.Contains(result.Answer, "snippet") {
		t.Fatalf("fallback answer = %q", result.Answer)
	}
}

func TestResolveResultCount(t *testing.T) {
	tests := []struct {
		depth settings.SearchDepth
		max   int
		want  int
	}{
		{settings.SearchDepthBasic, 5, 3},
		{settings.SearchDepthBasic, 2, 2},
		{settings.SearchDepthDeep, 5, 5},
		{settings.SearchDepthDeep, 9, settings.MaxSearchResultsCap},
		{settings.SearchDepthBasic, 0, 3},
	}
	for _, tc := range tests {
		if got := resolveResultCount(tc.depth, tc.max); got != tc.want {
			t.Errorf("resolveResultCount(%s, %d) = %d, want %d", tc.depth, tc.max, got, tc.want)
		}
	}
}
