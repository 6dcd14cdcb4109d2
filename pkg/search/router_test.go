package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func searxngFixture(t *testing.T, handler http.HandlerFunc) *Config {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ddgOff := false
	exaOff := false
	return (&Config{
		SearxNG: SearxNGConfig{Instances: []string{server.URL}},
		DDG:     DDGConfig{Enabled: &ddgOff},
		Exa:     ExaConfig{Enabled: &exaOff},
	}).WithDefaults()
}

const searxngPayload = `{
	"results": [
		{"title": "Go 1.25 Release Notes", "url": "https://go.dev/doc/go1.25", "content": "What's new in Go 1.25.", "engine": "google", "score": 2.5},
		{"title": "Go Blog", "url": "https://go.dev/blog", "content": "The Go programming language blog.", "engine": "bing", "score": "1.25"},
		{"title": "no url entry", "url": "", "content": "should be skipped"}
	]
}`

func TestSearchSearxNG(t *testing.T) {
	cfg := searxngFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.Form.Get("q"); got != "golang release" {
			t.Errorf("q = %q", got)
		}
		if got := r.Form.Get("format"); got != "json" {
			t.Errorf("format = %q", got)
		}
		if got := r.Form.Get("categories"); got != "general" {
			t.Errorf("categories = %q", got)
		}
		_, _ = w.Write([]byte(searxngPayload))
	})

	resp, err := Search(context.Background(), Request{Query: "golang release"}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != ProviderSearxNG {
		t.Fatalf("provider = %q", resp.Provider)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].Title != "Go 1.25 Release Notes" {
		t.Fatalf("title = %q", resp.Results[0].Title)
	}
	if resp.Results[0].Score != 2.5 {
		t.Fatalf("numeric score = %v", resp.Results[0].Score)
	}
	if resp.Results[1].Score != 1.25 {
		t.Fatalf("string score = %v", resp.Results[1].Score)
	}
}

func TestSearchCountCap(t *testing.T) {
	cfg := searxngFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searxngPayload))
	})
	resp, err := Search(context.Background(), Request{Query: "go", Count: 1}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	if _, err := Search(context.Background(), Request{}, nil); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchFallbackToDDG(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"AbstractText": "Go is a statically typed language.",
			"AbstractURL": "https://go.dev",
			"Heading": "Go (programming language)",
			"RelatedTopics": [
				{"Text": "Goroutine - A lightweight thread.", "FirstURL": "https://go.dev/tour"}
			]
		}`))
	}))
	defer ddg.Close()

	exaOff := false
	cfg := (&Config{
		SearxNG: SearxNGConfig{Instances: []string{broken.URL}},
		DDG:     DDGConfig{BaseURL: ddg.URL},
		Exa:     ExaConfig{Enabled: &exaOff},
	}).WithDefaults()

	resp, err := Search(context.Background(), Request{Query: "golang"}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != ProviderDuckDuckGo {
		t.Fatalf("provider = %q, want fallback to ddg", resp.Provider)
	}
	if resp.Summary != "Go is a statically typed language." {
		t.Fatalf("summary = %q", resp.Summary)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Goroutine" {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].Snippet != "A lightweight thread." {
		t.Fatalf("snippet = %q", resp.Results[0].Snippet)
	}
}

func TestSearchAllProvidersFail(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	exaOff := false
	cfg := (&Config{
		SearxNG: SearxNGConfig{Instances: []string{broken.URL}},
		DDG:     DDGConfig{BaseURL: broken.URL},
		Exa:     ExaConfig{Enabled: &exaOff},
	}).WithDefaults()

	if _, err := Search(context.Background(), Request{Query: "golang"}, cfg); err == nil {
		t.Fatal("expected error when the whole chain fails")
	}
}
