package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestBatchMixedResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(testPage("Page"+r.URL.Path, "content of "+r.URL.Path)))
	}))
	defer server.Close()

	urls := []string{
		server.URL + "/a",
		server.URL + "/missing",
		"not-a-url",
		server.URL + "/b",
	}
	batch := Batch(context.Background(), urls, BatchOptions{}, localConfig())

	if batch.Summary.Total != 4 {
		t.Fatalf("total = %d", batch.Summary.Total)
	}
	if batch.Summary.Successful != 2 {
		t.Fatalf("successful = %d", batch.Summary.Successful)
	}
	if batch.Summary.Failed != 2 {
		t.Fatalf("failed = %d", batch.Summary.Failed)
	}

	// Results keep input order.
	for i, u := range urls {
		if batch.Results[i].URL != u {
			t.Fatalf("result %d url = %q, want %q", i, batch.Results[i].URL, u)
		}
	}
	if !batch.Results[0].Success || !batch.Results[3].Success {
		t.Fatal("expected first and last fetches to succeed")
	}
	if batch.Results[1].Success || batch.Results[2].Success {
		t.Fatal("expected middle fetches to fail")
	}
	if batch.Results[2].Error != "invalid url" {
		t.Fatalf("invalid url error = %q", batch.Results[2].Error)
	}
	if batch.Results[1].Title != "Failed to fetch" {
		t.Fatalf("failure title = %q", batch.Results[1].Title)
	}
}

func TestBatchCapsURLCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testPage("x", "y")))
	}))
	defer server.Close()

	var urls []string
	for i := 0; i < MaxBatchURLs+3; i++ {
		urls = append(urls, fmt.Sprintf("%s/%d", server.URL, i))
	}
	batch := Batch(context.Background(), urls, BatchOptions{}, localConfig())
	if batch.Summary.Total != MaxBatchURLs {
		t.Fatalf("total = %d, want %d", batch.Summary.Total, MaxBatchURLs)
	}
}

func TestBatchBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if current <= old || peak.CompareAndSwap(old, current) {
				break
			}
		}
		_, _ = w.Write([]byte(testPage("x", "y")))
	}))
	defer server.Close()

	var urls []string
	for i := 0; i < MaxBatchURLs; i++ {
		urls = append(urls, fmt.Sprintf("%s/%d", server.URL, i))
	}
	Batch(context.Background(), urls, BatchOptions{MaxConcurrent: 2}, localConfig())
	if peak.Load() > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestBatchEmptyInput(t *testing.T) {
	batch := Batch(context.Background(), nil, BatchOptions{}, nil)
	if batch.Summary.Total != 0 || len(batch.Results) != 0 {
		t.Fatalf("unexpected batch for empty input: %+v", batch)
	}
}
