package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stella-dust/blogreader/pkg/fetch"
	"github.com/stella-dust/blogreader/pkg/search"
)

type fetchContentRequest struct {
	URL         string `json:"url"`
	TimeoutSecs int    `json:"timeout,omitempty"`
	MaxChars    int    `json:"maxChars,omitempty"`
}

func (s *Server) fetchContent(w http.ResponseWriter, r *http.Request) {
	if s.fetcher == nil {
		writeError(w, http.StatusServiceUnavailable, "fetching is not configured")
		return
	}
	var req fetchContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	result, err := s.fetcher.Fetch(r.Context(), fetch.Request{
		URL:         req.URL,
		TimeoutSecs: req.TimeoutSecs,
		MaxChars:    req.MaxChars,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type batchFetchRequest struct {
	URLs        []string `json:"urls"`
	TimeoutSecs int      `json:"timeout,omitempty"`
	MaxChars    int      `json:"maxChars,omitempty"`
}

func (s *Server) batchFetchContent(w http.ResponseWriter, r *http.Request) {
	if s.fetcher == nil {
		writeError(w, http.StatusServiceUnavailable, "fetching is not configured")
		return
	}
	var req batchFetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls are required")
		return
	}

	batch := s.fetcher.BatchFetch(r.Context(), req.URLs, fetch.BatchOptions{
		TimeoutSecs: req.TimeoutSecs,
		MaxChars:    req.MaxChars,
	})
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) comprehensiveSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		writeError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}
	var req search.ComprehensiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.searcher.Comprehensive(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
