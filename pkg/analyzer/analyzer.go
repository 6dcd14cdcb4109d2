// Package analyzer decides, before any network call is made, how a chat
// message should be answered: by fetching URLs the user pasted, by augmenting
// with a live web search, or strictly from the already-fetched article.
package analyzer

import (
	"fmt"
	"math"

	"github.com/stella-dust/blogreader/pkg/settings"
)

// Mode identifies one of the three mutually exclusive processing strategies.
type Mode string

const (
	ModeURLFetch  Mode = "url_fetch"
	ModeWebSearch Mode = "web_search"
	ModeRAGOnly   Mode = "rag_only"
)

// Priority orders modes by how strongly the input demanded them.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ProcessMode is the resolved strategy for one input. Exactly one is produced
// per analysis and it is never mutated afterwards.
type ProcessMode struct {
	Type     Mode     `json:"type"`
	URLs     []string `json:"urls,omitempty"`
	Query    string   `json:"query,omitempty"`
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason"`
}

// InputAnalysis is the full resolver output for one user message.
type InputAnalysis struct {
	Mode           ProcessMode `json:"mode"`
	URLs           []string    `json:"urls"`
	CleanQuestion  string      `json:"cleanQuestion"`
	SearchKeywords []string    `json:"searchKeywords"`
	Confidence     float64     `json:"confidence"`
}

// Confidence scoring constants. These are heuristics inherited from field
// tuning, not derived values.
const (
	urlFetchBaseConfidence     = 0.9
	urlFetchMultiConfidence    = 0.95
	webSearchBaseConfidence    = 0.6
	webSearchKeywordIncrement  = 0.1
	webSearchTimeIncrement     = 0.2
	webSearchMaxConfidence     = 0.9
	ragOnlyConfidence          = 0.8
	searchDisabledConfidence   = 0.1
	urlFetchDisabledConfidence = 0.2
)

// Analyze resolves the processing mode for input under the given settings.
// Pure and deterministic: identical arguments produce identical results.
func Analyze(input string, st settings.ChatSettings) InputAnalysis {
	urls := ExtractURLs(input)
	cleanQuestion := RemoveURLs(input)
	searchKeywords := ExtractSearchKeywords(input)

	mode := determineMode(input, urls, st)
	confidence := calculateConfidence(mode, urls, searchKeywords, st)

	return InputAnalysis{
		Mode:           mode,
		URLs:           urls,
		CleanQuestion:  cleanQuestion,
		SearchKeywords: searchKeywords,
		Confidence:     confidence,
	}
}

// determineMode applies the strict priority order: URL fetch, then web
// search, then the RAG fallback which always succeeds.
func determineMode(input string, urls []string, st settings.ChatSettings) ProcessMode {
	if len(urls) > 0 && st.AutoURLFetch {
		return ProcessMode{
			Type:     ModeURLFetch,
			URLs:     urls,
			Priority: PriorityHigh,
			Reason:   fmt.Sprintf("detected %d URL(s), fetching their content directly", len(urls)),
		}
	}

	if NeedsWebSearch(input, st) {
		return ProcessMode{
			Type:     ModeWebSearch,
			Query:    input,
			Priority: PriorityMedium,
			Reason:   "search cue words detected, augmenting with live web results",
		}
	}

	return ProcessMode{
		Type:     ModeRAGOnly,
		Query:    input,
		Priority: PriorityLow,
		Reason:   "answering from the fetched article content",
	}
}

func calculateConfidence(mode ProcessMode, urls, searchKeywords []string, st settings.ChatSettings) float64 {
	var confidence float64

	switch mode.Type {
	case ModeURLFetch:
		confidence = urlFetchBaseConfidence
		if len(urls) > 1 {
			confidence = urlFetchMultiConfidence
		}
	case ModeWebSearch:
		timeHits := countTimeIndicators(mode.Query)
		confidence = webSearchBaseConfidence +
			float64(len(searchKeywords))*webSearchKeywordIncrement +
			float64(timeHits)*webSearchTimeIncrement
		confidence = math.Min(confidence, webSearchMaxConfidence)
	case ModeRAGOnly:
		confidence = ragOnlyConfidence
	}

	// Guards against misuse: a mode resolved while its settings gate is off
	// collapses to a near-zero score. The gating in determineMode should make
	// these unreachable.
	if mode.Type == ModeWebSearch && !st.WebSearchEnabled {
		confidence = searchDisabledConfidence
	}
	if mode.Type == ModeURLFetch && !st.AutoURLFetch {
		confidence = urlFetchDisabledConfidence
	}

	return math.Round(confidence*100) / 100
}

// ModeDescription is a short human-readable label for a mode, used by UIs
// that show a live hint of how the message will be handled.
func ModeDescription(mode Mode) string {
	switch mode {
	case ModeURLFetch:
		return "will fetch the linked pages"
	case ModeWebSearch:
		return "will search the web for current information"
	case ModeRAGOnly:
		return "will answer from the article"
	default:
		return ""
	}
}
