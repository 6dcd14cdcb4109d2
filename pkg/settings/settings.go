// Package settings holds the user-controlled chat settings and their
// file-backed store. The core decision logic takes a ChatSettings value as an
// explicit argument; nothing in this repo reads ambient settings state.
package settings

// SearchDepth selects how aggressively the web-search pipeline gathers results.
type SearchDepth string

const (
	SearchDepthBasic SearchDepth = "basic"
	SearchDepthDeep  SearchDepth = "deep"
)

// MaxSearchResults bounds for clamping.
const (
	MinSearchResults   = 1
	MaxSearchResultsCap = 5
)

// ChatSettings are the user-facing toggles that steer input analysis and the
// search pipeline. Field names follow the wire format used by the UI.
type ChatSettings struct {
	WebSearchEnabled  bool        `json:"webSearchEnabled" yaml:"web_search_enabled"`
	AutoURLFetch      bool        `json:"autoUrlFetch" yaml:"auto_url_fetch"`
	SearchDepth       SearchDepth `json:"searchDepth" yaml:"search_depth"`
	MaxSearchResults  int         `json:"maxSearchResults" yaml:"max_search_results"`
	ShowModeIndicator bool        `json:"showModeIndicator" yaml:"show_mode_indicator"`
}

// Default returns the settings a fresh profile starts with. Web search is off
// until the user opts in; URL fetching is on because pasting a link is a clear
// signal of intent.
func Default() ChatSettings {
	return ChatSettings{
		WebSearchEnabled:  false,
		AutoURLFetch:      true,
		SearchDepth:       SearchDepthBasic,
		MaxSearchResults:  3,
		ShowModeIndicator: true,
	}
}

// WithDefaults normalizes a settings value: MaxSearchResults is clamped to
// [MinSearchResults, MaxSearchResultsCap] and an unknown depth falls back to
// basic.
func (s ChatSettings) WithDefaults() ChatSettings {
	if s.MaxSearchResults < MinSearchResults {
		s.MaxSearchResults = MinSearchResults
	}
	if s.MaxSearchResults > MaxSearchResultsCap {
		s.MaxSearchResults = MaxSearchResultsCap
	}
	if s.SearchDepth != SearchDepthBasic && s.SearchDepth != SearchDepthDeep {
		s.SearchDepth = SearchDepthBasic
	}
	return s
}
