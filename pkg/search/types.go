package search

// Request represents a normalized web search request.
type Request struct {
	Query    string
	Count    int
	Language string
}

// Result is a normalized search result.
type Result struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Snippet   string  `json:"snippet"`
	Published string  `json:"published,omitempty"`
	Engine    string  `json:"engine,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

// Response is a normalized search response.
type Response struct {
	Query      string   `json:"query"`
	Provider   string   `json:"provider"`
	Count      int      `json:"count"`
	TookMs     int64    `json:"tookMs"`
	Results    []Result `json:"results"`
	Answer     string   `json:"answer,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Definition string   `json:"definition,omitempty"`
	NoResults  bool     `json:"noResults,omitempty"`
}
