package fetch

import (
	"context"

	"github.com/stella-dust/blogreader/pkg/extract"
	"github.com/stella-dust/blogreader/pkg/textutil"
)

// Request identifies a single page to fetch.
type Request struct {
	URL string
	// TimeoutSecs overrides the provider timeout when positive.
	TimeoutSecs int
	// MaxChars bounds extracted text length. Zero means provider default.
	MaxChars int
}

// Result is the per-URL fetch record. Failed fetches carry Success=false
// and a human-readable Error instead of content.
type Result struct {
	URL         string          `json:"url"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	HTMLContent string          `json:"htmlContent,omitempty"`
	Author      string          `json:"author,omitempty"`
	PublishDate string          `json:"publishDate,omitempty"`
	Description string          `json:"description,omitempty"`
	SiteName    string          `json:"siteName,omitempty"`
	Images      []extract.Image `json:"images,omitempty"`

	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	FetchTimeMs int64  `json:"fetchTime"`
	Provider    string `json:"provider,omitempty"`
	Truncated   bool   `json:"truncated,omitempty"`
}

// Provider fetches readable content for a given backend.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, req Request) (*Result, error)
}

func truncateContent(text string, maxChars int) (string, bool) {
	return textutil.Truncate(text, maxChars, "...[truncated]")
}
