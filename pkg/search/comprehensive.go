package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stella-dust/blogreader/pkg/fetch"
	"github.com/stella-dust/blogreader/pkg/settings"
	"github.com/stella-dust/blogreader/pkg/textutil"
)

const (
	// maxFetchPages is how many top results get their full page fetched.
	maxFetchPages = 3
	// pageFetchChars bounds how much text is pulled per fetched page.
	pageFetchChars = 2000
	// pageContextChars bounds per-page text in the synthesis context.
	pageContextChars = 1500
	// snippetContextChars bounds per-result snippet text in the context.
	snippetContextChars = 800
	// basicDepthResults caps result count for basic-depth searches.
	basicDepthResults = 3
)

// ComprehensiveRequest asks for a searched, fetched and synthesized answer.
type ComprehensiveRequest struct {
	Query      string               `json:"query"`
	Keywords   []string             `json:"keywords,omitempty"`
	Depth      settings.SearchDepth `json:"depth,omitempty"`
	MaxResults int                  `json:"maxResults,omitempty"`
	Language   string               `json:"language,omitempty"`
}

// ComprehensiveResult is the outcome of a comprehensive search: the raw
// search results, the pages that were read, and the synthesized answer.
type ComprehensiveResult struct {
	Query        string         `json:"query"`
	Provider     string         `json:"provider"`
	Answer       string         `json:"answer"`
	Results      []Result       `json:"results"`
	Pages        []fetch.Result `json:"pages,omitempty"`
	PagesRead    int            `json:"pagesRead"`
	SearchTimeMs int64          `json:"searchTime"`
	TotalTimeMs  int64          `json:"totalTime"`
}

// AnswerFunc synthesizes an answer from a system and user prompt. It
// decouples this package from any particular LLM client.
type AnswerFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// PageFetcher reads full pages for top search results.
type PageFetcher interface {
	BatchFetch(ctx context.Context, urls []string, opts fetch.BatchOptions) *fetch.BatchResult
}

// Comprehensive runs the full search pipeline: web search, read the top
// pages, then synthesize an answer over everything that was found. When
// answer is nil the raw search material is summarized without an LLM.
func (c *Client) Comprehensive(ctx context.Context, req ComprehensiveRequest) (*ComprehensiveResult, error) {
	start := time.Now()

	count := resolveResultCount(req.Depth, req.MaxResults)
	resp, err := c.Search(ctx, Request{
		Query:    req.Query,
		Count:    count,
		Language: req.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}
	searchTime := time.Since(start)

	result := &ComprehensiveResult{
		Query:        req.Query,
		Provider:     resp.Provider,
		Results:      resp.Results,
		SearchTimeMs: searchTime.Milliseconds(),
	}

	var pages []fetch.Result
	if c.fetcher != nil && len(resp.Results) > 0 {
		urls := make([]string, 0, maxFetchPages)
		for _, entry := range resp.Results {
			if len(urls) >= maxFetchPages {
				break
			}
			if strings.HasPrefix(entry.URL, "http") {
				urls = append(urls, entry.URL)
			}
		}
		if len(urls) > 0 {
			batch := c.fetcher.BatchFetch(ctx, urls, fetch.BatchOptions{MaxChars: pageFetchChars})
			for _, page := range batch.Results {
				if page.Success && page.Content != "" {
					pages = append(pages, page)
				}
			}
		}
	}
	result.Pages = pages
	result.PagesRead = len(pages)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Answer, err = c.synthesize(ctx, req, resp, pages)
	if err != nil {
		return nil, err
	}
	result.TotalTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

func (c *Client) synthesize(ctx context.Context, req ComprehensiveRequest, resp *Response, pages []fetch.Result) (string, error) {
	if c.answer == nil {
		return fallbackAnswer(resp), nil
	}
	userPrompt := buildSearchContext(req, resp, pages)
	answer, err := c.answer(ctx, searchSynthesisPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("synthesizing answer: %w", err)
	}
	return answer, nil
}

// fallbackAnswer assembles something readable when no LLM is configured.
func fallbackAnswer(resp *Response) string {
	if resp.Answer != "" {
		return resp.Answer
	}
	if resp.Summary != "" {
		return resp.Summary
	}
	if resp.Definition != "" {
		return resp.Definition
	}
	var sb strings.Builder
	for i, entry := range resp.Results {
		if i >= basicDepthResults {
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n%s\n\n", i+1, entry.Title, entry.Snippet)
	}
	return strings.TrimSpace(sb.String())
}

const searchSynthesisPrompt = `你是一个专业的信息整理助手。请根据以下搜索结果和网页内容，用简洁准确的语言回答用户的问题。要求：
1. 综合多个来源的信息，避免重复
2. 如果信息之间有冲突，指出不同来源的说法
3. 保持客观，不要编造搜索结果中没有的内容
4. 用与用户提问相同的语言回答`

func buildSearchContext(req ComprehensiveRequest, resp *Response, pages []fetch.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "用户问题：%s\n\n", req.Query)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&sb, "关键词：%s\n\n", strings.Join(req.Keywords, "、"))
	}

	sb.WriteString("搜索结果：\n")
	for i, entry := range resp.Results {
		snippet := truncate(entry.Snippet, snippetContextChars)
		fmt.Fprintf(&sb, "[%d] %s\n%s\n%s\n\n", i+1, entry.Title, entry.URL, snippet)
	}

	if len(pages) > 0 {
		sb.WriteString("网页内容：\n")
		for _, page := range pages {
			content := truncate(page.Content, pageContextChars)
			fmt.Fprintf(&sb, "--- %s (%s) ---\n%s\n\n", page.Title, page.URL, content)
		}
	}
	return sb.String()
}

func resolveResultCount(depth settings.SearchDepth, maxResults int) int {
	if maxResults <= 0 {
		maxResults = settings.Default().MaxSearchResults
	}
	if maxResults > settings.MaxSearchResultsCap {
		maxResults = settings.MaxSearchResultsCap
	}
	if depth != settings.SearchDepthDeep && maxResults > basicDepthResults {
		return basicDepthResults
	}
	return maxResults
}

func truncate(text string, maxChars int) string {
	out, _ := textutil.Truncate(text, maxChars, "...")
	return out
}
