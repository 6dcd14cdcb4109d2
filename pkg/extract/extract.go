// Package extract turns raw HTML into a readable article: metadata from
// OpenGraph and meta tags, main content located by a selector waterfall with
// a paragraph-density fallback, junk elements stripped.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

// Image is a picture referenced by the article body.
type Image struct {
	Src   string `json:"src"`
	Alt   string `json:"alt"`
	Title string `json:"title"`
}

// Article is the normalized extraction result.
type Article struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Content     string  `json:"content"`
	HTMLContent string  `json:"htmlContent,omitempty"`
	Author      string  `json:"author,omitempty"`
	PublishDate string  `json:"publishDate,omitempty"`
	Description string  `json:"description,omitempty"`
	SiteName    string  `json:"siteName,omitempty"`
	Images      []Image `json:"images,omitempty"`
}

// contentSelectors are tried in order; the first match wins. Ordered from
// most to least specific.
var contentSelectors = []string{
	"article",
	`[role="main"]`,
	".main-content",
	".post-content",
	".entry-content",
	".content",
	"main",
	"#content",
	".post-body",
	".article-body",
}

// unwantedSelectors are removed from the located content element before text
// extraction.
var unwantedSelectors = []string{
	"script", "style", "nav", "header", "footer", "noscript", "aside",
	".sidebar", ".navigation", ".menu", ".ads",
	".advertisement", ".social-share", ".comments",
	".related-posts", ".share-buttons",
}

const maxImages = 5

// minFallbackParagraphs is the paragraph count a container must reach before
// the density fallback accepts it as the article body.
const minFallbackParagraphs = 3

// FromHTML extracts an article from raw HTML. baseURL resolves relative image
// sources and is recorded on the result.
func FromHTML(html []byte, baseURL string) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	og := opengraph.NewOpenGraph()
	// OpenGraph parse failures are not fatal; meta tags below cover the gaps.
	_ = og.ProcessHTML(bytes.NewReader(html))

	article := &Article{
		URL:         baseURL,
		Title:       extractTitle(doc, og),
		Author:      extractAuthor(doc),
		PublishDate: extractPublishDate(doc),
		Description: extractDescription(doc, og),
		SiteName:    strings.TrimSpace(og.SiteName),
		Images:      extractImages(doc, baseURL),
	}

	content := findMainContent(doc)
	if content != nil {
		removeUnwanted(content)
		article.Content = collapseWhitespace(content.Text())
		if inner, err := content.Html(); err == nil {
			article.HTMLContent = strings.TrimSpace(inner)
		}
	}
	if article.Content == "" {
		article.Content = extractParagraphText(doc)
	}
	if article.Title == "" {
		article.Title = "Untitled"
	}
	return article, nil
}

func extractTitle(doc *goquery.Document, og *opengraph.OpenGraph) string {
	if title := strings.TrimSpace(og.Title); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractAuthor(doc *goquery.Document) string {
	for _, selector := range []string{`meta[name="author"]`, `meta[property="article:author"]`} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	for _, selector := range []string{".author", ".byline", `[rel="author"]`} {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func extractPublishDate(doc *goquery.Document) string {
	for _, selector := range []string{`meta[property="article:published_time"]`, `meta[name="date"]`} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(datetime) != "" {
		return strings.TrimSpace(datetime)
	}
	for _, selector := range []string{".publish-date", ".date"} {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func extractDescription(doc *goquery.Document, og *opengraph.OpenGraph) string {
	if desc := strings.TrimSpace(og.Description); desc != "" {
		return desc
	}
	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return ""
}

func extractImages(doc *goquery.Document, baseURL string) []Image {
	base, baseErr := url.Parse(baseURL)
	var images []Image
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(images) >= maxImages {
			return false
		}
		src, ok := sel.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return true
		}
		if !strings.HasPrefix(src, "http") {
			if baseErr != nil {
				return true
			}
			ref, err := url.Parse(src)
			if err != nil {
				return true
			}
			src = base.ResolveReference(ref).String()
		}
		images = append(images, Image{
			Src:   src,
			Alt:   sel.AttrOr("alt", ""),
			Title: sel.AttrOr("title", ""),
		})
		return true
	})
	return images
}

// findMainContent walks the selector waterfall, then falls back to the
// div/section containing the most paragraphs, then to body.
func findMainContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}

	var best *goquery.Selection
	maxParagraphs := 0
	doc.Find("div, section").Each(func(_ int, sel *goquery.Selection) {
		if count := sel.Find("p").Length(); count > maxParagraphs {
			maxParagraphs = count
			best = sel
		}
	})
	if best != nil && maxParagraphs >= minFallbackParagraphs {
		return best
	}

	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return nil
}

func removeUnwanted(sel *goquery.Selection) {
	for _, selector := range unwantedSelectors {
		sel.Find(selector).Remove()
	}
}

// extractParagraphText is the last-resort extraction: every non-empty <p>.
func extractParagraphText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := collapseWhitespace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
