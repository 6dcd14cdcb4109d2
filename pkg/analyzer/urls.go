package analyzer

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(?i)https?://[^\s]+`)

// ExtractURLs returns every distinct http(s) URL in text, in order of first
// occurrence. Empty input yields a nil slice.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	urls := make([]string, 0, len(matches))
	for _, match := range matches {
		if seen[match] {
			continue
		}
		seen[match] = true
		urls = append(urls, match)
	}
	return urls
}

// RemoveURLs deletes every URL token from text and collapses the remaining
// whitespace into single spaces.
func RemoveURLs(text string) string {
	cleaned := urlPattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}
