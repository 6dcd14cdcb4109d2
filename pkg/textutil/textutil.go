// Package textutil holds small text helpers shared by the content
// pipelines. Content here is predominantly Chinese, so length limits are
// counted in runes, never bytes.
package textutil

// Truncate cuts text to at most maxRunes runes and appends suffix when it
// cut anything. maxRunes <= 0 disables truncation. The second return
// reports whether the text was cut.
func Truncate(text string, maxRunes int, suffix string) (string, bool) {
	// Byte length bounds rune count, so most short strings return here
	// without scanning.
	if maxRunes <= 0 || len(text) <= maxRunes {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text, false
	}
	return string(runes[:maxRunes]) + suffix, true
}
