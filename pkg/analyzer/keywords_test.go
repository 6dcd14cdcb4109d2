package analyzer

import (
	"testing"

	"github.com/stella-dust/blogreader/pkg/settings"
)

func searchEnabled() settings.ChatSettings {
	st := settings.Default()
	st.WebSearchEnabled = true
	return st
}

func TestExtractSearchKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: nil},
		{name: "no keywords", text: "hello there", want: nil},
		{name: "single keyword", text: "最新的版本是什么", want: []string{"最新"}},
		{
			name: "vocabulary order preserved",
			text: "2025年有哪些新工具？最新趋势如何？",
			want: []string{"最新", "2025", "趋势", "工具"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractSearchKeywords(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestNeedsWebSearch(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		settings settings.ChatSettings
		want     bool
	}{
		{
			name:     "disabled is a hard gate",
			text:     "最新的AI发展趋势是什么？",
			settings: settings.Default(),
			want:     false,
		},
		{
			name:     "time indicator alone triggers",
			text:     "最新的版本是什么",
			settings: searchEnabled(),
			want:     true,
		},
		{
			name:     "english time indicator case-insensitive",
			text:     "what is the LATEST release?",
			settings: searchEnabled(),
			want:     true,
		},
		{
			name:     "single topical keyword below threshold",
			text:     "这个工具好用吗",
			settings: searchEnabled(),
			want:     false,
		},
		{
			name:     "two topical keywords trigger",
			text:     "这个工具和那个框架怎么比较",
			settings: searchEnabled(),
			want:     true,
		},
		{
			name:     "no keywords",
			text:     "这篇文章讲了什么",
			settings: searchEnabled(),
			want:     false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NeedsWebSearch(tc.text, tc.settings); got != tc.want {
				t.Fatalf("NeedsWebSearch(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
