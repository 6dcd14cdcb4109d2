package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxRunes int
		want     string
		wantCut  bool
	}{
		{"shorter than limit", "hello", 10, "hello", false},
		{"exactly at limit", "hello", 5, "hello", false},
		{"ascii cut", "hello world", 5, "hello...", true},
		{"chinese at limit", "缓存设计", 4, "缓存设计", false},
		{"chinese cut", "缓存是重要组件", 4, "缓存是重...", true},
		{"mixed cut", "AI 模型发布", 4, "AI 模...", true},
		{"zero disables", strings.Repeat("长", 500), 0, strings.Repeat("长", 500), false},
		{"empty", "", 3, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cut := Truncate(tt.text, tt.maxRunes, "...")
			if got != tt.want || cut != tt.wantCut {
				t.Errorf("Truncate(%q, %d) = %q, %v, want %q, %v",
					tt.text, tt.maxRunes, got, cut, tt.want, tt.wantCut)
			}
			if !utf8.ValidString(got) {
				t.Errorf("result is not valid UTF-8: %q", got)
			}
		})
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("缓存", 100)
	got, cut := Truncate(text, 50, "...")
	if !cut {
		t.Fatal("expected a cut")
	}
	if !utf8.ValidString(got) {
		t.Fatalf("result is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, "...")); n != 50 {
		t.Errorf("kept %d runes, want 50", n)
	}
}
