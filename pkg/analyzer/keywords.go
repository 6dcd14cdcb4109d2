package analyzer

import (
	"strings"

	"github.com/stella-dust/blogreader/pkg/settings"
)

// SearchIndicators is the general vocabulary of topical cue words that hint a
// question needs current information from the web. Matched as literal
// substrings; order is significant for ExtractSearchKeywords output.
var SearchIndicators = []string{
	"最新", "现在", "目前", "当前", "近期", "最近",
	"2024", "2025", "今年", "去年", "明年",
	"趋势", "发展", "进展", "状况", "情况",
	"案例", "例子", "实例", "应用", "使用",
	"比较", "对比", "区别", "差异", "优缺点",
	"如何", "怎么", "方法", "步骤", "教程",
	"工具", "软件", "库", "框架", "平台",
	"新闻", "消息", "报道", "事件",
	"价格", "成本", "费用", "收费",
}

// TimeIndicators is the smaller recency vocabulary. A single hit is a strong
// enough signal to trigger a web search on its own.
var TimeIndicators = []string{
	"最新", "现在", "目前", "当前", "近期", "最近",
	"2024", "2025", "今年", "去年", "明年",
	"latest", "current", "now", "recent", "new",
}

// MinSearchKeywords is how many distinct general indicators must match before
// a search is triggered without a time-sensitivity hit. Two was chosen to cut
// single-keyword false positives; tune rather than trust.
const MinSearchKeywords = 2

// ExtractSearchKeywords returns the SearchIndicators entries literally present
// in text, preserving vocabulary order.
func ExtractSearchKeywords(text string) []string {
	var found []string
	for _, keyword := range SearchIndicators {
		if strings.Contains(text, keyword) {
			found = append(found, keyword)
		}
	}
	return found
}

// NeedsWebSearch reports whether text asks for information that the fetched
// article alone cannot answer. WebSearchEnabled is a hard gate: when off, the
// answer is always false regardless of content.
func NeedsWebSearch(text string, st settings.ChatSettings) bool {
	if !st.WebSearchEnabled {
		return false
	}
	lower := strings.ToLower(text)
	for _, indicator := range TimeIndicators {
		if strings.Contains(lower, strings.ToLower(indicator)) {
			return true
		}
	}
	count := 0
	for _, indicator := range SearchIndicators {
		if strings.Contains(lower, strings.ToLower(indicator)) {
			count++
		}
	}
	return count >= MinSearchKeywords
}

// countTimeIndicators counts recency vocabulary hits, case-insensitively.
func countTimeIndicators(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, indicator := range TimeIndicators {
		if strings.Contains(lower, strings.ToLower(indicator)) {
			count++
		}
	}
	return count
}
