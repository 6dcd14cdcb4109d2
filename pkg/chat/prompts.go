package chat

import (
	"fmt"
	"strings"

	"github.com/stella-dust/blogreader/pkg/analyzer"
	"github.com/stella-dust/blogreader/pkg/chaterrors"
	"github.com/stella-dust/blogreader/pkg/fetch"
	"github.com/stella-dust/blogreader/pkg/llm"
	"github.com/stella-dust/blogreader/pkg/search"
	"github.com/stella-dust/blogreader/pkg/textutil"
)

const ragSystemPromptTemplate = `你是一个专业的博客阅读助手。请基于以下博客内容回答用户的问题。

===BLOG CONTENT START===
%s
===BLOG CONTENT END===

要求：
1. 回答必须基于博客内容，不要编造内容中没有的信息
2. 如果问题与博客内容无关，请明确说明
3. 用与用户提问相同的语言回答`

const urlFetchSystemPrompt = `你是一个专业的内容分析助手。用户提供了一个或多个网页的内容，请基于这些内容回答用户的问题。

要求：
1. 回答必须基于提供的网页内容
2. 涉及多个网页时，综合比较各网页的信息
3. 用与用户提问相同的语言回答`

const defaultURLFetchQuestion = "请总结这些网页的主要内容"

// TranslateSystemPrompt drives the one-shot translate action.
const TranslateSystemPrompt = `你是一个专业的翻译助手。请将用户提供的内容翻译成中文。

要求：
1. 保持原文的段落结构和格式
2. 专业术语保留英文原文并在括号中给出译文
3. 只输出译文，不要解释`

// InterpretSystemPrompt drives the one-shot interpret action.
const InterpretSystemPrompt = `你是一个专业的内容解读助手。请解读用户提供的文章内容。

要求：
1. 先用一段话概括文章主旨
2. 列出核心观点和论据
3. 指出值得注意的细节或局限
4. 用与原文相同的语言回答`

// stagingText returns the mode indicator emitted at the start of a run.
func stagingText(mode analyzer.Mode) string {
	switch mode {
	case analyzer.ModeURLFetch:
		return "🔗 检测到链接，正在获取网页内容...\n\n"
	case analyzer.ModeWebSearch:
		return "🔍 正在联网搜索相关信息...\n\n"
	default:
		return "📚 正在检索文章内容...\n\n"
	}
}

// webSearchStages are the staging updates emitted while the search
// collaborator works.
var webSearchStages = []string{
	"📖 正在阅读搜索结果...\n",
	"🧠 正在分析整理...\n",
	"✍️ 正在生成回答...\n\n",
}

const ragAnalyzingText = "🤔 正在分析...\n\n"

// buildURLFetchContext assembles the LLM context for a url_fetch run: the
// original article as secondary context when present, then every
// successfully fetched page.
func buildURLFetchContext(req ProcessRequest, pages []fetch.Result) string {
	var sb strings.Builder
	if req.ArticleContent != "" {
		sb.WriteString("当前正在阅读的文章（背景参考）：\n")
		sb.WriteString(truncateChars(req.ArticleContent, articleContextChars))
		sb.WriteString("\n\n")
	}
	sb.WriteString("用户提供的网页内容：\n")
	for i, page := range pages {
		fmt.Fprintf(&sb, "--- 网页 %d: %s (%s) ---\n%s\n\n",
			i+1, page.Title, page.URL, truncateChars(page.Content, pageContextChars))
	}
	return sb.String()
}

// urlFetchSummary is the machine-generated trailer after a url_fetch answer.
func urlFetchSummary(batch *fetch.BatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n\n---\n📄 已读取 %d/%d 个网页，耗时 %.1f 秒",
		batch.Summary.Successful, batch.Summary.Total,
		float64(batch.Summary.TotalTimeMs)/1000)
	for _, result := range batch.Results {
		if !result.Success {
			fmt.Fprintf(&sb, "\n⚠️ %s：%s", result.URL, result.Error)
		}
	}
	return sb.String()
}

// webSearchSummary is the trailer after a web_search answer.
func webSearchSummary(result *search.ComprehensiveResult) string {
	return fmt.Sprintf("\n\n---\n🔍 搜索到 %d 条结果，阅读了 %d 个网页，耗时 %.1f 秒",
		len(result.Results), result.PagesRead,
		float64(result.TotalTimeMs)/1000)
}

// urlFetchAllFailedMessage enumerates every attempted URL with its error
// and suggests next steps.
func urlFetchAllFailedMessage(results []fetch.Result) string {
	var sb strings.Builder
	sb.WriteString("⚠️ 无法获取以下网页内容：\n")
	for _, result := range results {
		reason := result.Error
		if reason == "" {
			reason = "未知错误"
		}
		fmt.Fprintf(&sb, "• %s（%s）\n", result.URL, reason)
	}
	sb.WriteString("\n💡 您可以尝试：\n• 检查链接是否正确且可公开访问\n• 稍后重试\n• 或直接粘贴网页内容后提问")
	return sb.String()
}

// diagnosticMessage builds the conversational failure text for a run.
func diagnosticMessage(mode analyzer.Mode, code chaterrors.Code, err error) string {
	var action string
	switch mode {
	case analyzer.ModeURLFetch:
		action = "获取网页内容"
	case analyzer.ModeWebSearch:
		action = "联网搜索"
	default:
		action = "分析文章内容"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "❌ 抱歉，%s时遇到了问题：%s\n\n💡 您可以尝试：", action, chaterrors.Humanize(err))
	for _, remedy := range chaterrors.Remedies(code) {
		sb.WriteString("\n• ")
		sb.WriteString(remedy)
	}
	return sb.String()
}

// historyMessages keeps only well-formed user/assistant turns.
func historyMessages(history []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		if msg.Role != llm.RoleUser && msg.Role != llm.RoleAssistant {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func truncateChars(text string, maxChars int) string {
	out, _ := textutil.Truncate(text, maxChars, "...")
	return out
}
