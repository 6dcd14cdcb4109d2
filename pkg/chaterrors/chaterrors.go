// Package chaterrors classifies LLM and network failures into stable codes
// with user-facing messages. Providers return wildly different error shapes;
// everything user-visible goes through here.
package chaterrors

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"

	"github.com/stella-dust/blogreader/pkg/textutil"
)

type Code string

const (
	CodeCanceled       Code = "canceled"
	CodeTimeout        Code = "timeout"
	CodeRateLimited    Code = "rate_limited"
	CodeAuthFailed     Code = "auth_failed"
	CodeBilling        Code = "billing"
	CodeOverloaded     Code = "overloaded"
	CodeContextTooLong Code = "context_too_long"
	CodeModelNotFound  Code = "model_not_found"
	CodeNetwork        Code = "network"
	CodeServerError    Code = "server_error"
	CodeUnknown        Code = "unknown"
)

var humanMessages = map[Code]string{
	CodeCanceled:       "请求已取消",
	CodeTimeout:        "请求超时，请稍后重试",
	CodeRateLimited:    "请求过于频繁，请稍等片刻再试",
	CodeAuthFailed:     "认证失败，请检查 API Key 是否正确",
	CodeBilling:        "账户余额不足或配额已用完，请检查您的账户",
	CodeOverloaded:     "AI 服务当前繁忙，请稍后重试",
	CodeContextTooLong: "内容过长，超出了模型的上下文限制",
	CodeModelNotFound:  "所选模型不可用，请更换模型",
	CodeNetwork:        "网络连接失败，请检查网络设置",
	CodeServerError:    "AI 服务返回错误，请稍后重试",
	CodeUnknown:        "发生未知错误，请重试",
}

var remedies = map[Code][]string{
	CodeTimeout:        {"检查网络连接是否稳定", "稍后重试"},
	CodeRateLimited:    {"等待一分钟后再试", "降低请求频率"},
	CodeAuthFailed:     {"在设置中检查 API Key", "确认 Base URL 配置正确"},
	CodeBilling:        {"检查服务商账户的余额或配额"},
	CodeOverloaded:     {"稍等片刻后重试", "或切换到其他模型服务"},
	CodeContextTooLong: {"减少输入内容的长度", "或切换到支持更长上下文的模型"},
	CodeModelNotFound:  {"在设置中选择其他模型", "本地服务请确认模型已加载"},
	CodeNetwork:        {"检查网络连接", "本地服务请确认已启动"},
	CodeServerError:    {"稍后重试", "问题持续时请切换模型服务"},
	CodeUnknown:        {"重试一次", "问题持续时请检查 LLM 配置"},
}

// Classify maps an error to a stable code. Context cancellation takes
// precedence over everything else so aborted runs never surface as
// provider failures.
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}
	if IsBillingError(err) {
		return CodeBilling
	}
	if IsOverloadedError(err) {
		return CodeOverloaded
	}
	if IsTimeoutError(err) {
		return CodeTimeout
	}
	if IsRateLimitError(err) {
		return CodeRateLimited
	}
	if IsAuthError(err) {
		return CodeAuthFailed
	}
	if IsContextTooLongError(err) {
		return CodeContextTooLong
	}
	if IsModelNotFoundError(err) {
		return CodeModelNotFound
	}
	if IsNetworkError(err) {
		return CodeNetwork
	}
	if IsServerError(err) {
		return CodeServerError
	}
	return CodeUnknown
}

// Humanize returns a user-facing message for an error.
func Humanize(err error) string {
	code := Classify(err)
	if code != CodeUnknown {
		return humanMessages[code]
	}
	msg := strings.TrimSpace(err.Error())
	msg, _ = textutil.Truncate(msg, 200, "...")
	if msg == "" {
		return humanMessages[CodeUnknown]
	}
	return msg
}

// Remedies returns suggested next steps for an error code.
func Remedies(code Code) []string {
	if steps, ok := remedies[code]; ok {
		return steps
	}
	return remedies[CodeUnknown]
}

// IsCanceled reports whether the error comes from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsRateLimitError checks for rate limit (429) errors.
func IsRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if strings.EqualFold(apiErr.Code, "rate_limit_exceeded") {
			return true
		}
		if apiErr.StatusCode == 429 {
			return true
		}
	}
	return ContainsAnyPattern(err, []string{
		"rate limit",
		"rate_limit",
		"too many requests",
		"resource_exhausted",
	})
}

// IsAuthError checks for authentication (401/403) errors.
func IsAuthError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
			return true
		}
	}
	return ContainsAnyPattern(err, []string{
		"invalid api key",
		"invalid_api_key",
		"incorrect api key",
		"invalid token",
		"unauthorized",
		"forbidden",
		"access denied",
		"authentication",
	})
}

// IsBillingError checks for billing/payment (402) errors.
func IsBillingError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"402",
		"payment required",
		"insufficient credits",
		"credit balance",
		"exceeded your current quota",
		"quota exceeded",
		"billing",
		"insufficient balance",
	})
}

// IsOverloadedError checks whether the service reports overload.
func IsOverloadedError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"overloaded_error",
		"overloaded",
		"service unavailable",
		"503",
	})
}

// IsTimeoutError checks for timeout errors.
func IsTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return ContainsAnyPattern(err, []string{
		"timeout",
		"timed out",
		"deadline exceeded",
		"408",
		"504",
	})
}

// IsContextTooLongError checks for context window overflow errors.
func IsContextTooLongError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"context length",
		"context_length",
		"prompt is too long",
		"request too large",
		"request_too_large",
		"maximum context",
		"exceeds model context window",
	})
}

// IsModelNotFoundError checks for model not found (404) errors.
func IsModelNotFoundError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return ContainsAnyPattern(err, []string{
		"model not found",
		"model_not_found",
		"does not exist",
	})
}

// IsNetworkError checks for connection-level failures.
func IsNetworkError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"connection refused",
		"connection reset",
		"no such host",
		"dial tcp",
		"network is unreachable",
		"econnrefused",
	})
}

// IsServerError checks for server-side (5xx) errors.
func IsServerError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if strings.EqualFold(apiErr.Code, "server_error") {
			return true
		}
		return apiErr.StatusCode >= 500
	}
	return ContainsAnyPattern(err, []string{
		"internal server error",
		"500",
		"502",
	})
}

// ContainsAnyPattern checks if the lowercased error message contains any of
// the given patterns.
func ContainsAnyPattern(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range patterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
