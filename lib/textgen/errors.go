package textgen

import (
	"errors"
	"strings"

	"github.com/openai/openai-go/v2"
)

// ContainsAnyPattern reports whether the error message matches any of the
// given lowercase substrings. Provider errors are stringly-typed across
// vendors, substring matching is the only classification that works for
// all of them.
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

func IsTimeoutError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"timeout",
		"timed out",
		"deadline exceeded",
		"408",
		"504",
	})
}

func IsOverloadedError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"overloaded",
		"resource_exhausted",
		"service unavailable",
		"503",
	})
}

func IsBillingError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"402",
		"payment required",
		"insufficient credits",
		"credit balance",
		"exceeded your current quota",
		"quota exceeded",
		"billing",
	})
}

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
		"unauthorized",
		"forbidden",
	})
}

func IsRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 {
			return true
		}
	}
	return ContainsAnyPattern(err, []string{
		"rate limit",
		"rate_limit_exceeded",
		"too many requests",
	})
}

// UserFacingMessage flattens a provider error into one sentence fit for an
// end user. The raw error stays in logs and traces only.
func UserFacingMessage(err error) string {
	switch {
	case IsBillingError(err):
		return "There's a billing issue with the AI provider. Check your account or credits."
	case IsRateLimitError(err):
		return "You're sending requests too quickly. Wait a moment, then try again."
	case IsOverloadedError(err):
		return "The AI service is busy right now. Try again in a moment."
	case IsTimeoutError(err):
		return "The request timed out. Try again."
	case IsAuthError(err):
		return "Authentication failed. Check your API key."
	default:
		return "The AI provider returned an error. Try again later."
	}
}
