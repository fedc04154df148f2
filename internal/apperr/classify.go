package apperr

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
)

// Classify maps a raw LLM failure onto a rate-limit, network or auth kind by
// inspecting the error text. Matching is best effort. Non-LLM errors and
// already-classified errors are returned unchanged. The failing stage, when
// err is a pipeline error, is kept on the result.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindValidation, KindConfiguration, KindFileOperation,
		KindRateLimit, KindNetwork, KindAuth:
		return err
	}

	cause := err
	var pe *Error
	if errors.As(err, &pe) && pe.Kind == KindPipeline && pe.Err != nil {
		cause = pe.Err
	}
	classified := classifyText(cause)
	if stage := StageOf(err); stage != "" {
		return Pipeline(stage, classified)
	}
	return classified
}

// rateLimitStatus matches a 429 reported as a status or error code, such as
// "status 429" from the wire clients or "Error 429," from genai.
var rateLimitStatus = regexp.MustCompile(`\b(status|error|code)[\s:=]*429\b`)

func classifyText(err error) *Error {
	msg := strings.ToLower(err.Error())
	switch {
	case rateLimitStatus.MatchString(msg) ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests"):
		return &Error{
			Kind:    KindRateLimit,
			Message: "API rate limit exceeded",
			Hint:    "You've hit the API rate limit. Wait a moment and try again.",
			Status:  http.StatusTooManyRequests,
			Err:     err,
		}
	case errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "connection") ||
		strings.Contains(msg, "timeout"):
		return &Error{
			Kind:    KindNetwork,
			Message: "Network error: could not reach the API",
			Hint:    "Check your internet connection and try again",
			Err:     err,
		}
	case strings.Contains(msg, "api key") ||
		strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "status 401") ||
		strings.Contains(msg, "unauthorized"):
		return &Error{
			Kind:    KindAuth,
			Message: "API key missing or rejected",
			Hint:    "Provide the key via configuration, the --api-key flag or the provider's environment variable",
			Status:  http.StatusUnauthorized,
			Err:     err,
		}
	default:
		return &Error{
			Kind:    KindLLM,
			Message: "Agent processing failed",
			Hint:    "Try running with --verbose to see more details",
			Err:     err,
		}
	}
}
