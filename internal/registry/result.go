package registry

import "time"

// ErrorCode classifies a failed invocation
type ErrorCode string

const (
	// CodeNotFound means the tool id is not registered (non-retryable)
	CodeNotFound ErrorCode = "not_found"
	// CodeUnauthorized means the access policy denies the caller (non-retryable)
	CodeUnauthorized ErrorCode = "unauthorized"
	// CodeRateLimited means the sliding window is exceeded (retryable)
	CodeRateLimited ErrorCode = "rate_limited"
	// CodeValidationError means the input is malformed or unsafe (non-retryable)
	CodeValidationError ErrorCode = "validation_error"
	// CodeUpstreamError means the tool server call failed (retryable when transient)
	CodeUpstreamError ErrorCode = "upstream_error"
)

// InvocationResult is the structured envelope every Invoke call returns.
// Failures never propagate as Go errors past the registry boundary; callers
// branch on OK.
type InvocationResult struct {
	OK         bool
	Output     map[string]any
	Code       ErrorCode
	Message    string
	Retryable  bool
	RetryAfter time.Duration
}

func success(output map[string]any) InvocationResult {
	return InvocationResult{OK: true, Output: output}
}

func failure(code ErrorCode, message string, retryable bool) InvocationResult {
	return InvocationResult{Code: code, Message: message, Retryable: retryable}
}

func rateLimited(message string, retryAfter time.Duration) InvocationResult {
	return InvocationResult{
		Code:       CodeRateLimited,
		Message:    message,
		Retryable:  true,
		RetryAfter: retryAfter,
	}
}
