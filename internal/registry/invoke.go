package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/encoding/json"

	"github.com/repoaudit/coordinator/internal/policy"
	"github.com/repoaudit/coordinator/internal/trace"
)

// Invoke executes the full invocation pipeline for one tool call: lookup,
// policy check, rate check, input sanitization, the bounded external call,
// and output redaction. It never returns a Go error; every failure is a
// tagged non-success result. Exactly one tool-kind span is recorded per
// invocation, nested under the caller's current span.
func (r *Registry) Invoke(
	ctx context.Context,
	toolID, method string,
	params map[string]any,
	callerID, sessionID string,
) InvocationResult {
	// Sanitize first so the span snapshot never holds raw input; a
	// traversal hit still records the scrubbed copy for forensics.
	sanitized, sanitizeErr := policy.SanitizeParams(params)

	spanID := r.tracer.StartSpan(
		sessionID,
		trace.SpanFromContext(ctx),
		trace.ComponentTool,
		toolID,
		method,
		sanitized,
		map[string]string{"caller": callerID},
	)

	result := r.invokePipeline(ctx, toolID, method, sanitized, sanitizeErr, callerID, sessionID)

	if result.OK {
		r.tracer.EndSpan(spanID, result.Output, nil)
	} else {
		r.tracer.EndSpan(spanID, nil, fmt.Errorf("%s: %s", result.Code, result.Message))
	}

	r.logInvocation(ctx, toolID, method, callerID, sessionID, result)
	return result
}

func (r *Registry) invokePipeline(
	ctx context.Context,
	toolID, method string,
	params map[string]any,
	sanitizeErr error,
	callerID, sessionID string,
) InvocationResult {
	def, ok := r.Get(toolID)
	if !ok {
		return failure(CodeNotFound, fmt.Sprintf("unknown tool: %s", toolID), false)
	}

	if !r.policy.Allowed(callerID, toolID) {
		return failure(CodeUnauthorized,
			fmt.Sprintf("caller %s is not permitted to invoke %s", callerID, toolID), false)
	}

	if admitted, retryAfter := r.limiter.Allow(toolID, sessionID); !admitted {
		return rateLimited(
			fmt.Sprintf("rate limit exceeded for %s", toolID), retryAfter)
	}

	var traversal *policy.ErrTraversal
	if errors.As(sanitizeErr, &traversal) {
		return failure(CodeValidationError, traversal.Error(), false)
	}
	if sanitizeErr != nil {
		return failure(CodeValidationError, sanitizeErr.Error(), false)
	}

	if gate := r.gate(toolID); gate != nil {
		if err := gate.Acquire(ctx, 1); err != nil {
			return failure(CodeUpstreamError,
				fmt.Sprintf("waiting for %s concurrency slot: %v", toolID, err), true)
		}
		defer gate.Release(1)
	}

	output, result := r.callWithRetry(ctx, def, method, params)
	if !result.OK {
		return result
	}

	redacted, ok := policy.RedactOutput(output).(map[string]any)
	if !ok {
		redacted = map[string]any{}
	}
	return success(redacted)
}

// callWithRetry runs the wire call, backing off and re-issuing it on
// transient upstream failures per the configured policy. All attempts stay
// inside the invocation's single tool span.
func (r *Registry) callWithRetry(
	ctx context.Context,
	def Definition,
	method string,
	params map[string]any,
) (map[string]any, InvocationResult) {
	output, result := r.callTool(ctx, def, method, params)
	for attempt := 0; attempt < r.retryPolicy.MaxRetries; attempt++ {
		if result.OK || !result.Retryable || result.Code != CodeUpstreamError {
			break
		}
		r.logger.Debug("retrying tool call",
			"tool_id", def.ID,
			"method", method,
			"attempt", attempt+1,
			"error", result.Message,
		)
		select {
		case <-ctx.Done():
			return nil, failure(CodeUpstreamError,
				fmt.Sprintf("call %s: %v", def.ID, ctx.Err()), false)
		case <-time.After(r.retryPolicy.Delay(attempt)):
		}
		output, result = r.callTool(ctx, def, method, params)
	}
	return output, result
}

// callTool performs the wire call: POST {endpoint}/{method} with a JSON
// parameter body under the per-call timeout.
func (r *Registry) callTool(
	ctx context.Context,
	def Definition,
	method string,
	params map[string]any,
) (map[string]any, InvocationResult) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, failure(CodeValidationError, fmt.Sprintf("encode params: %v", err), false)
	}

	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	url := strings.TrimSuffix(def.Endpoint, "/") + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, failure(CodeUpstreamError, fmt.Sprintf("build request: %v", err), false)
	}
	req.Header.Set("Content-Type", "application/json")
	if def.Auth != nil && def.Auth.Header != "" {
		req.Header.Set(def.Auth.Header, def.Auth.Token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		// Transport failures and call-timeout expiry are transient
		return nil, failure(CodeUpstreamError, fmt.Sprintf("call %s: %v", def.ID, err), true)
	}
	defer resp.Body.Close()

	if code := resp.StatusCode; code < 200 || code >= 300 {
		retryable := code == http.StatusTooManyRequests || code >= 500
		return nil, failure(CodeUpstreamError,
			fmt.Sprintf("tool %s returned status %d", def.ID, code), retryable)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure(CodeUpstreamError, fmt.Sprintf("read response from %s: %v", def.ID, err), true)
	}

	var output map[string]any
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, failure(CodeUpstreamError,
			fmt.Sprintf("tool %s returned malformed JSON: %v", def.ID, err), false)
	}
	return output, success(nil)
}

// logInvocation writes the audit record for one tool call
func (r *Registry) logInvocation(
	ctx context.Context,
	toolID, method, callerID, sessionID string,
	result InvocationResult,
) {
	if result.OK {
		r.logger.InfoContext(ctx, "tool_call",
			"session_id", sessionID,
			"caller_id", callerID,
			"tool_id", toolID,
			"method", method,
			"success", true,
		)
		return
	}
	r.logger.WarnContext(ctx, "tool_call",
		"session_id", sessionID,
		"caller_id", callerID,
		"tool_id", toolID,
		"method", method,
		"success", false,
		"code", string(result.Code),
		"retryable", result.Retryable,
		"error", result.Message,
	)
}
