package ai

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"atsoptimizer/internal/config"
	"atsoptimizer/internal/errors"
)

// statusCode extracts the HTTP status of a provider error, or 0.
func statusCode(err error) int {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return genaiErr.Code
	}
	return 0
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Network errors (timeouts, refused connections) are transient
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	switch statusCode(err) {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// classifyProviderError maps a failed model call onto the LLM error codes.
func classifyProviderError(op config.Operation, err error) *errors.AppError {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.As(err, &netErr) && netErr.Timeout():
		appErr = errors.NewLLMTimeoutError("Model call timed out for "+string(op), err)
	case statusCode(err) == http.StatusTooManyRequests:
		appErr = errors.NewRateLimitedError("Model provider is throttling "+string(op)+" requests", err)
	case statusCode(err) == http.StatusGatewayTimeout:
		appErr = errors.NewLLMTimeoutError("Model provider timed out for "+string(op), err)
	case isBreakerRejection(err):
		appErr = errors.NewLLMError("Circuit breaker is open for "+string(op), err).
			WithContext("circuit", "open")
	default:
		appErr = errors.NewLLMError("Failed to generate content for "+string(op), err)
	}
	return appErr.WithContext("operation", string(op))
}
