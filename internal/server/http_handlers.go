package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"atsoptimizer/internal/errors"
)

// healthHandler reports model availability, breaker state and store
// reachability. Any unavailable dependency degrades the status to 503.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "atsoptimizer",
		"version": s.version,
	}
	healthy := true

	if s.models != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeoutOr(s.health.AIModelCheckTimeout, 10*time.Second))
		models := s.models.GetModelInfo(ctx)
		cancel()

		response["ai_models"] = models
		for _, info := range models {
			if info == nil || !info.Available {
				healthy = false
			}
		}
		response["circuit_breakers"] = s.models.GetCircuitBreakerStats()
	}

	if s.backend != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeoutOr(s.health.Timeout, 5*time.Second))
		err := s.backend.Ping(ctx)
		cancel()

		store := map[string]any{"available": err == nil}
		if err != nil {
			store["error"] = err.Error()
			healthy = false
		}
		response["store"] = store
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "atsoptimizer",
		"version": s.version,
		"server": map[string]any{
			"max_request_size_bytes": s.maxRequestSize,
			"api_keys":               len(s.apiKeys),
			"bearer_tokens":          s.auth != nil,
		},
	}

	if s.rateLimiter != nil {
		response["rate_limiting"] = s.rateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}
	response["rate_limit_config"] = map[string]any{
		"enabled":          s.cfg.RateLimit.Enabled,
		"requests_per_min": s.cfg.RateLimit.RequestsPerMin,
		"burst_capacity":   s.cfg.RateLimit.BurstCapacity,
		"by_ip":            s.cfg.RateLimit.ByIP,
		"by_api_key":       s.cfg.RateLimit.ByAPIKey,
	}

	if s.models != nil {
		response["circuit_breakers"] = s.models.GetCircuitBreakerStats()
	}
	if s.backend != nil {
		response["store"] = s.backend.Stats()
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes the JSON body into v. Failures are validation
// errors, except an oversized body which is REQUEST_TOO_LARGE.
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeValidation, "content-type must be application/json", err)
	}

	body, err := io.ReadAll(r.Body)
	defer func() {
		if cerr := r.Body.Close(); cerr != nil {
			log.Printf("Failed to close request body: %v", cerr)
		}
	}()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return errors.NewValidationError(errors.ErrCodeRequestTooLarge,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read request body", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeValidation, "failed to parse JSON", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, status int, resp ErrorResponse) {
	writeJSON(w, status, resp)
}
