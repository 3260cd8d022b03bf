package server

import (
	"net/http"
	"strings"

	"atsoptimizer/internal/errors"
)

// Handler returns the API with its middleware chain: tracing, then rate
// limiting, authentication and the request size limit per endpoint.
func (s *Server) Handler() http.Handler {
	return s.obs.HTTPMiddleware()(s.setupRoutes())
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware(s.authMiddleware(s.requestSizeLimitMiddleware(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /analyze", protected(s.analyzeHandler))
	mux.HandleFunc("POST /gaps", protected(s.gapsHandler))
	mux.HandleFunc("POST /prompts/preview", protected(s.promptPreviewHandler))
	mux.HandleFunc("POST /suggestions", protected(s.suggestionsHandler))
	mux.HandleFunc("POST /suggestions/{section}/regenerate", protected(s.regenerateHandler))
	mux.HandleFunc("GET /sessions/{id}", protected(s.sessionHandler))

	return mux
}

// authMiddleware accepts a configured API key (X-API-Key or bearer) or a
// signed bearer token. With no keys and no token secret configured every
// request passes.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	if len(s.apiKeys) == 0 && s.auth == nil {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-API-Key"); key != "" {
			if s.apiKeys[key] {
				next(w, r)
				return
			}
			s.unauthorized(w, r, "invalid API key", maskAPIKey(key))
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			s.unauthorized(w, r, "missing credentials", "")
			return
		}
		if s.apiKeys[token] {
			next(w, r)
			return
		}
		if s.auth == nil {
			s.unauthorized(w, r, "invalid API key", maskAPIKey(token))
			return
		}

		userID, err := s.auth.Verify(token)
		if err != nil {
			s.logger.Debug("Bearer token rejected", "error", err.Error())
			s.unauthorized(w, r, "invalid token", "")
			return
		}
		next(w, r.WithContext(withUser(r.Context(), userID)))
	}
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, reason, maskedKey string) {
	s.logger.Info("Unauthorized request",
		"reason", reason,
		"api_key", maskedKey,
		"endpoint", r.URL.Path,
		"client_ip", clientIP(r))
	writeErrorResponse(w, http.StatusUnauthorized, ErrorResponse{
		Error:   "Unauthorized",
		Message: reason,
		Code:    errors.ErrCodeUnauthorized,
	})
}

// maskAPIKey keeps only the first and last four characters for logging.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// requestSizeLimitMiddleware limits the request body size
func (s *Server) requestSizeLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	if s.maxRequestSize <= 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestSize)
		next(w, r)
	}
}
