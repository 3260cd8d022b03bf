package server

// displayServerInfo logs the listening address and the protection settings.
func (s *Server) displayServerInfo(addr string, tlsEnabled bool) {
	scheme := "http"
	if tlsEnabled {
		scheme = "https"
	}
	s.logger.Info("Starting HTTP server",
		"address", scheme+"://"+addr,
		"tls_mode", s.cfg.TLS.Mode,
		"endpoints", []string{
			"GET /health", "GET /stats",
			"POST /analyze", "POST /gaps", "POST /prompts/preview",
			"POST /suggestions", "POST /suggestions/{section}/regenerate",
			"GET /sessions/{id}",
		})

	s.displayAuthInfo()
	s.displayLimitInfo()
}

func (s *Server) displayAuthInfo() {
	if len(s.apiKeys) == 0 && s.auth == nil {
		s.logger.Warn("API authentication DISABLED, endpoints are publicly accessible")
		return
	}
	s.logger.Info("API authentication enabled",
		"api_keys", len(s.apiKeys),
		"bearer_tokens", s.auth != nil)
}

func (s *Server) displayLimitInfo() {
	if s.maxRequestSize > 0 {
		s.logger.Info("Request size limit", "bytes", s.maxRequestSize)
	} else {
		s.logger.Warn("No request size limit configured")
	}

	if s.rateLimiter == nil {
		s.logger.Warn("Rate limiting DISABLED")
		return
	}
	s.logger.Info("Rate limiting enabled",
		"requests_per_min", s.cfg.RateLimit.RequestsPerMin,
		"burst", s.cfg.RateLimit.BurstCapacity,
		"by_api_key", s.cfg.RateLimit.ByAPIKey,
		"by_ip", s.cfg.RateLimit.ByIP)
}
