package http

import (
	"context"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "not_configured"
	}

	traceMetrics := s.traceMiddleware.GetMetrics()
	limiterMetrics := s.rateLimiter.GetMetrics()
	checks["http"] = map[string]any{
		"requests_total":  traceMetrics.TotalRequests,
		"server_errors":   traceMetrics.ServerErrors,
		"rate_limit_hits": limiterMetrics.TotalHits,
		"active_clients":  limiterMetrics.ClientCount,
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
