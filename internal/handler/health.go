package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

const pingTimeout = 2 * time.Second

// GetHealth handles GET /healthz.
// It returns 200 {"status":"ok"} when the process is up and the store answers,
// and 503 {"status":"unavailable"} when the store does not.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.store.Ping(pingCtx); err != nil {
			s.log.WarnContext(ctx, "health check failed", "error", err)
			s.writeJSON(ctx, w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
	}
	s.writeJSON(ctx, w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetOpenAPI serves the embedded API description.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.cfg.OpenAPI)
}
