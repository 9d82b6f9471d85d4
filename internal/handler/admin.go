package handler

import (
	"net/http"

	"github.com/quickavail/backend/internal/domain"
	"github.com/quickavail/backend/internal/middleware"
)

// CleanupRequest is the body of POST /api/admin/cleanup.
// DryRun defaults to true and DaysOld to 30 when omitted.
type CleanupRequest struct {
	AdminKey string `json:"adminKey"`
	Action   string `json:"action"`
	DryRun   *bool  `json:"dryRun,omitempty"`
	DaysOld  *int   `json:"daysOld,omitempty"`
}

// AdminCleanup handles POST /api/admin/cleanup.
func (s *Server) AdminCleanup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body CleanupRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeDecodeError(ctx, w, err)
		return
	}

	// The key is checked before the action so an unauthorised caller learns
	// nothing about which actions exist.
	if err := s.admin.Authorize(body.AdminKey); err != nil {
		s.writeServiceError(ctx, w, err, "")
		return
	}
	action, err := domain.ParseCleanupAction(body.Action)
	if err != nil {
		s.writeServiceError(ctx, w, err, "")
		return
	}

	req := domain.CleanupRequest{Action: action, DryRun: true, DaysOld: domain.DefaultDaysOld}
	if body.DryRun != nil {
		req.DryRun = *body.DryRun
	}
	if body.DaysOld != nil {
		req.DaysOld = *body.DaysOld
	}

	report, err := s.admin.Cleanup(ctx, body.AdminKey, req)
	if err != nil {
		s.writeServiceError(ctx, w, err, "")
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, report)
}

// GetUsageReport handles GET /api/analytics/cleanup. The admin key travels in
// the X-Admin-Key header.
func (s *Server) GetUsageReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := s.admin.Report(ctx, r.Header.Get(middleware.AdminKeyHeader))
	if err != nil {
		s.writeServiceError(ctx, w, err, "")
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, report)
}
