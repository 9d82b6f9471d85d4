// Package handler implements the HTTP handlers for the QuickAvail API.
// All handlers are methods on Server. Methods are split into resource files
// (health.go, schedule.go, export.go, admin.go) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickavail/backend/internal/domain"
)

// ScheduleServicer defines the schedule operations the handlers depend on.
// Declared here, in the consumer package, so tests can inject a mock.
type ScheduleServicer interface {
	Create(ctx context.Context, in domain.NewScheduleInput) (domain.Schedule, error)
	Get(ctx context.Context, shareID string) (domain.ScheduleView, error)
	Export(ctx context.Context, shareID string) (domain.Schedule, []domain.ExportRow, error)
}

// AdminServicer defines the key-guarded maintenance operations.
type AdminServicer interface {
	Authorize(key string) error
	Cleanup(ctx context.Context, key string, req domain.CleanupRequest) (domain.CleanupReport, error)
	Report(ctx context.Context, key string) (domain.UsageReport, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the handler-level settings.
type Config struct {
	// BaseURL prefixes share links. Empty means derive from the request.
	BaseURL string
	// Throttle wraps the write and admin routes, typically a rate limiter.
	// Nil applies no throttling.
	Throttle func(http.Handler) http.Handler
	// OpenAPI is served at /openapi.yaml when non-empty.
	OpenAPI []byte
}

// Server serves every API endpoint.
type Server struct {
	schedules ScheduleServicer
	admin     AdminServicer
	store     Pinger
	cfg       Config
	log       *slog.Logger
}

// NewServer constructs the Server with all its dependencies. store may be nil,
// in which case /healthz only reports that the process is up.
func NewServer(schedules ScheduleServicer, admin AdminServicer, store Pinger, cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		schedules: schedules,
		admin:     admin,
		store:     store,
		cfg:       cfg,
		log:       log,
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, Config{}, nil)
}

// Routes returns the API router. Global middleware (request id, logging,
// recovery, CORS, body limits) is applied by the caller.
func (s *Server) Routes() chi.Router {
	throttle := s.cfg.Throttle
	if throttle == nil {
		throttle = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	if len(s.cfg.OpenAPI) > 0 {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/time-slots", s.ListTimeSlots)

		r.Route("/schedules", func(r chi.Router) {
			r.With(throttle).Post("/", s.CreateSchedule)
			r.Get("/{shareId}", s.GetSchedule)
			r.Get("/{shareId}/export", s.ExportSchedule)
		})

		r.With(throttle).Post("/admin/cleanup", s.AdminCleanup)
		r.With(throttle).Get("/analytics/cleanup", s.GetUsageReport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(r.Context(), w, http.StatusNotFound, errorBody("not_found", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorBody("method_not_allowed", "method not allowed"))
	})
	return r
}
