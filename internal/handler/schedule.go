package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/quickavail/backend/internal/domain"
)

// CreateScheduleRequest is the body of POST /api/schedules.
type CreateScheduleRequest struct {
	PersonName      string               `json:"personName"`
	PersonEmail     string               `json:"personEmail"`
	SelectedProject string               `json:"selectedProject"`
	Projects        []domain.Project     `json:"projects"`
	SelectedDates   domain.SelectedDates `json:"selectedDates"`
	ExpirationDays  *int                 `json:"expirationDays,omitempty"`
	UserTimezone    string               `json:"userTimezone,omitempty"`
}

// CreateScheduleResponse is returned with 201 once a schedule is stored.
type CreateScheduleResponse struct {
	ShareID        string           `json:"shareId"`
	ShareURL       string           `json:"shareUrl"`
	ExpiresAt      time.Time        `json:"expiresAt"`
	ExpirationDays int              `json:"expirationDays"`
	UserTimezone   string           `json:"userTimezone"`
	Analytics      domain.Analytics `json:"analytics"`
}

// ExpirationResponse is the remaining-lifetime block of a schedule read.
type ExpirationResponse struct {
	DaysUntilExpiration    int64           `json:"daysUntilExpiration"`
	HoursUntilExpiration   int64           `json:"hoursUntilExpiration"`
	MinutesUntilExpiration int64           `json:"minutesUntilExpiration"`
	Stage                  domain.Stage    `json:"stage"`
	Message                string          `json:"message"`
	Warning                *domain.Warning `json:"warning"`
}

// ScheduleResponse is the body of GET /api/schedules/{shareId}.
type ScheduleResponse struct {
	domain.Schedule
	ShareURL   string             `json:"shareUrl"`
	Expiration ExpirationResponse `json:"expiration"`
}

// CreateSchedule handles POST /api/schedules.
func (s *Server) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body CreateScheduleRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeDecodeError(ctx, w, err)
		return
	}

	created, err := s.schedules.Create(ctx, domain.NewScheduleInput{
		PersonName:      body.PersonName,
		PersonEmail:     body.PersonEmail,
		SelectedProject: body.SelectedProject,
		Projects:        body.Projects,
		SelectedDates:   body.SelectedDates,
		ExpirationDays:  body.ExpirationDays,
		UserTimezone:    body.UserTimezone,
	})
	if err != nil {
		s.writeServiceError(ctx, w, err, "schedule not found")
		return
	}

	s.writeJSON(ctx, w, http.StatusCreated, CreateScheduleResponse{
		ShareID:        created.ShareID,
		ShareURL:       s.shareURL(r, created.ShareID),
		ExpiresAt:      created.ExpiresAt,
		ExpirationDays: created.ExpirationDays(),
		UserTimezone:   created.UserTimezone,
		Analytics:      created.Analytics,
	})
}

// GetSchedule handles GET /api/schedules/{shareId}. Each successful read
// counts as a view.
func (s *Server) GetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shareID, err := shareIDParam(r)
	if err != nil {
		s.writeRequestError(ctx, w, err.Error())
		return
	}

	view, err := s.schedules.Get(ctx, shareID)
	if err != nil {
		s.writeServiceError(ctx, w, err, "schedule not found")
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, ScheduleResponse{
		Schedule:   view.Schedule,
		ShareURL:   s.shareURL(r, view.Schedule.ShareID),
		Expiration: expirationToResponse(view.Remaining()),
	})
}

// ListTimeSlots handles GET /api/time-slots.
func (s *Server) ListTimeSlots(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, domain.QuickTimeSlots())
}

// --- helpers -----------------------------------------------------------------

var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads a single JSON object from the request body. Unknown fields
// are ignored so older clients keep working.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	var maxErr *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return errors.New("request body is required")
	case errors.As(err, &maxErr):
		return errBodyTooLarge
	default:
		return errors.New("request body must be valid JSON")
	}
}

// shareIDParam binds the {shareId} path segment.
func shareIDParam(r *http.Request) (string, error) {
	var shareID string
	err := runtime.BindStyledParameterWithOptions("simple", "shareId", chi.URLParam(r, "shareId"), &shareID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(shareID) == "" {
		return "", errors.New("shareId is required")
	}
	return shareID, nil
}

// shareURL builds the public link for id. Without a configured base URL the
// origin is taken from the request, honouring X-Forwarded-Proto behind a proxy.
func (s *Server) shareURL(r *http.Request, id string) string {
	base := s.cfg.BaseURL
	if base == "" {
		scheme := r.Header.Get("X-Forwarded-Proto")
		if scheme == "" {
			scheme = "http"
			if r.TLS != nil {
				scheme = "https"
			}
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimSuffix(base, "/") + "/share/" + id
}

func expirationToResponse(rem domain.Remaining) ExpirationResponse {
	return ExpirationResponse{
		DaysUntilExpiration:    rem.Days,
		HoursUntilExpiration:   rem.Hours,
		MinutesUntilExpiration: rem.Minutes,
		Stage:                  rem.Stage(),
		Message:                rem.Message(),
		Warning:                rem.Warning(),
	}
}
