package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/quickavail/backend/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// writeJSON encodes payload with the given status.
func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeRequestError rejects a request before it reaches the service layer
// (e.g. missing or malformed body).
func (s *Server) writeRequestError(ctx context.Context, w http.ResponseWriter, message string) {
	s.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorBody("validation_error", message))
}

// writeDecodeError reports a body that could not be decoded.
func (s *Server) writeDecodeError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		s.writeJSON(ctx, w, http.StatusRequestEntityTooLarge, errorBody("request_too_large", err.Error()))
		return
	}
	s.writeRequestError(ctx, w, err.Error())
}

// writeServiceError maps a domain sentinel to its status code. notFound is
// the message for a missing resource, since only the handler knows what was
// being looked up.
func (s *Server) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		s.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorBody("validation_error", unwrapMessage(err)))
	case errors.Is(err, domain.ErrNotFound):
		s.writeJSON(ctx, w, http.StatusNotFound, errorBody("not_found", notFound))
	case errors.Is(err, domain.ErrExpired):
		s.writeJSON(ctx, w, http.StatusGone, errorBody("expired", "this schedule has expired"))
	case errors.Is(err, domain.ErrUnauthorized):
		s.writeJSON(ctx, w, http.StatusUnauthorized, errorBody("unauthorized", "invalid admin key"))
	case errors.Is(err, domain.ErrConflict):
		s.writeJSON(ctx, w, http.StatusConflict, errorBody("conflict", "share id collision, please retry"))
	default:
		s.log.ErrorContext(ctx, "request failed", "error", err)
		s.writeJSON(ctx, w, http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
	}
}

// unwrapMessage extracts the human-readable part from a wrapped validation error.
// e.g. "service.ScheduleService.Create: validation error: personName is required" → "personName is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 && i+len(marker) < len(msg) {
		return msg[i+len(marker):]
	}
	return msg
}
