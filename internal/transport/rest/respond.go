package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

type errorResponse struct {
	Error   string              `json:"error"`
	Fields  []fieldErrorJSON    `json:"fields,omitempty"`
	Checks  []checkFailureJSON  `json:"failedChecks,omitempty"`
	Details *transitionFailJSON `json:"transition,omitempty"`
}

type fieldErrorJSON struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type checkFailureJSON struct {
	Code        string `json:"failureCode"`
	Description string `json:"failureDescription"`
}

type transitionFailJSON struct {
	Name       string         `json:"name"`
	FromStatus string         `json:"fromStatus"`
	Message    string         `json:"message"`
	AuditData  map[string]any `json:"auditData,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors to HTTP responses. Unknown errors are
// logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		checks     *domain.ChecksFailure
		validation *domain.ValidationError
		transition *domain.TransitionError
	)

	switch {
	case errors.As(err, &checks):
		resp := errorResponse{Error: "preflight checks failed"}
		for _, f := range checks.Failures {
			resp.Checks = append(resp.Checks, checkFailureJSON{Code: f.FailureCode, Description: f.FailureDescription})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.As(err, &validation):
		resp := errorResponse{Error: "validation failed"}
		for _, f := range validation.Errors {
			resp.Fields = append(resp.Fields, fieldErrorJSON{Field: f.Field, Message: f.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.As(err, &transition):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "transition failed",
			Details: &transitionFailJSON{
				Name:       transition.Transition,
				FromStatus: transition.FromStatus.String(),
				Message:    transition.Message,
				AuditData:  transition.AuditData,
			},
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "tracking run already in progress")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requestID parses the {id} route parameter.
func requestID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid patron request id")
		return uuid.Nil, false
	}
	return id, true
}
