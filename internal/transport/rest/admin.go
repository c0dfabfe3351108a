package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

type statusCounter interface {
	StatusCounts(ctx context.Context) (map[domain.Status]int, error)
}

// AdminHandler serves admin-only REST endpoints.
type AdminHandler struct {
	requests statusCounter
	log      *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(requests statusCounter, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		requests: requests,
		log:      logger.With("handler", "admin"),
	}
}

type statusCountResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// RequestStats returns the number of patron requests in each status, in
// lifecycle order.
// GET /admin/requests/stats
func (h *AdminHandler) RequestStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.requests.StatusCounts(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	resp := make([]statusCountResponse, 0, len(domain.AllStatuses))
	for _, st := range domain.AllStatuses {
		resp = append(resp, statusCountResponse{Status: st.String(), Count: counts[st]})
	}
	writeJSON(w, http.StatusOK, resp)
}
