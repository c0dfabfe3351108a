package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/tracking"
)

type trackingRunner interface {
	Run(ctx context.Context) (tracking.RunStats, error)
}

// TrackingHandler lets an operator trigger a tracking run out of schedule.
type TrackingHandler struct {
	runner trackingRunner
	log    *slog.Logger
}

// NewTrackingHandler creates a TrackingHandler.
func NewTrackingHandler(runner trackingRunner, logger *slog.Logger) *TrackingHandler {
	return &TrackingHandler{runner: runner, log: logger.With("handler", "tracking")}
}

type runResponse struct {
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Duration   string    `json:"duration"`
	Processed  int       `json:"processed"`
	Advanced   int       `json:"advanced"`
	Failed     int       `json:"failed"`
}

// Run handles POST /tracking/run. The run is synchronous; a run already
// holding the lock yields 409.
func (h *TrackingHandler) Run(w http.ResponseWriter, r *http.Request) {
	stats, err := h.runner.Run(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		StartedAt:  stats.StartedAt,
		FinishedAt: stats.FinishedAt,
		Duration:   stats.Duration().String(),
		Processed:  stats.Processed,
		Advanced:   stats.Advanced,
		Failed:     stats.Failed,
	})
}
