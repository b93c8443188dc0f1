package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"pocketdrop/internal/models"
)

type activityResponse struct {
	Connections int64                   `json:"connections"`
	Transfers   []models.TransferRecord `json:"transfers"`
}

// Activity returns the connection counter and the most recent transfer
// records. With history disabled, or when the store is unreachable, the
// transfer list is empty and the counter still reports.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	records, err := h.history.Recent(r.Context(), h.recentLimit)
	if err != nil {
		h.logger.Warn("history read failed", zap.Error(err))
		records = nil
	}
	if records == nil {
		records = []models.TransferRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(activityResponse{
		Connections: h.recorder.Connections(),
		Transfers:   records,
	})
}
