package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/polisight/polisight/internal/activity"
)

// ActivityHandler serves the recent-activity streams.
type ActivityHandler struct {
	activity *activity.Service
	logger   *slog.Logger
}

// NewActivityHandler creates an activity handler.
func NewActivityHandler(activitySvc *activity.Service, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activity: activitySvc, logger: logger}
}

// ActivityResponse wraps an activity listing.
type ActivityResponse struct {
	Activities []activity.Entry `json:"activities"`
	Count      int              `json:"count"`
}

// GetRecent handles GET /api/activity
func (h *ActivityHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = v
	}

	entries, err := h.activity.Recent(r.Context(), r.URL.Query().Get("entity_id"), limit)
	if err != nil {
		h.logger.Error("failed to read activity stream", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ActivityResponse{
		Activities: entries,
		Count:      len(entries),
	})
}
