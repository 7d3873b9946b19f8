package getstats

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tableserve/ordersync/internal/service/models/stats"
)

type service interface {
	Stats() stats.Dashboard
}

// GetStats serves the cached dashboard aggregates from the last refresh.
func GetStats(w http.ResponseWriter, r *http.Request, service service) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(service.Stats()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error sending response", "error", err)
	}
}
