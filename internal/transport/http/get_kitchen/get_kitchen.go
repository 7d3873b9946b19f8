package getkitchen

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tableserve/ordersync/internal/service/models/order"
)

type service interface {
	Kitchen() map[order.Status][]order.Order
	FetchError() error
}

type kitchenResponse struct {
	Accepted  []order.Order `json:"accepted"`
	Preparing []order.Order `json:"preparing"`
	Ready     []order.Order `json:"ready"`
	Error     string        `json:"error,omitempty"`
}

// GetKitchen serves the kitchen columns, oldest order first in each. The
// buckets are derived from the single live list on every request.
func GetKitchen(w http.ResponseWriter, r *http.Request, service service) {
	buckets := service.Kitchen()

	resp := kitchenResponse{
		Accepted:  buckets[order.StatusAccepted],
		Preparing: buckets[order.StatusPreparing],
		Ready:     buckets[order.StatusReady],
	}
	if err := service.FetchError(); err != nil {
		resp.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error sending response", "error", err)
	}
}
