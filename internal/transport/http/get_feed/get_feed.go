package getfeed

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/tableserve/ordersync/internal/service/models/order"
)

type service interface {
	Dashboard() []order.Order
	FetchError() error
}

type feedQuery struct {
	Limit int `schema:"limit,omitempty"`
}

type feedResponse struct {
	Orders []order.Order `json:"orders"`
	Error  string        `json:"error,omitempty"`
}

// GetFeed serves the newest-first live order list of the dashboard view.
// A failed snapshot fetch is reported alongside the last known list so the
// client can show a retryable error banner.
func GetFeed(w http.ResponseWriter, r *http.Request, service service) {
	decoder := schema.NewDecoder()
	query := &feedQuery{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request", "error", err)

		return
	}

	orders := service.Dashboard()
	if query.Limit > 0 && query.Limit < len(orders) {
		orders = orders[:query.Limit]
	}

	resp := feedResponse{Orders: orders}
	if err := service.FetchError(); err != nil {
		resp.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error sending response", "error", err)
	}
}
