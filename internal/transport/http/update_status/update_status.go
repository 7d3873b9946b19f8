package updatestatus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tableserve/ordersync/internal/service/models/order"
	"github.com/tableserve/ordersync/internal/service/services/feedsvc"
)

type service interface {
	ChangeStatus(ctx context.Context, orderID int64, to order.Status) error
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles a user-driven status change: it validates the
// transition, applies it optimistically and forwards it upstream. The
// confirmed state arrives through the push channel.
func UpdateStatus(w http.ResponseWriter, r *http.Request, service service) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request", "error", err)

		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)

		return
	}

	if err := service.ChangeStatus(r.Context(), orderID, status); err != nil {
		switch {
		case errors.Is(err, feedsvc.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, order.ErrTransition):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			http.Error(w, err.Error(), http.StatusBadGateway)
			slog.Error("Error updating order status", "order_id", orderID, "error", err)
		}

		return
	}

	w.WriteHeader(http.StatusAccepted)
}
