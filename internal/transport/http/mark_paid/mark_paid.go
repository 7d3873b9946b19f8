package markpaid

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type service interface {
	MarkPaid(ctx context.Context, orderID int64) error
}

// MarkPaid forwards a payment confirmation upstream. The authoritative paid
// flag arrives through the push channel, not this response.
func MarkPaid(w http.ResponseWriter, r *http.Request, service service) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	if err := service.MarkPaid(r.Context(), orderID); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		slog.Error("Error marking order paid", "order_id", orderID, "error", err)

		return
	}

	w.WriteHeader(http.StatusAccepted)
}
