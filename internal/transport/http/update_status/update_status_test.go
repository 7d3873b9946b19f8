package updatestatus

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tableserve/ordersync/internal/service/models/order"
	"github.com/tableserve/ordersync/internal/service/services/feedsvc"
)

type fakeService struct {
	err     error
	orderID int64
	status  order.Status
}

func (f *fakeService) ChangeStatus(_ context.Context, orderID int64, to order.Status) error {
	f.orderID = orderID
	f.status = to

	return f.err
}

func newTestRouter(service *fakeService) *chi.Mux {
	router := chi.NewRouter()
	router.Patch("/api/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		UpdateStatus(w, r, service)
	})

	return router
}

func TestUpdateStatus(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		body     string
		err      error
		wantCode int
	}{
		{
			name:     "accepted",
			path:     "/api/orders/7/status",
			body:     `{"status":"preparing"}`,
			wantCode: http.StatusAccepted,
		},
		{
			name:     "bad order id",
			path:     "/api/orders/abc/status",
			body:     `{"status":"preparing"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed body",
			path:     "/api/orders/7/status",
			body:     `{`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown status",
			path:     "/api/orders/7/status",
			body:     `{"status":"vanished"}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "order not found",
			path:     "/api/orders/7/status",
			body:     `{"status":"preparing"}`,
			err:      fmt.Errorf("change status: %w", feedsvc.ErrNotFound),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "illegal transition",
			path:     "/api/orders/7/status",
			body:     `{"status":"completed"}`,
			err:      fmt.Errorf("change status: %w", order.ErrTransition),
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "upstream failure",
			path:     "/api/orders/7/status",
			body:     `{"status":"preparing"}`,
			err:      fmt.Errorf("patch order status: connection refused"),
			wantCode: http.StatusBadGateway,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &fakeService{err: tc.err}
			router := newTestRouter(service)

			req := httptest.NewRequest(http.MethodPatch, tc.path, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d: %s", tc.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateStatus_ForwardsArguments(t *testing.T) {
	service := &fakeService{}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPatch, "/api/orders/42/status", strings.NewReader(`{"status":"ready"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if service.orderID != 42 {
		t.Fatalf("expected order id 42, got %d", service.orderID)
	}
	if service.status != order.StatusReady {
		t.Fatalf("expected ready, got %s", service.status)
	}
}
