package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tableserve/ordersync/internal/service/models/order"
)

func TestClient_FetchSnapshot(t *testing.T) {
	t.Run("fetches and decodes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/orders/cafe/42" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("range") != "today" || q.Get("limit") != "10" || q.Get("status") != "all" || q.Get("live") != "true" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"orders":[{"id":1,"status":"pending","created_at":"2025-06-01T12:00:00Z"}]}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "42")
		orders, err := client.FetchSnapshot(context.Background(), SnapshotQuery{
			Range:  "today",
			Limit:  10,
			Status: "all",
			Live:   true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(orders) != 1 || orders[0].ID != 1 {
			t.Fatalf("unexpected orders: %+v", orders)
		}
	})

	t.Run("non-200 is a fetch error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(server.URL, "42")
		if _, err := client.FetchSnapshot(context.Background(), SnapshotQuery{}); !errors.Is(err, ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
	})
}

func TestClient_FetchStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dashboard/42/today" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"stats":{"revenue":{"value":1250.5,"change":4.2},"orders":{"value":31,"change":-1}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "42")
	dashboard, err := client.FetchStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dashboard.Revenue.Value != 1250.5 || dashboard.Orders.Change != -1 {
		t.Fatalf("unexpected stats: %+v", dashboard)
	}
}

func TestClient_UpdateStatus(t *testing.T) {
	t.Run("sends the patch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch {
				t.Errorf("expected PATCH, got %s", r.Method)
			}
			if r.URL.Path != "/order/7/status" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"status":"accepted"}` {
				t.Errorf("unexpected body: %s", body)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.URL, "42")
		if err := client.UpdateStatus(context.Background(), 7, order.StatusAccepted); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("non-2xx surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "conflict", http.StatusConflict)
		}))
		defer server.Close()

		client := NewClient(server.URL, "42")
		if err := client.UpdateStatus(context.Background(), 7, order.StatusAccepted); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestClient_MarkPaid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/order/9/mark-paid" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "42")
	if err := client.MarkPaid(context.Background(), 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
