package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/tableserve/ordersync/internal/dal/backend"
	"github.com/tableserve/ordersync/internal/service/models/order"
	"github.com/tableserve/ordersync/internal/service/models/stats"
)

// Signal carries needs-refresh escalations to the worker. Request never
// blocks: a pending signal already covers the burst.
type Signal chan struct{}

func NewSignal() Signal {
	return make(Signal, 1)
}

func (s Signal) Request() {
	select {
	case s <- struct{}{}:
	default:
	}
}

// backendClient fetches fresh truth from the café backend.
type backendClient interface {
	FetchSnapshot(ctx context.Context, q backend.SnapshotQuery) ([]order.Order, error)
	FetchStats(ctx context.Context) (stats.Dashboard, error)
}

// feed receives the re-fetched snapshot and aggregates.
type feed interface {
	LoadSnapshot(orders []order.Order)
	SetStats(d stats.Dashboard)
	SetFetchError(err error)
}

// Worker performs full refreshes: it re-fetches the order snapshot and the
// dashboard aggregates whenever incremental patching is insufficient.
// Bursts of signals are debounced into a single fetch.
type Worker struct {
	backend  backendClient
	feed     feed
	signals  Signal
	debounce time.Duration
	query    backend.SnapshotQuery

	stopCh chan struct{}
}

// NewWorker creates a new refresh worker.
func NewWorker(backendClient backendClient, feed feed, signals Signal) *Worker {
	debounceMs := viper.GetInt("refresh.debounce_ms")
	if debounceMs == 0 {
		debounceMs = 2000
	}

	limit := viper.GetInt("refresh.snapshot_limit")
	if limit == 0 {
		limit = 50
	}

	return &Worker{
		backend:  backendClient,
		feed:     feed,
		signals:  signals,
		debounce: time.Duration(debounceMs) * time.Millisecond,
		query: backend.SnapshotQuery{
			Range:  "today",
			Limit:  limit,
			Status: "all",
			Live:   true,
		},
		stopCh: make(chan struct{}),
	}
}

// Request asks for a refresh, satisfying the refresher interfaces of the
// feed service and the side-effect dispatcher.
func (w *Worker) Request() {
	w.signals.Request()
}

// Start performs the initial load and then serves refresh signals until
// stopped. Fetch failures are surfaced to the views as a retryable error
// state; there is no automatic retry loop.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("Refresh worker started", "debounce", w.debounce, "snapshot_limit", w.query.Limit)

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Refresh worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Refresh worker stopped")

			return
		case <-w.signals:
			if !w.settle(ctx) {
				return
			}
			w.refresh(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// settle waits out the debounce window, coalescing further signals. It
// reports false when the worker should exit instead.
func (w *Worker) settle(ctx context.Context) bool {
	timer := time.NewTimer(w.debounce)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-w.stopCh:
			return false
		case <-w.signals:
		case <-timer.C:
			return true
		}
	}
}

// refresh re-fetches the snapshot and the aggregates and republishes them.
func (w *Worker) refresh(ctx context.Context) {
	ctx, span := otel.Tracer("refresh").Start(ctx, "Worker.refresh")
	defer span.End()

	orders, err := w.backend.FetchSnapshot(ctx, w.query)
	if err != nil {
		slog.Error("Snapshot fetch failed", "error", err)
		w.feed.SetFetchError(err)

		return
	}

	dashboard, err := w.backend.FetchStats(ctx)
	if err != nil {
		slog.Error("Stats fetch failed", "error", err)
		w.feed.SetFetchError(err)

		return
	}

	w.feed.LoadSnapshot(orders)
	w.feed.SetStats(dashboard)
	w.feed.SetFetchError(nil)

	slog.Info("Full refresh complete", "orders", len(orders))
}
