package feedsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tableserve/ordersync/internal/service/models/event"
	"github.com/tableserve/ordersync/internal/service/models/order"
	"github.com/tableserve/ordersync/internal/service/models/stats"
)

// ErrNotFound is returned for actions on orders absent from the live feed.
var ErrNotFound = errors.New("order not in live feed")

// dispatcher decides auxiliary actions per event, independent of how the
// list is mutated.
type dispatcher interface {
	Dispatch(ctx context.Context, ev event.Event, needsRefresh bool)
}

// backendClient forwards user actions upstream. Confirmation arrives via the
// push channel, never the HTTP response body.
type backendClient interface {
	UpdateStatus(ctx context.Context, orderID int64, status order.Status) error
	MarkPaid(ctx context.Context, orderID int64) error
}

type refresher interface {
	Request()
}

// FeedService owns the reconciled views of a café's live orders. All
// mutation funnels through HandleEvent, LoadSnapshot and the action methods;
// a single lock serializes them against render reads.
type FeedService struct {
	mu        sync.RWMutex
	dashboard *Reconciler
	kitchen   *Reconciler
	stats     stats.Dashboard
	fetchErr  error

	dispatcher dispatcher
	backend    backendClient
	refresher  refresher

	eventsApplied metric.Int64Counter
}

// option is a function that configures the FeedService.
type option func(*FeedService)

// MustNewFeedService creates a new FeedService.
func MustNewFeedService(opts ...option) *FeedService {
	s := &FeedService{
		dashboard: NewReconciler(ViewDashboard),
		kitchen:   NewReconciler(ViewKitchen),
	}
	for _, opt := range opts {
		opt(s)
	}

	counter, err := otel.Meter("feedsvc").Int64Counter("feed_events_applied_total")
	if err != nil {
		panic(err)
	}
	s.eventsApplied = counter

	return s
}

// WithDispatcher sets the side-effect dispatcher for the FeedService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDispatcher(d dispatcher) option {
	return func(s *FeedService) {
		s.dispatcher = d
	}
}

// WithBackendClient sets the upstream client for the FeedService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBackendClient(c backendClient) option {
	return func(s *FeedService) {
		s.backend = c
	}
}

// WithRefresher sets the full-refresh signal for the FeedService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRefresher(r refresher) option {
	return func(s *FeedService) {
		s.refresher = r
	}
}

// HandleEvent applies one push event to both views and dispatches its side
// effects. Events are handled strictly in arrival order by the subscriber's
// single handler goroutine.
func (s *FeedService) HandleEvent(ctx context.Context, ev event.Event) {
	ctx, span := otel.Tracer("feedsvc").Start(ctx, "FeedService.HandleEvent")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", string(ev.Type)))

	s.mu.Lock()
	resDashboard := s.dashboard.ApplyEvent(ev)
	resKitchen := s.kitchen.ApplyEvent(ev)
	s.mu.Unlock()

	s.eventsApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(ev.Type))))

	needsRefresh := resDashboard.NeedsRefresh || resKitchen.NeedsRefresh

	// Events may have been lost while disconnected, so a reconnect always
	// forces a full refresh instead of trusting the in-memory list.
	if ev.Type == event.TypeConnectionState && ev.Connected && s.refresher != nil {
		s.refresher.Request()
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, ev, needsRefresh)
	}
}

// LoadSnapshot replaces both views with fresh server truth.
func (s *FeedService) LoadSnapshot(orders []order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dashboard.LoadSnapshot(orders)
	s.kitchen.LoadSnapshot(orders)
}

// SetStats caches the latest aggregates fetched alongside the snapshot.
func (s *FeedService) SetStats(d stats.Dashboard) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = d
}

// SetFetchError records the outcome of the last snapshot fetch so views can
// show a retryable error banner.
func (s *FeedService) SetFetchError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchErr = err
}

// Dashboard returns the newest-first live list.
func (s *FeedService) Dashboard() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dashboard.Orders()
}

// Kitchen returns the status buckets of the oldest-first kitchen view.
func (s *FeedService) Kitchen() map[order.Status][]order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.kitchen.Buckets()
}

// Stats returns the cached dashboard aggregates.
func (s *FeedService) Stats() stats.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats
}

// FetchError returns the last snapshot fetch failure, or nil.
func (s *FeedService) FetchError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.fetchErr
}

// RequestRefresh asks the refresh worker for a full re-fetch. This backs the
// manual refresh action; automatic retry stays out of the reconciler.
func (s *FeedService) RequestRefresh() {
	if s.refresher != nil {
		s.refresher.Request()
	}
}

// ChangeStatus validates a user-driven transition, applies it optimistically
// and forwards it upstream. On upstream failure the optimistic value is
// rolled back and truth is re-fetched.
func (s *FeedService) ChangeStatus(ctx context.Context, orderID int64, to order.Status) error {
	ctx, span := otel.Tracer("feedsvc").Start(ctx, "FeedService.ChangeStatus")
	defer span.End()

	s.mu.Lock()
	cur, ok := s.dashboard.Status(orderID)
	if !ok {
		cur, ok = s.kitchen.Status(orderID)
	}
	if !ok {
		s.mu.Unlock()

		return fmt.Errorf("%w: id %d", ErrNotFound, orderID)
	}
	if !order.CanTransition(cur, to) {
		s.mu.Unlock()

		return fmt.Errorf("%w: %s -> %s", order.ErrTransition, cur, to)
	}
	s.dashboard.ApplyOptimistic(orderID, to)
	s.kitchen.ApplyOptimistic(orderID, to)
	s.mu.Unlock()

	if err := s.backend.UpdateStatus(ctx, orderID, to); err != nil {
		slog.Error("Status update failed, rolling back", "order_id", orderID, "error", err)

		s.mu.Lock()
		s.dashboard.Rollback(orderID)
		s.kitchen.Rollback(orderID)
		s.mu.Unlock()

		if s.refresher != nil {
			s.refresher.Request()
		}

		return fmt.Errorf("update status: %w", err)
	}

	return nil
}

// MarkPaid forwards a payment confirmation upstream. The authoritative paid
// flag arrives via the corresponding order_updated event.
func (s *FeedService) MarkPaid(ctx context.Context, orderID int64) error {
	ctx, span := otel.Tracer("feedsvc").Start(ctx, "FeedService.MarkPaid")
	defer span.End()

	if err := s.backend.MarkPaid(ctx, orderID); err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}

	return nil
}
