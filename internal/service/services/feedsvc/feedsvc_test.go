package feedsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/tableserve/ordersync/internal/service/models/event"
	"github.com/tableserve/ordersync/internal/service/models/order"
)

type fakeBackend struct {
	statusCalls []order.Status
	failStatus  bool
	paidCalls   []int64
}

func (f *fakeBackend) UpdateStatus(_ context.Context, _ int64, status order.Status) error {
	f.statusCalls = append(f.statusCalls, status)
	if f.failStatus {
		return errors.New("upstream down")
	}

	return nil
}

func (f *fakeBackend) MarkPaid(_ context.Context, orderID int64) error {
	f.paidCalls = append(f.paidCalls, orderID)

	return nil
}

type fakeDispatcher struct {
	events  []event.Event
	refresh []bool
}

func (f *fakeDispatcher) Dispatch(_ context.Context, ev event.Event, needsRefresh bool) {
	f.events = append(f.events, ev)
	f.refresh = append(f.refresh, needsRefresh)
}

type fakeRefresher struct {
	requests int
}

func (f *fakeRefresher) Request() {
	f.requests++
}

func newTestService(backend *fakeBackend, dispatcher *fakeDispatcher, refresher *fakeRefresher) *FeedService {
	return MustNewFeedService(
		WithBackendClient(backend),
		WithDispatcher(dispatcher),
		WithRefresher(refresher),
	)
}

func TestFeedService_HandleEventDispatches(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	refresher := &fakeRefresher{}
	s := newTestService(&fakeBackend{}, dispatcher, refresher)

	s.LoadSnapshot([]order.Order{makeOrder(1, order.StatusPending, 0)})
	s.HandleEvent(context.Background(), event.OrderUpdated(makeOrder(1, order.StatusAccepted, 0)))

	if len(dispatcher.events) != 1 {
		t.Fatalf("expected 1 dispatched event, got %d", len(dispatcher.events))
	}
	if !dispatcher.refresh[0] {
		t.Error("accepted update must dispatch with needsRefresh true")
	}
}

func TestFeedService_ReconnectForcesRefresh(t *testing.T) {
	refresher := &fakeRefresher{}
	s := newTestService(&fakeBackend{}, &fakeDispatcher{}, refresher)

	s.HandleEvent(context.Background(), event.ConnectionState(false))
	if refresher.requests != 0 {
		t.Fatal("disconnect must not request a refresh")
	}

	s.HandleEvent(context.Background(), event.ConnectionState(true))
	if refresher.requests != 1 {
		t.Fatalf("reconnect must request a refresh, got %d requests", refresher.requests)
	}
}

func TestFeedService_ChangeStatus(t *testing.T) {
	t.Run("applies optimistically and forwards upstream", func(t *testing.T) {
		backend := &fakeBackend{}
		s := newTestService(backend, &fakeDispatcher{}, &fakeRefresher{})
		s.LoadSnapshot([]order.Order{makeOrder(1, order.StatusPending, 0)})

		if err := s.ChangeStatus(context.Background(), 1, order.StatusAccepted); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(backend.statusCalls) != 1 || backend.statusCalls[0] != order.StatusAccepted {
			t.Fatalf("expected one upstream call with accepted, got %v", backend.statusCalls)
		}
		if got := s.Dashboard()[0].Status; got != order.StatusAccepted {
			t.Errorf("expected optimistic accepted, got %s", got)
		}
	})

	t.Run("rejects skipping stages", func(t *testing.T) {
		backend := &fakeBackend{}
		s := newTestService(backend, &fakeDispatcher{}, &fakeRefresher{})
		s.LoadSnapshot([]order.Order{makeOrder(1, order.StatusPending, 0)})

		err := s.ChangeStatus(context.Background(), 1, order.StatusReady)
		if !errors.Is(err, order.ErrTransition) {
			t.Fatalf("expected ErrTransition, got %v", err)
		}
		if len(backend.statusCalls) != 0 {
			t.Error("rejected transition must not reach upstream")
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		s := newTestService(&fakeBackend{}, &fakeDispatcher{}, &fakeRefresher{})

		err := s.ChangeStatus(context.Background(), 99, order.StatusAccepted)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rolls back and re-fetches on upstream failure", func(t *testing.T) {
		backend := &fakeBackend{failStatus: true}
		refresher := &fakeRefresher{}
		s := newTestService(backend, &fakeDispatcher{}, refresher)
		s.LoadSnapshot([]order.Order{makeOrder(1, order.StatusPending, 0)})

		if err := s.ChangeStatus(context.Background(), 1, order.StatusAccepted); err == nil {
			t.Fatal("expected an error")
		}
		if got := s.Dashboard()[0].Status; got != order.StatusPending {
			t.Errorf("expected rollback to pending, got %s", got)
		}
		if refresher.requests != 1 {
			t.Errorf("expected a refresh request after rollback, got %d", refresher.requests)
		}
	})
}

func TestFeedService_MarkPaidForwards(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestService(backend, &fakeDispatcher{}, &fakeRefresher{})

	if err := s.MarkPaid(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.paidCalls) != 1 || backend.paidCalls[0] != 7 {
		t.Fatalf("expected mark-paid for 7, got %v", backend.paidCalls)
	}
}

func TestFeedService_FetchErrorRoundTrip(t *testing.T) {
	s := newTestService(&fakeBackend{}, &fakeDispatcher{}, &fakeRefresher{})

	if s.FetchError() != nil {
		t.Fatal("expected no fetch error initially")
	}

	wantErr := errors.New("snapshot failed")
	s.SetFetchError(wantErr)
	if !errors.Is(s.FetchError(), wantErr) {
		t.Fatal("fetch error not surfaced")
	}

	s.SetFetchError(nil)
	if s.FetchError() != nil {
		t.Fatal("fetch error not cleared")
	}
}
