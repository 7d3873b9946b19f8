package feedsvc

import (
	"log/slog"
	"sort"

	"github.com/tableserve/ordersync/internal/service/models/event"
	"github.com/tableserve/ordersync/internal/service/models/order"
)

// View selects the sort rule a reconciler keeps its list in.
type View int

const (
	// ViewDashboard shows newest orders first.
	ViewDashboard View = iota
	// ViewKitchen shows oldest orders first, for fairness.
	ViewKitchen
)

// Result is what applying one event yields: the current list and whether
// dependent aggregates went stale and a full re-fetch is required.
type Result struct {
	List         []order.Order
	NeedsRefresh bool
}

// Reconciler owns the live order list of a single view and applies snapshot
// loads and push events to it. It is not safe for concurrent use; the owning
// service serializes access.
type Reconciler struct {
	view View
	list []order.Order

	// pending maps an order id to its status before an optimistic update,
	// until the server confirms or the caller rolls back.
	pending map[int64]order.Status
}

// NewReconciler creates an empty reconciler for the given view.
func NewReconciler(view View) *Reconciler {
	return &Reconciler{
		view:    view,
		pending: make(map[int64]order.Status),
	}
}

// LoadSnapshot replaces the list wholesale. Malformed entries are dropped
// with a diagnostic, terminal-status entries are excluded from the live view
// and the rest is sorted per the view rule. Optimistic state is discarded:
// the snapshot is fresh server truth.
func (r *Reconciler) LoadSnapshot(orders []order.Order) []order.Order {
	list := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			slog.Warn("Dropping malformed snapshot entry", "error", err)

			continue
		}
		if o.Status.Terminal() {
			continue
		}
		list = append(list, o)
	}

	sort.SliceStable(list, func(i, j int) bool {
		if r.view == ViewKitchen {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}

		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	r.list = list
	r.pending = make(map[int64]order.Status)

	return r.Orders()
}

// ApplyEvent merges one push event into the list per the reconciliation
// rules. Events are authoritative server truth: an updated status is applied
// even if it skips stages, and it overrides any optimistic local value.
func (r *Reconciler) ApplyEvent(ev event.Event) Result {
	switch ev.Type {
	case event.TypeNewOrder:
		r.applyNew(ev)
	case event.TypeOrderUpdated:
		return Result{List: r.Orders(), NeedsRefresh: r.applyUpdate(ev)}
	case event.TypeOrderCancelled:
		// Stats must be recomputed whether or not the order was in view.
		r.remove(ev.OrderID)

		return Result{List: r.Orders(), NeedsRefresh: true}
	case event.TypeConnectionState:
		// Connection changes never mutate the list.
	}

	return Result{List: r.Orders()}
}

func (r *Reconciler) applyNew(ev event.Event) {
	if ev.Order == nil {
		return
	}
	// Duplicate delivery: the transport is at-least-once, inserts must be
	// idempotent.
	if r.index(ev.Order.ID) >= 0 {
		return
	}
	if ev.Order.Status.Terminal() {
		return
	}
	r.insert(*ev.Order)
}

func (r *Reconciler) applyUpdate(ev event.Event) (needsRefresh bool) {
	if ev.Order == nil {
		return false
	}

	i := r.index(ev.Order.ID)

	// An accepted transition or a paid flip invalidates aggregates that are
	// not derivable from the delta alone.
	switch {
	case ev.Order.Status == order.StatusAccepted:
		needsRefresh = true
	case i >= 0:
		needsRefresh = !r.list[i].Paid && ev.Order.Paid
	default:
		needsRefresh = ev.Order.Paid
	}

	// Not part of this view's current filter.
	if i < 0 {
		return needsRefresh
	}

	delete(r.pending, ev.Order.ID)

	if ev.Order.Status.Terminal() {
		r.list = append(r.list[:i], r.list[i+1:]...)

		return needsRefresh
	}

	// Replace in place, preserving position. Bucketing is re-derived by
	// filtering, never stored.
	r.list[i] = *ev.Order

	return needsRefresh
}

// ApplyOptimistic tentatively sets a status ahead of server confirmation.
// The original status is kept for rollback; the next server update for the
// order clears it, since the server value always wins.
func (r *Reconciler) ApplyOptimistic(orderID int64, to order.Status) bool {
	i := r.index(orderID)
	if i < 0 {
		return false
	}
	if _, tracked := r.pending[orderID]; !tracked {
		r.pending[orderID] = r.list[i].Status
	}
	r.list[i].Status = to

	return true
}

// Rollback restores the status recorded before an optimistic update.
func (r *Reconciler) Rollback(orderID int64) {
	was, ok := r.pending[orderID]
	if !ok {
		return
	}
	delete(r.pending, orderID)
	if i := r.index(orderID); i >= 0 {
		r.list[i].Status = was
	}
}

// Status reports the current status of an order in the view.
func (r *Reconciler) Status(orderID int64) (order.Status, bool) {
	i := r.index(orderID)
	if i < 0 {
		return "", false
	}

	return r.list[i].Status, true
}

// Orders returns a copy of the list so callers can render it without holding
// the reconciler.
func (r *Reconciler) Orders() []order.Order {
	out := make([]order.Order, len(r.list))
	copy(out, r.list)

	return out
}

// Buckets partitions the list by status. The list itself stays the single
// source of truth; columns are derived on every call.
func (r *Reconciler) Buckets() map[order.Status][]order.Order {
	buckets := map[order.Status][]order.Order{
		order.StatusAccepted:  {},
		order.StatusPreparing: {},
		order.StatusReady:     {},
	}
	for _, o := range r.list {
		if _, ok := buckets[o.Status]; ok {
			buckets[o.Status] = append(buckets[o.Status], o)
		}
	}

	return buckets
}

func (r *Reconciler) index(orderID int64) int {
	for i := range r.list {
		if r.list[i].ID == orderID {
			return i
		}
	}

	return -1
}

func (r *Reconciler) remove(orderID int64) {
	if i := r.index(orderID); i >= 0 {
		r.list = append(r.list[:i], r.list[i+1:]...)
		delete(r.pending, orderID)
	}
}

// insert places an order at its sorted position for the view.
func (r *Reconciler) insert(o order.Order) {
	i := sort.Search(len(r.list), func(i int) bool {
		if r.view == ViewKitchen {
			return r.list[i].CreatedAt.After(o.CreatedAt)
		}

		return r.list[i].CreatedAt.Before(o.CreatedAt)
	})
	r.list = append(r.list, order.Order{})
	copy(r.list[i+1:], r.list[i:])
	r.list[i] = o
}
