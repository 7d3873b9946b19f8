package event

import (
	"encoding/json"
	"fmt"

	"github.com/tableserve/ordersync/internal/service/models/order"
)

// Type discriminates the push-event variants the backend emits.
type Type string

const (
	TypeNewOrder        Type = "new_order"
	TypeOrderUpdated    Type = "order_updated"
	TypeOrderCancelled  Type = "order_cancelled"
	TypeConnectionState Type = "connection_state"
)

// Event is a tagged variant. Order is set for new/updated events, OrderID for
// cancellations and Connected for connection-state changes.
type Event struct {
	Type      Type
	Order     *order.Order
	OrderID   int64
	Connected bool
}

func NewOrder(o order.Order) Event {
	return Event{Type: TypeNewOrder, Order: &o, OrderID: o.ID}
}

func OrderUpdated(o order.Order) Event {
	return Event{Type: TypeOrderUpdated, Order: &o, OrderID: o.ID}
}

func OrderCancelled(orderID int64) Event {
	return Event{Type: TypeOrderCancelled, OrderID: orderID}
}

// ConnectionState is synthesized locally by the socket subscriber; the
// backend never sends it over the wire.
func ConnectionState(connected bool) Event {
	return Event{Type: TypeConnectionState, Connected: connected}
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// cancelledPayload is minimally an order identifier; the backend sends either
// a bare number or an object with an id field.
type cancelledPayload struct {
	ID int64 `json:"id"`
}

// Decode parses one wire frame into an Event. Order payloads failing
// validation come back as order.ErrValidation-kinded errors so callers can
// drop them with a diagnostic instead of crashing.
func Decode(frame []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Event{}, fmt.Errorf("decode event frame: %w", err)
	}

	switch Type(env.Event) {
	case TypeNewOrder, TypeOrderUpdated:
		var o order.Order
		if err := json.Unmarshal(env.Data, &o); err != nil {
			return Event{}, fmt.Errorf("%w: %s payload: %v", order.ErrValidation, env.Event, err)
		}
		if err := o.Validate(); err != nil {
			return Event{}, fmt.Errorf("%s payload: %w", env.Event, err)
		}
		if Type(env.Event) == TypeNewOrder {
			return NewOrder(o), nil
		}

		return OrderUpdated(o), nil

	case TypeOrderCancelled:
		var id int64
		if err := json.Unmarshal(env.Data, &id); err != nil {
			var payload cancelledPayload
			if err := json.Unmarshal(env.Data, &payload); err != nil {
				return Event{}, fmt.Errorf("%w: order_cancelled payload: %v", order.ErrValidation, err)
			}
			id = payload.ID
		}
		if id == 0 {
			return Event{}, fmt.Errorf("%w: order_cancelled without id", order.ErrValidation)
		}

		return OrderCancelled(id), nil

	default:
		return Event{}, fmt.Errorf("%w: unknown event %q", order.ErrValidation, env.Event)
	}
}
