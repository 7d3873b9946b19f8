package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation marks a malformed order payload. Callers skip such payloads
// instead of failing the whole feed.
var ErrValidation = errors.New("invalid order payload")

// OrderType tells whether an order is served at a table or picked up.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
)

var ErrInvalidOrderType = errors.New("invalid order type")

func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(s) {
	case OrderTypeDineIn, OrderTypeTakeaway:
		return OrderType(s), nil
	default:
		return "", ErrInvalidOrderType
	}
}

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentOnline PaymentMethod = "online"
)

var ErrInvalidPaymentMethod = errors.New("invalid payment method")

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCash, PaymentOnline:
		return PaymentMethod(s), nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// Variant is an optional item variation with its own price.
type Variant struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OrderItem is a single order line. UnitPrice is the base item price; when a
// variant is selected the variant price applies instead.
type OrderItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
	Variant   *Variant        `json:"variant,omitempty"`
}

// Price is the effective unit price of the line.
func (i OrderItem) Price() decimal.Decimal {
	if i.Variant != nil {
		return i.Variant.Price
	}

	return i.UnitPrice
}

// Order is a café order as carried by snapshots and push events. ID is the
// stable merge/dedup key; PublicID is the short human-facing identifier and
// is never used for equality. JSON tags follow the backend wire shape.
type Order struct {
	ID            int64           `json:"id"`
	PublicID      string          `json:"publicId"`
	TableNo       int             `json:"tableNo"`
	OrderType     OrderType       `json:"orderType"`
	Status        Status          `json:"status"`
	Paid          bool            `json:"paid"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []OrderItem     `json:"order_items"`
}

// Validate checks the fields the reconciler depends on. It returns an
// ErrValidation-kinded error when id, status or created_at is missing.
func (o *Order) Validate() error {
	if o.ID == 0 {
		return fmt.Errorf("%w: missing id", ErrValidation)
	}
	if _, err := ParseStatus(string(o.Status)); err != nil {
		return fmt.Errorf("%w: status %q", ErrValidation, o.Status)
	}
	if o.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing created_at", ErrValidation)
	}

	return nil
}

// ItemCount is the total quantity across all lines.
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}

	return count
}

// Subtotal sums effective unit price times quantity over all lines.
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return total
}

// Age is the elapsed time since the order was created.
func (o *Order) Age(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}
