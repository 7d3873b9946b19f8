package effectsvc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tableserve/ordersync/internal/service/models/event"
)

// Kind discriminates display effects.
type Kind string

const (
	KindChime Kind = "chime"
	KindToast Kind = "toast"
)

// Effect is an auxiliary display action pushed to connected clients.
type Effect struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
	OrderID int64  `json:"orderId,omitempty"`
}

// ErrAudioLocked means no display has performed the user gesture that
// unlocks audio playback yet.
var ErrAudioLocked = errors.New("audio playback not unlocked")

// Player plays the new-order chime. Browsers refuse autoplay until a user
// gesture, so Play is gated on Ready/Resume.
type Player interface {
	Ready() bool
	Resume() error
	Play(ctx context.Context, ef Effect) error
}

// Notifier delivers toast effects to display clients.
type Notifier interface {
	Notify(ef Effect)
}

type refresher interface {
	Request()
}

// Dispatcher decides, per incoming event, whether to play a sound, show a
// toast or request a full data refresh. It never mutates the feed.
type Dispatcher struct {
	player    Player
	notifier  Notifier
	refresher refresher
}

// option is a function that configures the Dispatcher.
type option func(*Dispatcher)

// MustNewDispatcher creates a new Dispatcher.
func MustNewDispatcher(opts ...option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// WithPlayer sets the chime player for the Dispatcher.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPlayer(p Player) option {
	return func(d *Dispatcher) {
		d.player = p
	}
}

// WithNotifier sets the toast notifier for the Dispatcher.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithNotifier(n Notifier) option {
	return func(d *Dispatcher) {
		d.notifier = n
	}
}

// WithRefresher sets the full-refresh signal for the Dispatcher.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRefresher(r refresher) option {
	return func(d *Dispatcher) {
		d.refresher = r
	}
}

// Dispatch runs the side effects for one event. needsRefresh is the
// reconciler's verdict for order_updated events.
func (d *Dispatcher) Dispatch(ctx context.Context, ev event.Event, needsRefresh bool) {
	switch ev.Type {
	case event.TypeNewOrder:
		d.chime(ctx, ev.OrderID)

	case event.TypeOrderCancelled:
		if d.notifier != nil {
			d.notifier.Notify(Effect{
				ID:      uuid.NewString(),
				Kind:    KindToast,
				Message: "An order was cancelled by the customer.",
				OrderID: ev.OrderID,
			})
		}
		if d.refresher != nil {
			d.refresher.Request()
		}

	case event.TypeOrderUpdated:
		if needsRefresh && d.refresher != nil {
			d.refresher.Request()
		}
	}
}

// chime plays the new-order alert. If audio is still locked it attempts to
// resume first and drops the sound silently when that fails; event handling
// is never blocked on audio.
func (d *Dispatcher) chime(ctx context.Context, orderID int64) {
	if d.player == nil {
		return
	}
	if !d.player.Ready() {
		if err := d.player.Resume(); err != nil {
			slog.Debug("Chime dropped", "order_id", orderID, "error", err)

			return
		}
	}
	if err := d.player.Play(ctx, Effect{ID: uuid.NewString(), Kind: KindChime, OrderID: orderID}); err != nil {
		slog.Warn("Failed to play chime", "order_id", orderID, "error", err)
	}
}
