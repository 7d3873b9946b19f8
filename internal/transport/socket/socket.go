package socket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tableserve/ordersync/internal/service/models/event"
	"github.com/tableserve/ordersync/internal/service/models/order"
)

// ErrTransport marks a dropped or failed push connection after reconnection
// attempts were exhausted.
var ErrTransport = errors.New("push connection failed")

// service represents the service layer interface.
type service interface {
	HandleEvent(ctx context.Context, ev event.Event)
}

// joinMessage subscribes the connection to the café's room.
type joinMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// Subscriber maintains the persistent push connection for one café room and
// hands decoded events to the service in strict arrival order.
type Subscriber struct {
	url     string
	cafeID  string
	service service

	attempts int
	delay    time.Duration

	mu   sync.Mutex
	conn *websocket.Conn

	stop chan struct{}
	done chan struct{}
}

// NewSubscriber creates a new Subscriber. The café id is passed in
// explicitly rather than read from ambient state.
func NewSubscriber(url, cafeID string, service service) *Subscriber {
	attempts := viper.GetInt("socket.reconnect_attempts")
	if attempts == 0 {
		attempts = 5
	}

	delaySeconds := viper.GetInt("socket.reconnect_delay_seconds")
	if delaySeconds == 0 {
		delaySeconds = 5
	}

	return &Subscriber{
		url:      url,
		cafeID:   cafeID,
		service:  service,
		attempts: attempts,
		delay:    time.Duration(delaySeconds) * time.Second,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run connects and consumes push events until the context is cancelled, the
// subscriber is shut down, or the bounded reconnection budget is spent.
func (s *Subscriber) Run(ctx context.Context) error {
	defer close(s.done)

	failures := 0
	for {
		if s.stopped(ctx) {
			return nil
		}

		conn, err := s.connect(ctx)
		if err != nil {
			failures++
			slog.Warn("Push connection attempt failed",
				"attempt", failures,
				"max_attempts", s.attempts,
				"error", err,
			)
			if failures >= s.attempts {
				return fmt.Errorf("%w: %d attempts exhausted", ErrTransport, failures)
			}
			if !s.sleep(ctx) {
				return nil
			}

			continue
		}

		failures = 0
		slog.Info("Push connection established", "cafe_id", s.cafeID)
		s.service.HandleEvent(ctx, event.ConnectionState(true))

		err = s.consume(ctx, conn)
		s.service.HandleEvent(ctx, event.ConnectionState(false))
		if s.stopped(ctx) {
			return nil
		}
		slog.Warn("Push connection lost", "error", err)
	}
}

// connect dials the backend and joins the café room.
func (s *Subscriber) connect(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.url, err)
	}

	if err := conn.WriteJSON(joinMessage{Event: "join_cafe_room", Data: s.cafeID}); err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("join cafe room: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	return conn, nil
}

// consume reads frames until the connection drops. Reading happens on a
// single goroutine so events reach the service serialized in arrival order;
// a second goroutine only keeps the connection alive.
func (s *Subscriber) consume(ctx context.Context, conn *websocket.Conn) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return fmt.Errorf("read frame: %w", err)
			}

			ev, err := event.Decode(frame)
			if err != nil {
				if errors.Is(err, order.ErrValidation) {
					slog.Warn("Dropping malformed push event", "error", err)

					continue
				}
				slog.Error("Failed to decode push frame", "error", err)

				continue
			}

			s.service.HandleEvent(gctx, ev)
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-s.stop:
				_ = conn.Close()

				return nil
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return fmt.Errorf("ping: %w", err)
				}
			}
		}
	})

	err := g.Wait()
	_ = conn.Close()

	return err
}

func (s *Subscriber) stopped(ctx context.Context) bool {
	select {
	case <-s.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (s *Subscriber) sleep(ctx context.Context) bool {
	select {
	case <-s.stop:
		return false
	case <-ctx.Done():
		return false
	case <-time.After(s.delay):
		return true
	}
}

// Shutdown tears the connection down explicitly and waits for the run loop
// to drain.
func (s *Subscriber) Shutdown() error {
	slog.Info("Shutting down push subscriber")
	close(s.stop)

	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		slog.Info("Push subscriber stopped successfully")
	case <-time.After(10 * time.Second):
		slog.Warn("Push subscriber shutdown timeout")
	}

	return nil
}
