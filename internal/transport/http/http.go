package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/tableserve/ordersync/internal/service/models/order"
	"github.com/tableserve/ordersync/internal/service/models/stats"
	"github.com/tableserve/ordersync/internal/transport/http/effects"
	getfeed "github.com/tableserve/ordersync/internal/transport/http/get_feed"
	getkitchen "github.com/tableserve/ordersync/internal/transport/http/get_kitchen"
	getstats "github.com/tableserve/ordersync/internal/transport/http/get_stats"
	markpaid "github.com/tableserve/ordersync/internal/transport/http/mark_paid"
	updatestatus "github.com/tableserve/ordersync/internal/transport/http/update_status"
	"github.com/tableserve/ordersync/pkg/http/middleware/trace"
	"github.com/tableserve/ordersync/pkg/logger"
)

type service interface {
	Dashboard() []order.Order
	Kitchen() map[order.Status][]order.Order
	Stats() stats.Dashboard
	FetchError() error
	ChangeStatus(ctx context.Context, orderID int64, to order.Status) error
	MarkPaid(ctx context.Context, orderID int64) error
	RequestRefresh()
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	service service
	hub     *effects.Hub
	metrics http.Handler
}

func NewHTTPTransport(service service, hub *effects.Hub, metrics http.Handler) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:  server,
		router:  router,
		service: service,
		hub:     hub,
		metrics: metrics,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/feed", h.getFeed)
		r.Get("/kitchen", h.getKitchen)
		r.Get("/stats", h.getStats)
		r.Post("/orders/{id}/status", h.updateStatus)
		r.Post("/orders/{id}/paid", h.markPaid)
		r.Post("/refresh", h.refresh)
		r.Get("/effects", h.streamEffects)
	})
	h.router.Handle("/metrics", h.metrics)
}

func (h *HTTPTransport) getFeed(w http.ResponseWriter, r *http.Request) {
	getfeed.GetFeed(w, r, h.service)
}

func (h *HTTPTransport) getKitchen(w http.ResponseWriter, r *http.Request) {
	getkitchen.GetKitchen(w, r, h.service)
}

func (h *HTTPTransport) getStats(w http.ResponseWriter, r *http.Request) {
	getstats.GetStats(w, r, h.service)
}

func (h *HTTPTransport) updateStatus(w http.ResponseWriter, r *http.Request) {
	updatestatus.UpdateStatus(w, r, h.service)
}

func (h *HTTPTransport) markPaid(w http.ResponseWriter, r *http.Request) {
	markpaid.MarkPaid(w, r, h.service)
}

// refresh backs the view's manual refresh button.
func (h *HTTPTransport) refresh(w http.ResponseWriter, r *http.Request) {
	h.service.RequestRefresh()
	w.WriteHeader(http.StatusAccepted)
}

// streamEffects pushes chimes and toasts to a display client over SSE.
// Clients that have unlocked audio subscribe with ?audio=unlocked.
func (h *HTTPTransport) streamEffects(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)

		return
	}

	audioUnlocked := r.URL.Query().Get("audio") == "unlocked"
	id, ch := h.hub.Subscribe(audioUnlocked)
	defer h.hub.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ef, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ef)
			if err != nil {
				slog.Error("Error encoding effect", "error", err)

				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ef.Kind, data)
			flusher.Flush()
		}
	}
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
