package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/tableserve/ordersync/internal/dal/backend"
	"github.com/tableserve/ordersync/internal/otel"
	"github.com/tableserve/ordersync/internal/service/services/effectsvc"
	"github.com/tableserve/ordersync/internal/service/services/feedsvc"
	httptransport "github.com/tableserve/ordersync/internal/transport/http"
	"github.com/tableserve/ordersync/internal/transport/http/effects"
	"github.com/tableserve/ordersync/internal/transport/socket"
	refreshworker "github.com/tableserve/ordersync/internal/worker/refresh"
)

// App represents the application.
type App struct {
	feedSvc        *feedsvc.FeedService
	transport      *httptransport.HTTPTransport
	subscriber     *socket.Subscriber
	refreshWorker  *refreshworker.Worker
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()

	cafeID := viper.GetString("cafe.id")
	if cafeID == "" {
		panic("cafe.id is not set in config")
	}

	backendClient := backend.NewClient(viper.GetString("backend.base_url"), cafeID)

	signals := refreshworker.NewSignal()
	hub := effects.NewHub()

	dispatcher := effectsvc.MustNewDispatcher(
		effectsvc.WithPlayer(hub),
		effectsvc.WithNotifier(hub),
		effectsvc.WithRefresher(signals),
	)

	feedSvc := feedsvc.MustNewFeedService(
		feedsvc.WithDispatcher(dispatcher),
		feedsvc.WithBackendClient(backendClient),
		feedsvc.WithRefresher(signals),
	)

	refreshWorker := refreshworker.NewWorker(backendClient, feedSvc, signals)

	subscriber := socket.NewSubscriber(viper.GetString("backend.socket_url"), cafeID, feedSvc)

	transport := httptransport.NewHTTPTransport(feedSvc, hub, otelController.MetricsHandler())
	transport.RegisterRoutes()

	return &App{
		feedSvc:        feedSvc,
		transport:      transport,
		subscriber:     subscriber,
		refreshWorker:  refreshWorker,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting refresh worker")
		a.refreshWorker.Start(ctx)
	}()

	go func() {
		slog.Info("Starting push subscriber")
		if err := a.subscriber.Run(ctx); err != nil {
			slog.Error("Push subscriber error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown performs graceful shutdown of all application components.
func (a *App) gracefulShutdown() {
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.subscriber.Shutdown(); err != nil {
		slog.Error("Push subscriber shutdown error", "error", err)
	}

	a.refreshWorker.Stop()
	slog.Info("Refresh worker stopped gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel provider close error", "error", err)
	} else {
		slog.Info("Otel providers closed gracefully")
	}

	slog.Info("Application shutdown complete")
}
