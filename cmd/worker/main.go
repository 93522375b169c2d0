package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/document-catalog/internal/bootstrap"
	"github.com/kirillkom/document-catalog/internal/config"
	"github.com/kirillkom/document-catalog/internal/core/domain"
	"github.com/kirillkom/document-catalog/internal/observability/logging"
	"github.com/kirillkom/document-catalog/internal/observability/metrics"
)

const service = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.EventsEnabled {
		logger.Error("worker_requires_events", "hint", "set EVENTS_ENABLED=true")
		os.Exit(1)
	}

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(service)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "queue_group", cfg.NATSQueueGroup)
	err = app.Subscriber.SubscribeCatalogEvents(ctx, func(handlerCtx context.Context, event domain.CatalogEvent) error {
		workerMetrics.StartEvent()
		started := time.Now()
		if !event.OccurredAt.IsZero() {
			workerMetrics.ObserveEventLag(service, started.Sub(event.OccurredAt))
		}

		invalidateCtx, cancel := context.WithTimeout(handlerCtx, cfg.StatsComputeTimeout)
		defer cancel()
		app.Stats.Invalidate(invalidateCtx, event)

		err := invalidateCtx.Err()
		workerMetrics.FinishEvent(service, string(event.Kind), time.Since(started), err)
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_error", "error", err)
	}
}
