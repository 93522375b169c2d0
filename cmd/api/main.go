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

	httpadapter "github.com/kirillkom/document-catalog/internal/adapters/http"
	"github.com/kirillkom/document-catalog/internal/adapters/http/openapi"
	"github.com/kirillkom/document-catalog/internal/bootstrap"
	"github.com/kirillkom/document-catalog/internal/config"
	"github.com/kirillkom/document-catalog/internal/observability/logging"
	"github.com/kirillkom/document-catalog/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiDoc, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("openapi_invalid", "error", err)
		os.Exit(1)
	}
	validator, err := httpadapter.NewRequestValidator(apiDoc)
	if err != nil {
		logger.Error("openapi_router_failed", "error", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:          logger,
		CacheObserver:   httpMetrics.ObserveStatsCache,
		BreakerObserver: httpMetrics.ObserveBreakerState,
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Cascade:  app.Cascade,
		Search:   app.Search,
		Stats:    app.Stats,
		Catalog:  app.Catalog,
		Exporter: app.Exporter,
	},
		httpadapter.WithMetrics(httpMetrics),
		httpadapter.WithOpenAPISpec(openapi.Spec),
		httpadapter.WithRequestValidator(validator),
	)

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "storage", cfg.StorageDriver, "cache", cfg.CacheDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
