package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"sheetchart/internal/config"
	apierrors "sheetchart/internal/errors"
	"sheetchart/internal/infrastructure"
	"sheetchart/internal/middleware"
	"sheetchart/internal/services"
	transport "sheetchart/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	metrics, err := infrastructure.InitializeMetrics(logger)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	datasetService := services.NewDatasetService(cfg, logger, metrics)
	errorHandler := apierrors.NewErrorHandler(logger)
	datasetHandler := transport.NewDatasetHandler(datasetService, logger, errorHandler, cfg.Limits.MaxUploadBytes)
	healthHandler := transport.NewHealthHandler()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.With(middleware.RateLimit(cfg.Limits.UploadRPS, cfg.Limits.UploadBurst, errorHandler)).
			Mount("/datasets", datasetHandler.Routes())
	})
	r.Handle("/metrics", metrics.Handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.Int("port", cfg.Server.Port),
			slog.String("service", infrastructure.ServiceName))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := metrics.Shutdown(ctx); err != nil {
		logger.Warn("metrics shutdown failed", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}
