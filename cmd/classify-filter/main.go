package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/mikey/llm-email-classifier/internal/core"
	"github.com/mikey/llm-email-classifier/internal/di"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}

	if err := di.Shutdown(container); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}
}

// run starts the filter and blocks until SIGINT or SIGTERM
func run(cfg *config.Config, logger *zap.Logger, emailFilter core.EmailFilter, service *core.ClassificationService) error {
	defer logger.Sync()

	logger.Info("Starting classification filter",
		zap.String("provider", cfg.GetClassifier().Provider),
		zap.Int("categories", len(service.Categories())))

	if err := emailFilter.Start(); err != nil {
		logger.Error("Failed to start filter", zap.Error(err))
		return err
	}

	metricsServer := startMetrics(cfg.GetServer().MetricsAddress, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("Shutting down...")

	if err := emailFilter.Stop(); err != nil {
		logger.Error("Failed to stop filter", zap.Error(err))
	}

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("Failed to stop metrics server", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}

// startMetrics serves /metrics on addr. An empty addr disables it.
func startMetrics(addr string, logger *zap.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Metrics server listening", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	return server
}
