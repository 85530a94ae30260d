package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mosslantern/usagecsv/internal/adapter/httpapi"
	"github.com/mosslantern/usagecsv/internal/adapter/kafka"
	"github.com/mosslantern/usagecsv/internal/adapter/mqtt"
	"github.com/mosslantern/usagecsv/internal/adapter/s3"
	"github.com/mosslantern/usagecsv/internal/config"
	"github.com/mosslantern/usagecsv/internal/convert"
	"github.com/mosslantern/usagecsv/internal/domain"
	"github.com/mosslantern/usagecsv/internal/handler"
	"github.com/mosslantern/usagecsv/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion service",
	Long: `Serve starts the HTTP API plus health, readiness, and metrics
endpoints, converting uploaded exports from object storage on request.
Configuration comes from the environment.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(*cobra.Command, []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	catalog, err := domain.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	storage, err := s3.NewClient(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("creating storage client: %w", err)
	}

	var notifiers []handler.Notifier

	var kafkaNotifier *kafka.Notifier
	if cfg.KafkaEnabled() {
		kafkaNotifier = kafka.NewNotifier(cfg, logger)
		notifiers = append(notifiers, kafkaNotifier)
		logger.Info("kafka completions enabled", "topic", cfg.KafkaTopic)
	}

	var mqttNotifier *mqtt.Notifier
	if cfg.MQTTEnabled() {
		mqttNotifier, err = mqtt.NewNotifier(cfg, logger)
		if err != nil {
			return fmt.Errorf("connecting mqtt notifier: %w", err)
		}
		notifiers = append(notifiers, mqttNotifier)
		logger.Info("mqtt completions enabled", "topic", cfg.MQTTTopic)
	}

	conv := convert.New(catalog, logger, metrics)
	h := handler.New(storage, conv, notifiers, cfg.OutputBucket, logger, metrics)
	srv := httpapi.NewServer(cfg.HTTPAddr, h, h, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			logger.Error("kafka notifier close error", "error", err)
		}
	}
	if mqttNotifier != nil {
		mqttNotifier.Close()
	}

	logger.Info("shutdown complete")
	return nil
}
