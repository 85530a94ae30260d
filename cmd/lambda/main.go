// Command lambda runs the conversion service as an AWS Lambda function
// triggered by S3 object-created events.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/mosslantern/usagecsv/internal/adapter/kafka"
	"github.com/mosslantern/usagecsv/internal/adapter/mqtt"
	"github.com/mosslantern/usagecsv/internal/adapter/s3"
	"github.com/mosslantern/usagecsv/internal/config"
	"github.com/mosslantern/usagecsv/internal/convert"
	"github.com/mosslantern/usagecsv/internal/domain"
	"github.com/mosslantern/usagecsv/internal/handler"
	"github.com/mosslantern/usagecsv/internal/observability"
)

// Response is the API-style envelope the function returns; the body is a
// JSON-encoded string.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// convertService is the part of handler.Handler the event binding needs.
type convertService interface {
	Handle(ctx context.Context, ref handler.ObjectRef) (handler.Result, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	catalog, err := domain.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	storage, err := s3.NewClient(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to create storage client", "error", err)
		os.Exit(1)
	}

	var notifiers []handler.Notifier
	if cfg.KafkaEnabled() {
		notifiers = append(notifiers, kafka.NewNotifier(cfg, logger))
	}
	if cfg.MQTTEnabled() {
		mqttNotifier, err := mqtt.NewNotifier(cfg, logger)
		if err != nil {
			logger.Error("failed to connect mqtt notifier", "error", err)
			os.Exit(1)
		}
		notifiers = append(notifiers, mqttNotifier)
	}

	conv := convert.New(catalog, logger, metrics)
	h := handler.New(storage, conv, notifiers, cfg.OutputBucket, logger, metrics)

	lambda.Start(func(ctx context.Context, event events.S3Event) (Response, error) {
		return handleEvent(ctx, h, event)
	})
}

// handleEvent converts the first record of the event. Failures are reported
// through the response envelope, not as invocation errors, so S3 does not
// retry a conversion that will fail the same way again.
func handleEvent(ctx context.Context, service convertService, event events.S3Event) (Response, error) {
	if len(event.Records) == 0 {
		return errorResponse(errors.New("event has no records")), nil
	}

	record := event.Records[0]
	ref := handler.ObjectRef{
		Bucket: record.S3.Bucket.Name,
		Key:    record.S3.Object.Key,
	}

	result, err := service.Handle(ctx, ref)
	if err != nil {
		return errorResponse(err), nil
	}

	body, err := json.Marshal(result)
	if err != nil {
		return errorResponse(err), nil
	}
	return Response{StatusCode: 200, Body: string(body)}, nil
}

func errorResponse(err error) Response {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return Response{StatusCode: 500, Body: string(body)}
}
