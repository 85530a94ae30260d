// Package handler orchestrates a single conversion run: fetch the uploaded
// export from object storage, convert it, publish the outputs, and announce
// completion.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mosslantern/usagecsv/internal/observability"
)

// ObjectRef identifies a source object in a bucket.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Result lists the outputs of a completed conversion run.
type Result struct {
	Bucket string   `json:"bucket"`
	Keys   []string `json:"keys"`
}

// CompletionEvent describes a finished run for downstream consumers.
type CompletionEvent struct {
	RunID        string    `json:"run_id"`
	SourceBucket string    `json:"source_bucket"`
	SourceKey    string    `json:"source_key"`
	OutputBucket string    `json:"output_bucket"`
	Keys         []string  `json:"keys"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Storage is the object-store surface a run needs.
type Storage interface {
	Download(ctx context.Context, bucket, key, localPath string) error
	Upload(ctx context.Context, bucket, key, localPath string) error
	Delete(ctx context.Context, bucket, key string) error
}

// Converter turns downloaded export files into normalized CSV outputs.
type Converter interface {
	Convert(paths []string, outDir string) ([]string, error)
}

// Notifier publishes a completion event to one sink.
type Notifier interface {
	Name() string
	NotifyCompletion(ctx context.Context, event CompletionEvent) error
}

// Handler runs conversions against object storage.
type Handler struct {
	storage      Storage
	converter    Converter
	notifiers    []Notifier
	outputBucket string
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool
}

// New creates a Handler writing outputs to outputBucket.
func New(storage Storage, converter Converter, notifiers []Notifier, outputBucket string, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	return &Handler{
		storage:      storage,
		converter:    converter,
		notifiers:    notifiers,
		outputBucket: outputBucket,
		logger:       logger,
		metrics:      metrics,
	}
}

// CheckReadiness returns nil once at least one run has completed successfully,
// or an error describing why the service is not yet ready.
func (h *Handler) CheckReadiness(_ context.Context) error {
	if !h.ready.Load() {
		return errors.New("no conversion run has completed yet")
	}
	return nil
}

// Handle converts the object at ref and uploads the outputs to the configured
// bucket. On success the source object is deleted and completion events go
// out to every notifier; notifier failures are logged, not returned.
func (h *Handler) Handle(ctx context.Context, ref ObjectRef) (Result, error) {
	runID := uuid.NewString()
	log := h.logger.With("run_id", runID, "source_bucket", ref.Bucket, "source_key", ref.Key)
	start := clock.Now()

	result, err := h.run(ctx, log, ref)
	if err != nil {
		h.metrics.RunsTotal.WithLabelValues("error").Inc()
		log.Error("conversion run failed", "error", err)
		return Result{}, err
	}

	h.metrics.RunsTotal.WithLabelValues("success").Inc()
	h.metrics.RunDuration.Observe(clock.Since(start).Seconds())
	h.ready.Store(true)
	log.Info("conversion run complete", "output_bucket", result.Bucket, "outputs", len(result.Keys))

	h.notify(ctx, log, CompletionEvent{
		RunID:        runID,
		SourceBucket: ref.Bucket,
		SourceKey:    ref.Key,
		OutputBucket: result.Bucket,
		Keys:         result.Keys,
		CompletedAt:  clock.Now().UTC(),
	})

	return result, nil
}

func (h *Handler) run(ctx context.Context, log *slog.Logger, ref ObjectRef) (Result, error) {
	if ref.Bucket == "" || ref.Key == "" {
		return Result{}, errors.New("source bucket and key are required")
	}

	workDir, err := os.MkdirTemp("", "usagecsv-run-")
	if err != nil {
		return Result{}, fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	localPath := filepath.Join(workDir, filepath.Base(ref.Key))
	if err := h.storage.Download(ctx, ref.Bucket, ref.Key, localPath); err != nil {
		return Result{}, err
	}

	written, err := h.converter.Convert([]string{localPath}, workDir)
	if err != nil {
		return Result{}, err
	}

	keys := make([]string, 0, len(written))
	for _, path := range written {
		key := filepath.Base(path)
		if err := h.storage.Upload(ctx, h.outputBucket, key, path); err != nil {
			return Result{}, err
		}
		keys = append(keys, key)
	}

	// The source object goes away only after every output made it to the
	// bucket, so a failed run can be replayed from the original event.
	if err := h.storage.Delete(ctx, ref.Bucket, ref.Key); err != nil {
		return Result{}, err
	}

	return Result{Bucket: h.outputBucket, Keys: keys}, nil
}

func (h *Handler) notify(ctx context.Context, log *slog.Logger, event CompletionEvent) {
	for _, n := range h.notifiers {
		if err := n.NotifyCompletion(ctx, event); err != nil {
			h.metrics.Notifications.WithLabelValues(n.Name(), "error").Inc()
			log.Warn("completion notification failed", "sink", n.Name(), "error", err)
			continue
		}
		h.metrics.Notifications.WithLabelValues(n.Name(), "success").Inc()
	}
}
