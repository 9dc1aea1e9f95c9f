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

	"github.com/samakshmehra/document-processing-system/internal/bootstrap"
	"github.com/samakshmehra/document-processing-system/internal/config"
	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/observability/logging"
	"github.com/samakshmehra/document-processing-system/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLoggerWithFile(serviceName, cfg.LogLevel, logging.FileOptions{Path: cfg.LogFile}))

	if !cfg.SubmissionQueueEnabled {
		slog.Error("worker_requires_queue", "hint", "set SUBMIT_QUEUE_ENABLED=true")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{WithQueue: true})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "history_backend", cfg.HistoryBackend)
	err = app.Queue.SubscribeSubmissions(ctx, func(handlerCtx context.Context, sub domain.Submission) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.ObserveQueueLag(serviceName, time.Since(sub.CreatedAt))
		workerMetrics.StartSubmission()
		start := time.Now()
		outcome, err := app.Processor.ProcessSubmission(processCtx, sub)
		workerMetrics.FinishSubmission(serviceName, time.Since(start), err)
		if err != nil {
			return err
		}
		workerMetrics.RecordRoute(serviceName, outcome)
		slog.Info("submission_processed",
			"submission_id", sub.ID,
			"thread_id", outcome.ThreadID,
			"format", outcome.Format,
			"final_step", outcome.Final,
		)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
