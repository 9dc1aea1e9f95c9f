package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/infrastructure/resilience"
)

const workerQueueGroup = "docproc-workers"

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("document-processing-system"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishSubmission(ctx context.Context, submission domain.Submission) error {
	data, err := encodeSubmission(submission)
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		return publishError(q.conn.Publish(q.subject, data))
	}

	if q.executor != nil {
		return q.executor.Execute(ctx, "nats.publish", call, nil)
	}
	return call(ctx)
}

// publishError marks connectivity failures as domain.ErrTemporary, which the
// executor retries and the API reports as 503.
func publishError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, nats.ErrNoServers),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrConnectionReconnecting),
		errors.Is(err, nats.ErrDisconnected):
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	default:
		return fmt.Errorf("nats publish: %w", err)
	}
}

// SubscribeSubmissions joins the worker queue group and blocks until ctx is
// done, then drains the subscription.
func (q *Queue) SubscribeSubmissions(ctx context.Context, handler func(context.Context, domain.Submission) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerQueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		submission, err := decodeSubmission(msg.Data)
		if err != nil {
			slog.Error("submission_decode_failed", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, submission); err != nil {
			slog.Error("worker_handler_failed", "submission_id", submission.ID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func encodeSubmission(submission domain.Submission) ([]byte, error) {
	if submission.ID == "" || submission.StorageKey == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "encode submission", errors.New("id and storage_key are required"))
	}
	data, err := json.Marshal(submission)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}
	return data, nil
}

func decodeSubmission(data []byte) (domain.Submission, error) {
	var submission domain.Submission
	if err := json.Unmarshal(data, &submission); err != nil {
		return domain.Submission{}, domain.WrapError(domain.ErrInvalidInput, "decode submission", err)
	}
	if submission.ID == "" || submission.StorageKey == "" {
		return domain.Submission{}, domain.WrapError(domain.ErrInvalidInput, "decode submission", errors.New("id and storage_key are required"))
	}
	return submission, nil
}
