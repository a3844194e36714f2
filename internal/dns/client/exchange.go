package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poyrazK/dnsq/internal/core/ports"
	"github.com/poyrazK/dnsq/internal/infrastructure/metrics"
)

// RetryError is returned once every receive attempt has timed out.
type RetryError struct {
	Retries int
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("reached maximum number of retries (%d)", e.Retries)
}

// ReceiveWithRetry waits for one reply, allowing retries timeouts before
// giving up, so at most retries+1 receive calls are made. The query is not
// sent again: a retry only helps when the server answers late. Any error
// other than a timeout is returned immediately. The number of attempts made
// is returned alongside the reply.
func ReceiveWithRetry(ctx context.Context, t ports.Transport, retries int, timeout time.Duration, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	count := 0
	for attempt := 1; ; attempt++ {
		data, err := t.Receive(ctx, timeout)
		if err == nil {
			metrics.ReceiveAttempts.WithLabelValues("reply").Inc()
			logger.Debug("reply received", "attempt", attempt, "bytes", len(data))
			return data, attempt, nil
		}

		if !errors.Is(err, ErrTimeout) {
			metrics.ReceiveAttempts.WithLabelValues("error").Inc()
			return nil, attempt, err
		}

		metrics.ReceiveAttempts.WithLabelValues("timeout").Inc()
		logger.Warn("receive timed out", "attempt", attempt, "timeout", timeout)
		count++
		if count > retries {
			return nil, attempt, &RetryError{Retries: retries}
		}
	}
}

// Exchange sends query once and waits for the reply.
func Exchange(ctx context.Context, t ports.Transport, query []byte, retries int, timeout time.Duration, logger *slog.Logger) ([]byte, int, error) {
	start := time.Now()
	if err := t.Send(ctx, query); err != nil {
		return nil, 0, err
	}
	data, attempts, err := ReceiveWithRetry(ctx, t, retries, timeout, logger)
	if err != nil {
		return nil, attempts, err
	}
	metrics.ExchangeDuration.Observe(time.Since(start).Seconds())
	return data, attempts, nil
}
