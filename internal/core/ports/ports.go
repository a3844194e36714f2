package ports

import (
	"context"
	"time"

	"github.com/poyrazK/dnsq/internal/core/domain"
)

// Transport carries one query to a server and returns its reply datagram.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	// Receive blocks for at most timeout (zero waits forever).
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)
	Close() error
}

// HistoryRecorder stores completed lookups.
type HistoryRecorder interface {
	Record(ctx context.Context, result *domain.LookupResult) error
	Recent(ctx context.Context, n int64) ([]domain.LookupResult, error)
}
