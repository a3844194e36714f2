package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/poyrazK/dnsq/internal/core/domain"
	"github.com/poyrazK/dnsq/internal/core/ports"
	"github.com/poyrazK/dnsq/internal/dns/packet"
	"github.com/poyrazK/dnsq/internal/infrastructure/metrics"
)

// Config holds the per-run lookup settings.
type Config struct {
	Server  string
	Port    int
	Timeout time.Duration
	Retries int
	QType   packet.QueryType

	// ThreadAuthoritative marks answers with the reply's AA bit. When false
	// every answer is reported as nonauth.
	ThreadAuthoritative bool
}

// DefaultConfig returns the documented defaults: 5s timeout, 3 retries, port 53, type A.
func DefaultConfig() Config {
	return Config{
		Port:    53,
		Timeout: 5 * time.Second,
		Retries: 3,
		QType:   packet.A,
	}
}

// Resolver performs one lookup over a Transport.
type Resolver struct {
	Transport ports.Transport
	Config    Config
	Logger    *slog.Logger
	History   ports.HistoryRecorder

	// newID is swapped in tests to pin the transaction id.
	newID func() uint16
}

func NewResolver(t ports.Transport, cfg Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		Transport: t,
		Config:    cfg,
		Logger:    logger,
		newID:     packet.NewTransactionID,
	}
}

// Lookup queries name and writes one line per answer to out. A reply with a
// non-zero rcode returns the partially filled result together with a
// *packet.ResponseError. A successful reply without answers returns a result
// whose Empty method reports true.
func (r *Resolver) Lookup(ctx context.Context, name string, out io.Writer) (*domain.LookupResult, error) {
	start := time.Now()
	result := &domain.LookupResult{
		ID:        uuid.NewString(),
		Name:      name,
		Server:    r.Config.Server,
		CreatedAt: start,
	}
	logger := r.Logger.With("lookup_id", result.ID, "name", name, "server", r.Config.Server)

	newID := r.newID
	if newID == nil {
		newID = packet.NewTransactionID
	}
	query := packet.NewQuery(newID(), name, r.Config.QType)
	data, err := query.Bytes()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	nameLen, err := query.EncodedNameLen()
	if err != nil {
		return nil, err
	}
	logger.Debug("sending query", "id", query.Header.ID, "qtype", r.Config.QType, "bytes", len(data))

	replyData, attempts, err := Exchange(ctx, r.Transport, data, r.Config.Retries, r.Config.Timeout, logger)
	result.Attempts = attempts
	if err != nil {
		return nil, err
	}

	reply, err := packet.ParseReply(replyData, nameLen)
	if reply == nil {
		return nil, fmt.Errorf("parse reply: %w", err)
	}
	if reply.Header.ID != query.Header.ID {
		logger.Warn("transaction id mismatch", "expected", query.Header.ID, "got", reply.Header.ID)
	}
	result.Rcode = reply.Header.ResCode
	metrics.QueriesTotal.WithLabelValues(r.Config.QType.String(), strconv.Itoa(int(result.Rcode))).Inc()
	if err != nil {
		logger.Info("server returned error", "rcode", result.Rcode)
		r.finish(ctx, logger, result, start)
		return result, err
	}

	if reply.Empty() {
		r.finish(ctx, logger, result, start)
		return result, nil
	}

	renderer := &Renderer{
		W:             out,
		Authoritative: r.Config.ThreadAuthoritative && reply.Header.AuthoritativeAnswer,
	}
	err = reply.WalkAnswers(renderer.Render)
	result.Answers = renderer.Answers
	r.finish(ctx, logger, result, start)
	return result, err
}

func (r *Resolver) finish(ctx context.Context, logger *slog.Logger, result *domain.LookupResult, start time.Time) {
	result.Duration = time.Since(start)
	logger.Info("dns lookup",
		"rcode", result.Rcode,
		"answers", len(result.Answers),
		"attempts", result.Attempts,
		"latency", result.Duration,
	)
	if r.History == nil {
		return
	}
	if err := r.History.Record(ctx, result); err != nil {
		logger.Warn("failed to record lookup history", "error", err)
	}
}
