package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/poyrazK/dnsq/internal/adapters/history"
	"github.com/poyrazK/dnsq/internal/core/ports"
	"github.com/poyrazK/dnsq/internal/dns/client"
	"github.com/poyrazK/dnsq/internal/dns/packet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

// dialFn opens the transport; tests replace it.
var dialFn = func(server string, port int) (ports.Transport, error) {
	return client.DialUDP(server, port)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	opts, err := parseArgs(args, getenv)
	if err != nil {
		return report(stderr, err)
	}

	logger := newLogger(stderr, opts.Verbose)
	if opts.DumpMetrics {
		defer dumpMetrics(stderr, logger)
	}

	var hist *history.RedisHistory
	if opts.RedisAddr != "" {
		hist = history.NewRedisHistory(opts.RedisAddr, getenv("DNSQ_REDIS_PASSWORD"), 0)
		defer func() { _ = hist.Close() }()
	}

	if opts.History > 0 {
		return report(stderr, printHistory(ctx, hist, opts.History, stdout))
	}

	transport, err := dialFn(opts.Server, opts.Port)
	if err != nil {
		return report(stderr, err)
	}
	defer func() { _ = transport.Close() }()

	resolver := client.NewResolver(transport, opts.Config, logger)
	if hist != nil {
		resolver.History = hist
	}

	result, err := resolver.Lookup(ctx, opts.Name, stdout)
	if err != nil {
		return report(stderr, err)
	}
	if result.Empty() {
		fmt.Fprintln(stderr, "NOTFOUND")
	}
	return 0
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// report writes err in the ERROR\t<message> form and returns the exit status.
func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if re, ok := packet.IsResponseError(err); ok && re.NotFound() {
		fmt.Fprintln(w, "NOTFOUND")
		return re.ExitStatus()
	}

	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(w, ue.msg)
		fmt.Fprintln(w, usageLine)
		return 1
	}

	fmt.Fprintf(w, "ERROR\t%v\n", err)
	return exitStatus(err)
}

// exitStatus maps an error to the process status.
func exitStatus(err error) int {
	if re, ok := packet.IsResponseError(err); ok {
		return re.ExitStatus()
	}
	var retryErr *client.RetryError
	if errors.As(err, &retryErr) {
		return 1
	}
	if errno, ok := client.Errno(err); ok && errno < 256 {
		return errno
	}
	return 1
}

func printHistory(ctx context.Context, hist *history.RedisHistory, n int64, w io.Writer) error {
	if err := hist.Ping(ctx); err != nil {
		return fmt.Errorf("history store unreachable: %w", err)
	}
	entries, err := hist.Recent(ctx, n)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	enc := json.NewEncoder(w)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func dumpMetrics(w io.Writer, logger *slog.Logger) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		logger.Error("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			logger.Error("failed to write metrics", "error", err)
			return
		}
	}
}
