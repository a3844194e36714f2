package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/poyrazK/dnsq/internal/dns/client"
	"github.com/poyrazK/dnsq/internal/dns/packet"
)

const usageLine = "Usage: dnsq [-t <time>] [-r <retries>] [-p <port>] @<svr> <name>"

// usageError marks problems with the command line.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

type options struct {
	client.Config
	Name string

	Verbose     bool
	DumpMetrics bool
	History     int64
	RedisAddr   string
}

// parseArgs reads flags and the @server/name positionals. Flags may appear
// anywhere on the line. Environment values seed the flag defaults.
func parseArgs(args []string, getenv func(string) string) (*options, error) {
	opts := &options{Config: client.DefaultConfig()}

	timeout, err := envInt(getenv, "DNSQ_TIMEOUT", int(opts.Timeout/time.Second))
	if err != nil {
		return nil, err
	}
	retries, err := envInt(getenv, "DNSQ_RETRIES", opts.Retries)
	if err != nil {
		return nil, err
	}
	port, err := envInt(getenv, "DNSQ_PORT", opts.Port)
	if err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("dnsq", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&timeout, "t", timeout, "Seconds to wait for each reply (0 waits forever)")
	fs.IntVar(&opts.Retries, "r", retries, "Receive timeouts tolerated before giving up")
	fs.IntVar(&opts.Port, "p", port, "DNS server UDP port")
	qtype := fs.String("q", "A", "Query type: A or CNAME")
	fs.BoolVar(&opts.ThreadAuthoritative, "aa", false, "Report the reply's authoritative bit instead of nonauth")
	fs.BoolVar(&opts.Verbose, "v", false, "Write debug logs to stderr")
	fs.BoolVar(&opts.DumpMetrics, "metrics", false, "Dump metrics to stderr on exit")
	fs.Int64Var(&opts.History, "history", 0, "Print the N most recent lookups from Redis and exit")
	opts.RedisAddr = getenv("DNSQ_REDIS_ADDR")

	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return nil, &usageError{msg: err.Error()}
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		rest = fs.Args()[1:]
	}

	if timeout < 0 || opts.Retries < 0 {
		return nil, &usageError{msg: "timeout and retries must not be negative"}
	}
	if int64(timeout) > math.MaxInt64/int64(time.Second) {
		return nil, &usageError{msg: fmt.Sprintf("timeout %d seconds is too large", timeout)}
	}
	opts.Timeout = time.Duration(timeout) * time.Second
	if opts.QType, err = packet.ParseQueryType(*qtype); err != nil {
		return nil, &usageError{msg: err.Error()}
	}

	if opts.History > 0 {
		if opts.RedisAddr == "" {
			return nil, &usageError{msg: "-history requires DNSQ_REDIS_ADDR"}
		}
		return opts, nil
	}

	if len(positional) != 2 {
		if len(positional) > 2 {
			return nil, &usageError{msg: fmt.Sprintf("unexpected argument %q", positional[2])}
		}
		return nil, &usageError{msg: "A server and a lookup name must be passed"}
	}
	opts.Server = strings.TrimPrefix(positional[0], "@")
	opts.Name = positional[1]
	return opts, nil
}

func envInt(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &usageError{msg: fmt.Sprintf("%s: %v", key, errors.Unwrap(err))}
	}
	return v, nil
}
