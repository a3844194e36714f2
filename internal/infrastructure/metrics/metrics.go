package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal tracks completed lookups by query type and response code
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnsq_queries_total",
		Help: "Total number of DNS lookups that received a reply",
	}, []string{"qtype", "rcode"})

	// ReceiveAttempts tracks every receive call and how it ended
	ReceiveAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnsq_receive_attempts_total",
		Help: "Total number of receive attempts by outcome (reply, timeout, error)",
	}, []string{"result"})

	// ExchangeDuration tracks time from send until a reply arrives
	ExchangeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dnsq_exchange_duration_seconds",
		Help:    "Histogram of query round-trip duration",
		Buckets: prometheus.DefBuckets,
	})

	// AnswersRendered tracks rendered answer records by type
	AnswersRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnsq_answers_rendered_total",
		Help: "Total number of answer records written to output",
	}, []string{"type"})
)
