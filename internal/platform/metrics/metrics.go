// Package metrics declares the Prometheus collectors exported by the ledger core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "estate_ledger"

// HTTPRequests counts handled requests by route template and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests handled, by method, route and status.",
}, []string{"method", "route", "status"})

// HTTPLatency observes request latency in seconds.
var HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// RateLimited counts requests rejected by the rate limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected because the rate limit was reached.",
})

// JournalEntries counts journal writes by kind (posted, reversed, voided).
var JournalEntries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "journal",
	Name:      "entries_total",
	Help:      "Journal entries written, by kind.",
}, []string{"kind"})

// JournalRejections counts journal postings rejected by validation rule.
var JournalRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "journal",
	Name:      "rejections_total",
	Help:      "Journal postings rejected, by validation rule.",
}, []string{"rule"})

// Receipts counts receipt writes by kind (created, deleted).
var Receipts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "receipts",
	Name:      "total",
	Help:      "Receipts written, by kind.",
}, []string{"kind"})

// AllocatedAmount sums money applied to installments.
var AllocatedAmount = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "receipts",
	Name:      "allocated_amount_total",
	Help:      "Money allocated to installments by receipts.",
})

// UnallocatedAmount sums overpayments carried as client credit.
var UnallocatedAmount = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "receipts",
	Name:      "unallocated_amount_total",
	Help:      "Receipt money left unallocated as client credit.",
})

// ConcurrencyRetries counts units of work retried after a serialization conflict.
var ConcurrencyRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "store",
	Name:      "concurrency_retries_total",
	Help:      "Retries after a concurrency conflict, by operation.",
}, []string{"operation"})

// BalanceCacheLookups counts balance cache lookups by result (hit, miss, error).
var BalanceCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "balance_cache",
	Name:      "lookups_total",
	Help:      "Balance cache lookups, by result.",
}, []string{"result"})

// PlansCreated counts payment plans created.
var PlansCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "plans",
	Name:      "created_total",
	Help:      "Payment plans created.",
})
