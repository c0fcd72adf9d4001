package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "report_duration_seconds",
		Help:    "Time spent computing a report, store reads included",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})

	ReportRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "report_rows",
		Help: "Number of rows returned by the last run of a report",
	}, []string{"report"})

	ReportFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_failures_total",
		Help: "Total number of reports that failed to compute",
	}, []string{"report"})

	CatalogWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_writes_total",
		Help: "Total number of successful collection writes",
	}, []string{"collection", "op"})

	CatalogWritesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_writes_failed_total",
		Help: "Total number of failed collection writes",
	}, []string{"collection", "op", "reason"})

	IdempotentReplaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idempotent_replays_total",
		Help: "Total number of create requests answered from a stored idempotency key",
	}, []string{"collection"})

	StoreChangesConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_changes_consumed_total",
		Help: "Total number of document change events consumed",
	}, []string{"collection", "event_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
