package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StockUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_updates_total",
		Help: "Total number of successful pack stock updates",
	})

	StockUpdateFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_update_failures_total",
		Help: "Total number of failed pack stock updates",
	}, []string{"reason"})

	PacksSynchronizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "packs_synchronized_total",
		Help: "Total number of individual pack updates emitted by synchronization",
	})

	StockUpdateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_update_latency_seconds",
		Help:    "Latency of pack stock update operations",
		Buckets: prometheus.DefBuckets,
	})

	ConsistencyChecksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_consistency_checks_total",
		Help: "Total number of stock consistency checks",
	})

	ConsistencyViolationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_consistency_violations_total",
		Help: "Total number of consistency checks that found inconsistent packs",
	})

	ProductAggregationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "product_stock_aggregation_latency_seconds",
		Help:    "Latency of product-level stock aggregation",
		Buckets: prometheus.DefBuckets,
	})

	InventoryTransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_transactions_total",
		Help: "Total number of processed inventory transactions",
	}, []string{"action_type"})

	AuditWriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_audit_write_failures_total",
		Help: "Total number of audit entries that could not be persisted",
	})

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
