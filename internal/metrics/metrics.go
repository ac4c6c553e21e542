// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookEventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hookbucket_webhook_events_received_total",
		Help: "Total number of webhook events accepted and persisted.",
	})

	WebhookDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hookbucket_webhook_duplicates_total",
		Help: "Total number of webhook redeliveries absorbed by the dedup gate.",
	})

	WebhookMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hookbucket_webhook_malformed_total",
		Help: "Total number of inbound payloads that could not be decoded.",
	})

	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hookbucket_storage_errors_total",
		Help: "Total number of object store failures, labelled by operation.",
	}, []string{"operation"})

	RejectedBlobs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hookbucket_rejected_blobs_total",
		Help: "Total number of stored blobs excluded from aggregation because they could not be fetched or decoded.",
	})

	SnapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hookbucket_snapshot_duration_seconds",
		Help:    "Time to list, fetch and classify all stored events.",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hookbucket_http_requests_total",
		Help: "Total number of HTTP requests, labelled by method, path and status.",
	}, []string{"method", "path", "status"})
)
