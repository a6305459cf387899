package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	remoteRequestsTotal  *prometheus.CounterVec
	remoteLatencySeconds *prometheus.HistogramVec

	storeOperationsTotal *prometheus.CounterVec
	cacheLookupsTotal    *prometheus.CounterVec

	chatConnectionsActive prometheus.Gauge
	chatMessagesTotal     *prometheus.CounterVec
	sseClientsActive      prometheus.Gauge
	notificationsTotal    *prometheus.CounterVec

	uploadRequestsTotal  *prometheus.CounterVec
	uploadRejectedTotal  *prometheus.CounterVec
	uploadLatencySeconds prometheus.Histogram
)

var latencyBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0}

// RegisterMetrics initialises the Prometheus collectors used by the gateway.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plaksha_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plaksha_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: latencyBuckets,
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plaksha_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		remoteRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plaksha_remote_requests_total",
			Help: "Upstream API calls by method and outcome kind.",
		}, []string{"method", "outcome"})

		remoteLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plaksha_remote_latency_seconds",
			Help:    "Latency distribution for upstream API calls.",
			Buckets: latencyBuckets,
		}, []string{"method"})

		storeOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plaksha_local_store_operations_total",
			Help: "Local data store operations by collection, action and outcome.",
		}, []string{"collection", "action", "outcome"})

		cacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plaksha_cache_lookups_total",
			Help: "Read cache lookups by cache name and result.",
		}, []string{"cache", "result"})

		chatConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plaksha_chat_connections_active",
			Help: "Open chat websocket connections on this node.",
		})

		chatMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plaksha_chat_messages_total",
			Help: "Chat messages fanned out by source.",
		}, []string{"source"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plaksha_notification_streams_active",
			Help: "Open notification event streams on this node.",
		})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plaksha_notifications_published_total",
			Help: "Notifications published by type.",
		}, []string{"type"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plaksha_upload_requests_total",
			Help: "Accepted uploads by purpose.",
		}, []string{"purpose"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plaksha_upload_rejected_total",
			Help: "Rejected uploads by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "plaksha_upload_latency_seconds",
			Help:    "Latency distribution for uploads.",
			Buckets: latencyBuckets,
		})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			remoteRequestsTotal, remoteLatencySeconds,
			storeOperationsTotal, cacheLookupsTotal,
			chatConnectionsActive, chatMessagesTotal, sseClientsActive, notificationsTotal,
			uploadRequestsTotal, uploadRejectedTotal, uploadLatencySeconds,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// RemoteRequests counts upstream calls.
func RemoteRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return remoteRequestsTotal
}

// RemoteLatency times upstream calls.
func RemoteLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return remoteLatencySeconds
}

// StoreOperations counts local store reads and writes.
func StoreOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return storeOperationsTotal
}

// CacheLookups counts read cache hits and misses.
func CacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheLookupsTotal
}

func ChatConnections() prometheus.Gauge {
	RegisterMetrics()
	return chatConnectionsActive
}

func ChatMessages() *prometheus.CounterVec {
	RegisterMetrics()
	return chatMessagesTotal
}

func SSEClients() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}
