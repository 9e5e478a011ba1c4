package metrics

import (
	"net/http"

	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the service's Prometheus collectors on a private registry.
type MetricsManager struct {
	Registry *prometheus.Registry

	ListingsCreatedTotal  prometheus.Counter
	ListingsDeletedTotal  prometheus.Counter
	ViewsIncrementedTotal prometheus.Counter
	FeedPagesServedTotal  *prometheus.CounterVec   // mode: browse|search|since
	APIErrorsTotal        *prometheus.CounterVec   // method, error_type
	APILatency            *prometheus.HistogramVec // method
}

func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		ListingsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Total number of listings created.",
		}),
		ListingsDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_deleted_total",
			Help:      "Total number of listings soft-deleted.",
		}),
		ViewsIncrementedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_views_total",
			Help:      "Total number of listing views recorded.",
		}),
		FeedPagesServedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_pages_served_total",
			Help:      "Feed responses served by query mode.",
		}, []string{"mode"}),
		APIErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API errors by method.",
		}, []string{"method", "error_type"}),
		APILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_latency_seconds",
			Help:      "Latency of API requests by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	registry.MustRegister(
		m.ListingsCreatedTotal,
		m.ListingsDeletedTotal,
		m.ViewsIncrementedTotal,
		m.FeedPagesServedTotal,
		m.APIErrorsTotal,
		m.APILatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// NewMetricsServer returns an HTTP server exposing /metrics, or nil when port is empty.
func NewMetricsServer(port string, m *MetricsManager, log *logger.Logger) *http.Server {
	if port == "" {
		log.Info("Metrics server port not configured, metrics will not be exposed")
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	log.Info("Metrics server configured", zap.String("port", port), zap.String("path", "/metrics"))
	return &http.Server{Addr: ":" + port, Handler: mux}
}

func (m *MetricsManager) ListingCreated()  { m.ListingsCreatedTotal.Inc() }
func (m *MetricsManager) ListingDeleted()  { m.ListingsDeletedTotal.Inc() }
func (m *MetricsManager) ViewIncremented() { m.ViewsIncrementedTotal.Inc() }

func (m *MetricsManager) FeedServed(mode string) {
	m.FeedPagesServedTotal.WithLabelValues(mode).Inc()
}
