package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_requests_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)

	// Content store metrics
	storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_store_operations_total",
			Help: "Total number of content store operations",
		},
		[]string{"operation", "status"}, // list/get/create/update/remove, success/failure
	)

	// Upload metrics
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_uploads_total",
			Help: "Total number of image upload attempts",
		},
		[]string{"status"}, // success/rejected/failure
	)

	uploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_upload_size_bytes",
			Help:    "Size distribution of accepted image uploads",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	// Link monitor metrics
	brokenLinksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broken_links_total",
			Help: "Total number of broken admin links recorded",
		},
		[]string{"redirected"}, // true/false
	)
)

// Init registers the metrics
func Init() error {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		storeOperationsTotal,
		uploadsTotal,
		uploadBytes,
		brokenLinksTotal,
	)

	return nil
}

// HTTPMetricsMiddleware records HTTP metrics
func HTTPMetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		method := c.Method()
		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}
		statusCode := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
		httpRequestDuration.WithLabelValues(method, route, statusCode).Observe(duration)

		return err
	}
}

// RecordStoreOperation records content store operations
func RecordStoreOperation(operation, status string) {
	storeOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordUpload records an image upload attempt
func RecordUpload(status string, sizeBytes int64) {
	uploadsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		uploadBytes.Observe(float64(sizeBytes))
	}
}

// RecordBrokenLink records a broken admin link hit
func RecordBrokenLink(redirected bool) {
	brokenLinksTotal.WithLabelValues(strconv.FormatBool(redirected)).Inc()
}

// PrometheusHandler returns the Prometheus metrics handler
func PrometheusHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
