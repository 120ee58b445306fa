package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	// LoginCounter counts login attempts
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
	)

	// AuthErrorCounter counts authentication errors by type
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"error_type"},
	)

	// CodesGeneratedCounter counts generated identifiers by rule
	CodesGeneratedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "code_rule_generated_total",
			Help: "Total number of identifiers generated",
		},
		[]string{"rule"},
	)

	// ApplicationReloadCounter counts application discovery reloads
	ApplicationReloadCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "application_reloads_total",
			Help: "Total number of application discovery reloads",
		},
	)

	// StateTransitionCounter counts document state transitions by entity type
	StateTransitionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_state_transitions_total",
			Help: "Total number of document state transitions",
		},
		[]string{"entity_type"},
	)

	// MenuCacheHitCounter counts navigation cache hits
	MenuCacheHitCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "menu_cache_hits_total",
			Help: "Total number of navigation cache hits",
		},
	)

	// MenuCacheMissCounter counts navigation cache misses
	MenuCacheMissCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "menu_cache_misses_total",
			Help: "Total number of navigation cache misses",
		},
	)
)

var serviceName string

// InitMetrics registers all metrics for the service
func InitMetrics(service string) {
	serviceName = service
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDurationHistogram)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(CodesGeneratedCounter)
	prometheus.MustRegister(ApplicationReloadCounter)
	prometheus.MustRegister(StateTransitionCounter)
	prometheus.MustRegister(MenuCacheHitCounter)
	prometheus.MustRegister(MenuCacheMissCounter)
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// MetricsMiddleware creates an Echo middleware that records HTTP request metrics
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			RequestCounter.WithLabelValues(serviceName, method, path, statusStr).Inc()

			duration := time.Since(start).Seconds()
			RequestDurationHistogram.WithLabelValues(serviceName, method, path, statusStr).Observe(duration)

			return err
		}
	}
}

// Handler returns an HTTP handler for exposing Prometheus metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
