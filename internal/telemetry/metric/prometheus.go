package metric

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/minipay-go/internal/core/domain"
)

// Outcome label values besides the error kinds.
const (
	OutcomeOK = "ok"
)

// Logout reasons.
const (
	ReasonUser   = "user"
	ReasonForced = "forced"
)

// Registry holds all application metrics on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	// Client metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	LoginsTotal     *prometheus.CounterVec
	LogoutsTotal    *prometheus.CounterVec

	// HTTP server metrics (devserver)
	HTTPInFlight        prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	buildInfo *prometheus.GaugeVec
}

// NewRegistry creates a registry with every minipay metric registered.
// Process and Go runtime collectors are included when withRuntime is set.
func NewRegistry(withRuntime bool) *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minipay",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Backend operations by outcome (ok or error kind).",
		}, []string{"operation", "outcome"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "minipay",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Backend operation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minipay",
			Subsystem: "client",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),

		LogoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minipay",
			Subsystem: "client",
			Name:      "logouts_total",
			Help:      "Logouts by reason (user or forced).",
		}, []string{"reason"}),

		HTTPInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "minipay",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minipay",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "minipay",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "minipay",
			Name:      "build_info",
			Help:      "Build information; constant 1 labelled by version and commit.",
		}, []string{"version", "commit"}),
	}

	r.registry.MustRegister(
		r.RequestsTotal, r.RequestDuration, r.LoginsTotal, r.LogoutsTotal,
		r.HTTPInFlight, r.HTTPRequestsTotal, r.HTTPRequestDuration,
		r.buildInfo,
	)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// Registerer exposes the underlying registry for extra collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for reading.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Outcome maps an operation error to a bounded label value.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return string(domain.KindOf(err))
}

// ObserveRequest records one backend operation.
func (r *Registry) ObserveRequest(operation string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(operation, Outcome(err)).Inc()
	r.RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveLogin records a login attempt.
func (r *Registry) ObserveLogin(err error) {
	if r == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.LoginsTotal.WithLabelValues(result).Inc()
}

// ObserveLogout records a logout.
func (r *Registry) ObserveLogout(reason string) {
	if r == nil {
		return
	}
	r.LogoutsTotal.WithLabelValues(reason).Inc()
}

// SetBuildInfo sets build_info{version,commit} to 1.
func (r *Registry) SetBuildInfo(version, commit string) {
	if r == nil {
		return
	}
	r.buildInfo.WithLabelValues(version, commit).Set(1)
}

// WriteTextfile writes the registry to path in the Prometheus text format.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil {
		return errors.New("metrics registry is nil")
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Instrument wraps next to measure in-flight requests, rates and latency.
// The path label uses the matched ServeMux pattern when available so that
// label cardinality stays bounded.
func (r *Registry) Instrument(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.HTTPInFlight.Inc()
		defer r.HTTPInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, req)

		path := req.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(sw.code)
		r.HTTPRequestDuration.WithLabelValues(req.Method, path, status).Observe(time.Since(start).Seconds())
		r.HTTPRequestsTotal.WithLabelValues(req.Method, path, status).Inc()
	})
}

// statusWriter captures the response code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
