package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared HTTP metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	votesRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votes_recorded_total",
		Help: "Votes recorded together with their survey counter increment.",
	})

	paymentsRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Payments written to the ledger.",
	})
)

var initOnce sync.Once

// Init registers metrics in the default registry. Safe to call more than
// once; only the first call registers.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight,
			httpRequestsTotal,
			httpRequestDuration,
			votesRecordedTotal,
			paymentsRecordedTotal,
		)
	})
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// VoteRecorded increments the vote counter metric.
func VoteRecorded() { votesRecordedTotal.Inc() }

// PaymentRecorded increments the payment counter metric.
func PaymentRecorded() { paymentsRecordedTotal.Inc() }

// Instrument measures RPS, latency and in-flight requests.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses identifier segments so metric label cardinality
// stays bounded.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	switch {
	case len(parts) == 2 && parts[0] == "surveyDetails":
		return "/surveyDetails/:id"
	case len(parts) == 2 && parts[0] == "report":
		return "/report/:id"
	case len(parts) == 2 && parts[0] == "reported":
		return "/reported/:email"
	case len(parts) == 2 && parts[0] == "payments":
		return "/payments/:email"
	case len(parts) == 3 && parts[0] == "users" && parts[1] == "role":
		return "/users/role/:id"
	case len(parts) == 3 && parts[0] == "users":
		switch parts[1] {
		case "admin", "surveyor", "prouser", "user":
			return "/users/" + parts[1] + "/:email"
		}
	case len(parts) == 2 && parts[0] == "users":
		return "/users/:id"
	case len(parts) == 3 && parts[0] == "surveys" && parts[2] == "status":
		return "/surveys/:id/status"
	}
	return path
}

// statusWriter records the response code for metrics and logs.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE responses streaming through the instrumented handler.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
