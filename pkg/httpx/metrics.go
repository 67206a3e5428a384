package httpx

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once
	metricsErr  error

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	tokensIssuedTotal *prometheus.CounterVec
	tokenDeniedTotal  *prometheus.CounterVec
	policyDeniedTotal *prometheus.CounterVec
)

// RegisterMetrics initializes the HTTP and token metrics on the default
// registry and returns the handler to mount at /metrics. Safe to call
// more than once.
func RegisterMetrics() (http.Handler, error) {
	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "In-flight requests by method and path",
		}, []string{"method", "path"})

		tokensIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokens_issued_total",
			Help: "Tokens issued by grant type",
		}, []string{"grant_type"})

		tokenDeniedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "token_denied_total",
			Help: "Token requests denied by grant type and reason",
		}, []string{"grant_type", "reason"})

		policyDeniedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "policy_denied_total",
			Help: "Authorization policy denials by policy name",
		}, []string{"policy"})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight,
			tokensIssuedTotal, tokenDeniedTotal, policyDeniedTotal,
		} {
			if err := registerCollector(prometheus.DefaultRegisterer, c); err != nil {
				metricsErr = err
				return
			}
		}
	})
	if metricsErr != nil {
		return nil, metricsErr
	}
	return promhttp.Handler(), nil
}

// MetricsMiddleware instruments requests with counters, latency and
// in-flight gauges. RegisterMetrics must have been called first; until
// then the middleware is a pass-through.
func MetricsMiddleware(next http.Handler) http.Handler {
	if httpRequestsTotal == nil || httpRequestDuration == nil || httpInflight == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The matched route pattern keeps label cardinality bounded;
		// fall back to the raw path when no pattern matched.
		pathLabel := r.Pattern
		if pathLabel == "" {
			pathLabel = r.URL.Path
		}
		method := r.Method

		httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(rec.status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

// RecordTokenIssued counts a successful token issuance.
func RecordTokenIssued(grantType string) {
	if tokensIssuedTotal != nil {
		tokensIssuedTotal.WithLabelValues(grantType).Inc()
	}
}

// RecordTokenDenied counts a denied token request.
func RecordTokenDenied(grantType, reason string) {
	if tokenDeniedTotal != nil {
		tokenDeniedTotal.WithLabelValues(grantType, reason).Inc()
	}
}

// RecordPolicyDenied counts an authorization policy denial.
func RecordPolicyDenied(policy string) {
	if policyDeniedTotal != nil {
		policyDeniedTotal.WithLabelValues(policy).Inc()
	}
}

func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

type responseWriter struct {
	http.ResponseWriter

	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
