// Package metrics collects Prometheus metrics of the API server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the set of events handlers and middleware report.
type Recorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordAuthFailure(reason string)
	RecordRateLimited(route string)
	LastSignedInUpdateFailed()
}

// Collector реализует Recorder поверх Prometheus
type Collector struct {
	requests            *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	authFailures        *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec
	lastSignedInFailure prometheus.Counter
}

var _ Recorder = (*Collector)(nil)

// NewCollector создает Collector и регистрирует метрики в reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "babysteps_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "babysteps_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "babysteps_auth_failures_total",
			Help: "Rejected authentication attempts by reason",
		}, []string{"reason"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "babysteps_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"route"}),
		lastSignedInFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "babysteps_last_signed_in_update_failures_total",
			Help: "Failed best-effort updates of users.last_signed_in",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.authFailures,
		c.rateLimited,
		c.lastSignedInFailure,
	)

	return c
}

// RecordRequest записывает завершенный HTTP запрос
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthFailure записывает отказ в аутентификации
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordRateLimited записывает запрос, отклоненный rate limiter'ом
func (c *Collector) RecordRateLimited(route string) {
	c.rateLimited.WithLabelValues(route).Inc()
}

// LastSignedInUpdateFailed записывает неудачное обновление last_signed_in
func (c *Collector) LastSignedInUpdateFailed() {
	c.lastSignedInFailure.Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every event; used when metrics are not wired (tests, tools).
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) RecordAuthFailure(string)                          {}
func (Nop) RecordRateLimited(string)                          {}
func (Nop) LastSignedInUpdateFailed()                         {}
