// Package metrics owns the Prometheus registry of the service and the collectors fed by
// the HTTP layer, the listings and the background jobs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "projecthub"

// Metrics groups every collector. A fresh registry per instance keeps tests isolated.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	listings     *prometheus.CounterVec
	jobRuns      *prometheus.CounterVec
	jobAffected  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		listings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_requests_total",
			Help:      "Paginated listings served, by entity and envelope outcome",
		}, []string{"entity", "outcome"}),
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job executions by job and status",
		}, []string{"job", "status"}),
		jobAffected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_rows_affected_total",
			Help:      "Rows changed by background jobs",
		}, []string{"job"}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records one sample per request, labelled by the matched route template
// so path parameters do not explode the label space.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveListing counts one listing outcome. An empty kind means success.
func (m *Metrics) ObserveListing(entity, kind string) {
	outcome := kind
	if outcome == "" {
		outcome = "ok"
	}
	m.listings.WithLabelValues(entity, outcome).Inc()
}

// ObserveJob records one run of a background job.
func (m *Metrics) ObserveJob(job string, affected int64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	if affected > 0 {
		m.jobAffected.WithLabelValues(job).Add(float64(affected))
	}
}
