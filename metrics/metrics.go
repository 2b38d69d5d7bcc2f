// Package metrics exposes Prometheus metrics for the data store and the HTTP
// surface on a private registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"student-manager-go/db"
	"student-manager-go/models"
)

// Collector owns the registry and metric vectors.
type Collector struct {
	registry *prometheus.Registry

	StoreOperations     *prometheus.CounterVec
	StoreDuration       *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveSessions      prometheus.Gauge
}

// NewCollector registers every metric under namespace.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of data store operations",
		}, []string{"operation", "status"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of data store operations in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of page sessions held in memory",
		}),
	}
	reg.MustRegister(
		c.StoreOperations,
		c.StoreDuration,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
		c.ActiveSessions,
		collectors.NewGoCollector(),
	)
	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := ctx.Request.Method
		c.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func (c *Collector) observe(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, db.ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	c.StoreOperations.WithLabelValues(op, status).Inc()
	c.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// InstrumentedStore decorates a DataStore with operation metrics.
type InstrumentedStore struct {
	db.DataStore
	c *Collector
}

// Instrument wraps store so every call is counted and timed by c.
func (c *Collector) Instrument(store db.DataStore) *InstrumentedStore {
	return &InstrumentedStore{DataStore: store, c: c}
}

func (s *InstrumentedStore) List(ctx context.Context) (out []models.StudentRecord, err error) {
	defer func(start time.Time) { s.c.observe("list", start, err) }(time.Now())
	return s.DataStore.List(ctx)
}

func (s *InstrumentedStore) Insert(ctx context.Context, d models.Draft) (rec models.StudentRecord, err error) {
	defer func(start time.Time) { s.c.observe("insert", start, err) }(time.Now())
	return s.DataStore.Insert(ctx, d)
}

func (s *InstrumentedStore) Update(ctx context.Context, id int64, d models.Draft) (rec models.StudentRecord, err error) {
	defer func(start time.Time) { s.c.observe("update", start, err) }(time.Now())
	return s.DataStore.Update(ctx, id, d)
}

func (s *InstrumentedStore) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.c.observe("delete", start, err) }(time.Now())
	return s.DataStore.Delete(ctx, id)
}
