// Package metrics exposes prediction and HTTP metrics in the Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Error kinds recorded by prediction_errors_total
const (
	KindSchema     = "schema"
	KindSemantic   = "semantic"
	KindInference  = "inference"
	KindUnexpected = "unexpected"
)

// Metrics owns its own registry so tests and multiple instances don't collide
// on the global default registerer. A nil *Metrics is a no-op.
type Metrics struct {
	registry         *prometheus.Registry
	predictions      *prometheus.CounterVec
	predictionErrors *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Successful price predictions by confidence label.",
		}, []string{"confidence"}),
		predictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_errors_total",
			Help: "Failed prediction requests by error kind.",
		}, []string{"kind"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.predictions,
		m.predictionErrors,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePrediction counts one successful prediction
func (m *Metrics) ObservePrediction(confidence string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(confidence).Inc()
}

// ObservePredictionError counts one failed prediction of the given kind
func (m *Metrics) ObservePredictionError(kind string) {
	if m == nil {
		return
	}
	m.predictionErrors.WithLabelValues(kind).Inc()
}

// Middleware records request latency labelled by the matched route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
