// Package monitoring exposes service metrics in Prometheus format.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"diabetesapi/ml"
	"diabetesapi/pipeline"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "diabetesapi"

// Metrics owns a registry and the collectors the service reports to.
// It implements pipeline.Observer.
type Metrics struct {
	registry *prometheus.Registry

	outcomes          *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
	modelLoaded       prometheus.Gauge
	modelGeneration   prometheus.Gauge
	modelReloads      *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a fresh registry, so tests can build
// as many as they like.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "outcomes_total",
			Help:      "Prediction requests by final status tag.",
		}, []string{"status"}),
		inferenceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "inference_duration_seconds",
			Help:      "Time spent inside the predictor.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14), // 50µs to ~400ms
		}, []string{"result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cache_lookups_total",
			Help:      "Prediction cache lookups.",
		}, []string{"result"}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "loaded",
			Help:      "1 when a model is loaded and serving, 0 when degraded.",
		}),
		modelGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "generation",
			Help:      "Generation of the model currently serving.",
		}),
		modelReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "reloads_total",
			Help:      "Model artifact reload attempts.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled.",
		}, []string{"method", "path", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		m.outcomes,
		m.inferenceDuration,
		m.cacheLookups,
		m.modelLoaded,
		m.modelGeneration,
		m.modelReloads,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveOutcome(status pipeline.Status) {
	m.outcomes.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) ObserveInference(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.inferenceDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// SetModel records the model now serving; nil means degraded.
func (m *Metrics) SetModel(model *ml.Model) {
	if model == nil {
		m.modelLoaded.Set(0)
		return
	}
	m.modelLoaded.Set(1)
	m.modelGeneration.Set(float64(model.Generation))
}

// ObserveReload is shaped to be used as ml.Watcher.OnReload.
func (m *Metrics) ObserveReload(model *ml.Model, err error) {
	if err != nil {
		m.modelReloads.WithLabelValues("error").Inc()
		return
	}
	m.modelReloads.WithLabelValues("ok").Inc()
	m.SetModel(model)
}

// ObserveHTTP records one served request. path should be the route pattern,
// not the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, path string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
