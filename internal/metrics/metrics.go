// Package metrics exposes Prometheus collectors for drafts, saves, and launches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signalconfig"

// Recorder owns a private registry and every service collector.
// Params: none; collectors are registered at construction.
// Returns: observer hooks for autosave, storage, launch, and editor lifecycle.
type Recorder struct {
	registry *prometheus.Registry

	autosaves       *prometheus.CounterVec
	autosaveSeconds *prometheus.HistogramVec
	storageWrites   *prometheus.CounterVec
	launches        *prometheus.CounterVec
	openEditors     prometheus.Gauge
}

// New creates a recorder with Go runtime and process collectors.
// Params: none.
// Returns: recorder with registered collectors.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		autosaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "autosave",
			Name:      "saves_total",
			Help:      "Save attempts by trigger and result.",
		}, []string{"trigger", "result"}),
		autosaveSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "autosave",
			Name:      "save_duration_seconds",
			Help:      "Duration of save callbacks.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"trigger"}),
		storageWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "writes_total",
			Help:      "Draft writes into local storage by kind and result.",
		}, []string{"kind", "result"}),
		launches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "launches_total",
			Help:      "Launch attempts by result.",
		}, []string{"result"}),
		openEditors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_editors",
			Help:      "Editor sessions currently open.",
		}),
	}
}

// ObserveSave records one autosave attempt.
func (r *Recorder) ObserveSave(trigger string, err error, elapsed time.Duration) {
	r.autosaves.WithLabelValues(trigger, result(err)).Inc()
	r.autosaveSeconds.WithLabelValues(trigger).Observe(elapsed.Seconds())
}

// ObserveStorageWrite records one draft write.
func (r *Recorder) ObserveStorageWrite(kind string, err error) {
	r.storageWrites.WithLabelValues(kind, result(err)).Inc()
}

// ObserveLaunch records one launch attempt outcome ("launched", "invalid", "error").
func (r *Recorder) ObserveLaunch(outcome string) {
	r.launches.WithLabelValues(outcome).Inc()
}

// SetOpenEditors sets the open editor gauge.
func (r *Recorder) SetOpenEditors(count int) {
	r.openEditors.Set(float64(count))
}

// Registry returns the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
// Params: none.
// Returns: HTTP handler for the metrics path.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
