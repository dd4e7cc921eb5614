package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pubsub/internal/pubsub"
)

// Registry encapsulates all metrics and provides a clean interface
// for recording metrics without global state
type Registry struct {
	registry *prometheus.Registry

	// Producer metrics
	publishTotal    *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec

	// Dispatcher metrics
	dispatchTotal       *prometheus.CounterVec
	dispatchDuration    *prometheus.HistogramVec
	resolveTotal        *prometheus.CounterVec
	resolvedSubscribers *prometheus.HistogramVec
	deliveryTotal       *prometheus.CounterVec

	// Runtime metrics
	runtimeOperationTotal    *prometheus.CounterVec
	runtimeOperationDuration *prometheus.HistogramVec

	// Registry metrics
	registryHandlers   prometheus.Gauge
	registryEventTypes prometheus.Gauge

	// System health metrics
	systemInfo *prometheus.GaugeVec
	startTime  prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,

		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubsub_producer_publish_total",
				Help: "Total number of publish operations",
			},
			[]string{"producer", "status"}, // status: success, error
		),

		publishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pubsub_producer_publish_duration_seconds",
				Help:    "Time spent publishing events",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"producer"},
		),

		dispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubsub_dispatch_total",
				Help: "Total number of dispatch operations",
			},
			[]string{"binding", "status"}, // status: success, error
		),

		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pubsub_dispatch_duration_seconds",
				Help:    "Time spent dispatching an event to all of its subscribers",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"binding"},
		),

		resolveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubsub_resolve_total",
				Help: "Total number of subscriber resolutions",
			},
			[]string{"binding", "status"}, // status: success, error, empty
		),

		resolvedSubscribers: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pubsub_resolved_subscribers",
				Help:    "Number of subscribers resolved per dispatch",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"binding"},
		),

		deliveryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubsub_delivery_total",
				Help: "Total number of per-handler deliveries by outcome",
			},
			[]string{"strategy", "handler", "event_type", "outcome"}, // outcome: started, duplicate, delivered, failed, dropped
		),

		runtimeOperationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubsub_runtime_operation_total",
				Help: "Total number of durable-execution runtime calls",
			},
			[]string{"operation", "status"}, // operation: StartNew, StartOrSignal, QueryRunning
		),

		runtimeOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pubsub_runtime_operation_duration_seconds",
				Help:    "Time spent on durable-execution runtime calls",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"operation"},
		),

		registryHandlers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pubsub_registry_handlers",
				Help: "Number of handlers in the current registry snapshot",
			},
		),

		registryEventTypes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pubsub_registry_event_types",
				Help: "Number of subscribed event types in the current registry snapshot",
			},
		),

		systemInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pubsub_system_info",
				Help: "System information (value is always 1, labels contain info)",
			},
			[]string{"version", "build_time"},
		),

		startTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pubsub_start_time_seconds",
				Help: "Unix timestamp when the application started",
			},
		),
	}

	// add default Go metrics (memory, GC, goroutines, etc.)
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registry.MustRegister(
		r.publishTotal,
		r.publishDuration,
		r.dispatchTotal,
		r.dispatchDuration,
		r.resolveTotal,
		r.resolvedSubscribers,
		r.deliveryTotal,
		r.runtimeOperationTotal,
		r.runtimeOperationDuration,
		r.registryHandlers,
		r.registryEventTypes,
		r.systemInfo,
		r.startTime,
	)

	r.startTime.SetToCurrentTime()

	return r
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          r.registry,
	})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordProducerPublish records a producer publish operation
func (r *Registry) RecordProducerPublish(producer string, duration time.Duration, err error) {
	r.publishTotal.WithLabelValues(producer, status(err)).Inc()
	r.publishDuration.WithLabelValues(producer).Observe(duration.Seconds())
}

// RecordDispatch records one dispatch unit of work
func (r *Registry) RecordDispatch(binding string, duration time.Duration, err error) {
	r.dispatchTotal.WithLabelValues(binding, status(err)).Inc()
	r.dispatchDuration.WithLabelValues(binding).Observe(duration.Seconds())
}

// RecordResolve records a subscriber resolution
func (r *Registry) RecordResolve(binding string, subscribers int, err error) {
	s := status(err)
	if err == nil && subscribers == 0 {
		s = "empty"
	}

	r.resolveTotal.WithLabelValues(binding, s).Inc()
	if err == nil {
		r.resolvedSubscribers.WithLabelValues(binding).Observe(float64(subscribers))
	}
}

// RecordOutcome implements pubsub.OutcomeRecorder
func (r *Registry) RecordOutcome(strategy, handler, eventType string, outcome pubsub.Outcome) {
	r.deliveryTotal.WithLabelValues(strategy, handler, eventType, string(outcome)).Inc()
}

// RecordRuntimeOperation records a call to the durable-execution runtime
func (r *Registry) RecordRuntimeOperation(operation string, duration time.Duration, err error) {
	r.runtimeOperationTotal.WithLabelValues(operation, status(err)).Inc()
	r.runtimeOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetRegistrySize updates the registry snapshot gauges
func (r *Registry) SetRegistrySize(handlers, eventTypes int) {
	r.registryHandlers.Set(float64(handlers))
	r.registryEventTypes.Set(float64(eventTypes))
}

// SetSystemInfo sets system information metrics
func (r *Registry) SetSystemInfo(version, buildTime string) {
	r.systemInfo.WithLabelValues(version, buildTime).Set(1)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
