// Package metrics exposes runtime counters as Prometheus collectors.
//
// A Collector implements the observer interfaces of the controller,
// router, realtime, and model packages, so one value can be handed to
// each of them:
//
//	m := metrics.New(metrics.WithRegistry(reg))
//	r := router.New(env, router.WithObserver(m))
//
// Metrics collected:
//   - eventum_navigations_total: navigations by route and status
//   - eventum_navigation_duration_seconds: time from request to Action return
//   - eventum_construct_failures_total: route factories that failed or panicked
//   - eventum_handlers_released_total: listeners removed by controller teardown
//   - eventum_stale_continuations_total: async results dropped after teardown
//   - eventum_realtime_messages_total: push messages delivered
//   - eventum_realtime_reconnects_total: reconnect attempts
//   - eventum_realtime_errors_total: channel errors by type
//   - eventum_model_requests_total: model calls by operation and status
//   - eventum_model_request_duration_seconds: model call latency
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "eventum").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "eventum",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the runtime metrics.
type Collector struct {
	navigations        *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	constructFailures  *prometheus.CounterVec
	handlersReleased   prometheus.Counter
	staleDropped       prometheus.Counter
	realtimeMessages   prometheus.Counter
	realtimeReconnects prometheus.Counter
	realtimeErrors     *prometheus.CounterVec
	modelRequests      *prometheus.CounterVec
	modelDuration      *prometheus.HistogramVec
}

// New registers the collectors and returns them. Registering twice on the
// same registry panics, as with promauto.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	histogramVec := func(name, help string, labels ...string) *prometheus.HistogramVec {
		return factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, labels)
	}

	return &Collector{
		navigations:        counterVec("navigations_total", "Total navigations by route and status", "route", "status"),
		navigationDuration: histogramVec("navigation_duration_seconds", "Navigation duration in seconds", "route"),
		constructFailures:  counterVec("construct_failures_total", "Controller factories that failed or panicked", "route"),
		handlersReleased:   counter("handlers_released_total", "Event listeners removed by controller teardown"),
		staleDropped:       counter("stale_continuations_total", "Async continuations dropped after their owner was destroyed"),
		realtimeMessages:   counter("realtime_messages_total", "Push messages delivered to a live session"),
		realtimeReconnects: counter("realtime_reconnects_total", "Realtime reconnect attempts"),
		realtimeErrors:     counterVec("realtime_errors_total", "Realtime channel errors by type", "type"),
		modelRequests:      counterVec("model_requests_total", "Model calls by operation and status", "op", "status"),
		modelDuration:      histogramVec("model_request_duration_seconds", "Model call duration in seconds", "op"),
	}
}

// Navigated records one navigation.
func (c *Collector) Navigated(route string, d time.Duration, err error) {
	if route == "" {
		route = "not_found"
	}
	c.navigations.WithLabelValues(route, status(err)).Inc()
	c.navigationDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ConstructFailed records a factory failure for route.
func (c *Collector) ConstructFailed(route string) {
	c.constructFailures.WithLabelValues(route).Inc()
}

// HandlersReleased records listeners removed by a controller teardown.
func (c *Collector) HandlersReleased(n int) {
	c.handlersReleased.Add(float64(n))
}

// StaleDropped records one dropped continuation.
func (c *Collector) StaleDropped() {
	c.staleDropped.Inc()
}

// MessageDelivered records one push message handed to a session handler.
func (c *Collector) MessageDelivered() {
	c.realtimeMessages.Inc()
}

// Reconnecting records one reconnect attempt.
func (c *Collector) Reconnecting(attempt int) {
	c.realtimeReconnects.Inc()
}

// ChannelError records a channel error of the given type.
func (c *Collector) ChannelError(kind string) {
	c.realtimeErrors.WithLabelValues(kind).Inc()
}

// ModelRequest records one model call.
func (c *Collector) ModelRequest(op string, d time.Duration, err error) {
	c.modelRequests.WithLabelValues(op, status(err)).Inc()
	c.modelDuration.WithLabelValues(op).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
