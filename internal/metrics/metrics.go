// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "labelstation"

// Collector holds the station metrics on its own registry.
// It satisfies the pipeline metrics hook and the dispatcher observer.
type Collector struct {
	registry *prometheus.Registry

	DevicesProcessed *prometheus.CounterVec
	Prints           *prometheus.CounterVec
	ParseErrors      prometheus.Counter
	NextSTCGauge     prometheus.Gauge
	DispatchDuration *prometheus.HistogramVec
	MonitorState     prometheus.Gauge
}

// New creates and registers every collector, including Go runtime
// and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		DevicesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "devices_processed_total",
				Help:      "Parsed devices run through the pipeline, by final status",
			},
			[]string{"status"},
		),

		Prints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prints_total",
				Help:      "Print jobs per printer role and result",
			},
			[]string{"printer", "result"},
		),

		ParseErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parse_errors_total",
				Help:      "Serial input units that matched no frame pattern",
			},
		),

		NextSTCGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "next_stc",
				Help:      "STC value the next device will receive",
			},
		),

		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_seconds",
				Help:      "Time spent sending one print job",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"printer"},
		),

		MonitorState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "monitor_state",
				Help:      "Serial monitor state (0=disconnected, 1=connected, 2=monitoring)",
			},
		),
	}

	c.registry.MustRegister(
		c.DevicesProcessed,
		c.Prints,
		c.ParseErrors,
		c.NextSTCGauge,
		c.DispatchDuration,
		c.MonitorState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry served on /metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// DeviceProcessed counts one finished record.
func (c *Collector) DeviceProcessed(status string) {
	if status == "" {
		status = "unknown"
	}
	c.DevicesProcessed.WithLabelValues(status).Inc()
}

// ParseError counts one rejected input unit.
func (c *Collector) ParseError() {
	c.ParseErrors.Inc()
}

// NextSTC publishes the pending STC value.
func (c *Collector) NextSTC(v int) {
	c.NextSTCGauge.Set(float64(v))
}

// ObserveDispatch records one print job.
func (c *Collector) ObserveDispatch(role string, ok bool, elapsed time.Duration) {
	result := "success"
	if !ok {
		result = "failure"
	}
	c.Prints.WithLabelValues(role, result).Inc()
	c.DispatchDuration.WithLabelValues(role).Observe(elapsed.Seconds())
}

// SetMonitorState publishes the serial monitor state.
func (c *Collector) SetMonitorState(state int) {
	c.MonitorState.Set(float64(state))
}
