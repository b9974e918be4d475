package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry builds the process registry with runtime collectors and the
// delivery counters.
func NewRegistry(d *Delivery) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	if err := d.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Register exposes the counters on reg. Values are read at scrape time.
func (d *Delivery) Register(reg prometheus.Registerer) error {
	funcs := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "companion_app_messages_total",
			Help:        "App messages handed to the device transport, by outcome.",
			ConstLabels: prometheus.Labels{"outcome": "ack"},
		}, func() float64 { return float64(d.acked.Load()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "companion_app_messages_total",
			Help:        "App messages handed to the device transport, by outcome.",
			ConstLabels: prometheus.Labels{"outcome": "nack"},
		}, func() float64 { return float64(d.nacked.Load()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "companion_location_errors_total",
			Help: "Position requests that ended in a location error.",
		}, func() float64 { return float64(d.locationErrors.Load()) }),
	}
	for _, c := range funcs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// HTTP records request counts and latencies by route.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTP registers the HTTP collectors on reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Observe records one finished request.
func (m *HTTP) Observe(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}
