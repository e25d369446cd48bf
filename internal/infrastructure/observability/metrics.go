package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry               *prometheus.Registry
	EventsTotal            *prometheus.CounterVec
	ChannelDeliveriesTotal *prometheus.CounterVec
	ChannelErrorsTotal     *prometheus.CounterVec
	DedupDropsTotal        prometheus.Counter
	OutOfScopeTotal        prometheus.Counter
	BufferOverflowTotal    prometheus.Counter
	TimelineEvents         prometheus.Gauge
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webtrace",
			Name:      "events_total",
			Help:      "Total events appended to the timeline by type",
		}, []string{"type"}),
		ChannelDeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webtrace",
			Name:      "channel_deliveries_total",
			Help:      "Total interaction deliveries per transport channel",
		}, []string{"channel"}),
		ChannelErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webtrace",
			Name:      "channel_errors_total",
			Help:      "Total delivery failures per transport channel",
		}, []string{"channel"}),
		DedupDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "webtrace",
			Name:      "dedup_drops_total",
			Help:      "Redundant interaction deliveries collapsed by the timeline",
		}),
		OutOfScopeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "webtrace",
			Name:      "out_of_scope_total",
			Help:      "Network requests dropped for being outside the session domain",
		}),
		BufferOverflowTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "webtrace",
			Name:      "buffer_overflow_total",
			Help:      "Events dropped from the poll buffer at capacity",
		}),
		TimelineEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "webtrace",
			Name:      "timeline_events",
			Help:      "Events currently held by the timeline",
		}),
	}
	r.MustRegister(
		m.EventsTotal,
		m.ChannelDeliveriesTotal,
		m.ChannelErrorsTotal,
		m.DedupDropsTotal,
		m.OutOfScopeTotal,
		m.BufferOverflowTotal,
		m.TimelineEvents,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
