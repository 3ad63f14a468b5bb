// Package metrics exports prometheus collectors for the fetch pipeline and
// the rows server.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/tablekit/internal/remote"
)

// Fetch outcomes.
const (
	OutcomeDispatched = "dispatched"
	OutcomeApplied    = "applied"
	OutcomeDiscarded  = "discarded"
	OutcomeFailed     = "failed"
)

// Metrics holds the tablekit collectors.
type Metrics struct {
	fetches      *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	inflight     *prometheus.GaugeVec
	rowsServed   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var (
	registerOnce sync.Once
	defaultSet   *Metrics
)

// Default returns the collectors registered with the default registerer.
func Default() *Metrics {
	registerOnce.Do(func() {
		defaultSet = New(prometheus.DefaultRegisterer)
	})
	return defaultSet
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tablekit",
				Subsystem: "fetch",
				Name:      "requests_total",
				Help:      "Remote table fetches by outcome.",
			},
			[]string{"source", "intent", "outcome"},
		),
		fetchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tablekit",
				Subsystem: "fetch",
				Name:      "duration_seconds",
				Help:      "Time from dispatch to outcome of remote table fetches.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source", "outcome"},
		),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tablekit",
				Subsystem: "fetch",
				Name:      "inflight",
				Help:      "Remote table fetches awaiting a response.",
			},
			[]string{"source"},
		),
		rowsServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tablekit",
				Subsystem: "rows",
				Name:      "served_total",
				Help:      "Rows returned by the rows endpoint.",
			},
			[]string{"dataset"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tablekit",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tablekit",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.fetches, m.fetchLatency, m.inflight, m.rowsServed, m.httpRequests, m.httpDuration)
	}
	return m
}

// RecordRows counts rows served for a dataset.
func (m *Metrics) RecordRows(dataset string, n int) {
	m.rowsServed.WithLabelValues(dataset).Add(float64(n))
}

// RecordHTTPRequest records one served request. route is the chi route
// pattern, not the raw path.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	m.httpDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
}

// Observer returns a remote.Observer recording fetch outcomes.
func (m *Metrics) Observer() remote.Observer {
	return fetchObserver{m: m}
}

type fetchObserver struct {
	m   *Metrics
	now func() time.Time
}

func (o fetchObserver) Dispatched(env remote.Envelope) {
	o.m.fetches.WithLabelValues(env.Source, string(env.Intent), OutcomeDispatched).Inc()
	o.m.inflight.WithLabelValues(env.Source).Inc()
}

func (o fetchObserver) Applied(env remote.Envelope, _ int) {
	o.done(env, OutcomeApplied)
}

func (o fetchObserver) Discarded(env remote.Envelope) {
	o.done(env, OutcomeDiscarded)
}

func (o fetchObserver) Failed(env remote.Envelope, _ error) {
	o.done(env, OutcomeFailed)
}

func (o fetchObserver) done(env remote.Envelope, outcome string) {
	now := time.Now
	if o.now != nil {
		now = o.now
	}
	o.m.fetches.WithLabelValues(env.Source, string(env.Intent), outcome).Inc()
	o.m.inflight.WithLabelValues(env.Source).Dec()
	if !env.Started.IsZero() {
		o.m.fetchLatency.WithLabelValues(env.Source, outcome).Observe(now().Sub(env.Started).Seconds())
	}
}
