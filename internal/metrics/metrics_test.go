package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/JonMunkholm/tablekit/internal/remote"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestObserver_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	obs := fetchObserver{m: m, now: func() time.Time { return start.Add(250 * time.Millisecond) }}

	env := remote.Envelope{Source: "orders", Intent: remote.IntentPage, Started: start}
	for i := 0; i < 3; i++ {
		obs.Dispatched(env)
	}
	obs.Applied(env, 10)
	obs.Discarded(env)
	obs.Failed(env, errors.New("boom"))

	tests := []struct {
		outcome string
		want    float64
	}{
		{OutcomeDispatched, 3},
		{OutcomeApplied, 1},
		{OutcomeDiscarded, 1},
		{OutcomeFailed, 1},
	}
	for _, tt := range tests {
		got := counterValue(t, m.fetches.WithLabelValues("orders", string(remote.IntentPage), tt.outcome))
		if got != tt.want {
			t.Errorf("fetches{outcome=%q} = %v, want %v", tt.outcome, got, tt.want)
		}
	}

	if got := gaugeValue(t, m.inflight.WithLabelValues("orders")); got != 0 {
		t.Errorf("inflight = %v, want 0", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var sum float64
	for _, f := range families {
		if f.GetName() != "tablekit_fetch_duration_seconds" {
			continue
		}
		for _, metric := range f.GetMetric() {
			sum += metric.GetHistogram().GetSampleSum()
		}
	}
	if sum != 0.75 {
		t.Errorf("latency sample sum = %v, want 0.75", sum)
	}
}

func TestRecordRowsAndHTTP(t *testing.T) {
	m := New(nil)

	m.RecordRows("orders", 20)
	m.RecordRows("orders", 7)
	if got := counterValue(t, m.rowsServed.WithLabelValues("orders")); got != 27 {
		t.Errorf("rows served = %v, want 27", got)
	}

	m.RecordHTTPRequest("GET", "/api/tables/{key}/rows", 200, 15*time.Millisecond)
	if got := counterValue(t, m.httpRequests.WithLabelValues("GET", "/api/tables/{key}/rows", "200")); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
}

func TestDefault_RegistersOnce(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() returned different sets")
	}
}
