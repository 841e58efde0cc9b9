package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("test"))

	m.FrameIn()
	m.FrameIn()
	m.FrameOut()
	m.CommandQueued()
	m.CommandExpired()
	m.Callback(OutcomeOK)
	m.RemoteError("NOT_FOUND")
	m.WorkerFailed()
	m.Reconnect(false)
	m.ConnectionState(1)
	m.PresenceTransition(TransitionHide)

	if got := counterValue(t, m.frames.WithLabelValues("in")); got != 2 {
		t.Errorf("frames in = %v, want 2", got)
	}
	if got := counterValue(t, m.frames.WithLabelValues("out")); got != 1 {
		t.Errorf("frames out = %v, want 1", got)
	}
	if got := counterValue(t, m.reconnects.WithLabelValues(OutcomeFailed)); got != 1 {
		t.Errorf("failed reconnects = %v, want 1", got)
	}
	if got := gaugeValue(t, m.connectionState); got != 1 {
		t.Errorf("connection state = %v, want 1", got)
	}
	if got := counterValue(t, m.presenceTransitions.WithLabelValues(TransitionHide)); got != 1 {
		t.Errorf("hides = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_worker_failures_total" {
			found = true
		}
	}
	if !found {
		t.Error("test_worker_failures_total not registered")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.FrameIn()
	m.FrameOut()
	m.CommandQueued()
	m.CommandExpired()
	m.Callback(OutcomeClosed)
	m.RemoteError("UNKNOWN")
	m.WorkerFailed()
	m.Reconnect(true)
	m.ConnectionState(2)
	m.PresenceTransition(TransitionRestore)
}
