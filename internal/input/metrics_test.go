package input

import (
	"testing"
	"time"

	"github.com/dshills/keytap/internal/input/feedback"
)

func TestMetricsRecordDecision(t *testing.T) {
	m := NewMetrics()

	m.RecordDecision(Decision{Action: Pass}, time.Millisecond)
	m.RecordDecision(Decision{Action: Suppress}, 3*time.Millisecond)
	m.RecordDecision(Decision{Action: Pass, Verdict: feedback.Echo}, 2*time.Millisecond)
	m.RecordDecision(Decision{Action: Pass, Verdict: feedback.EchoRepeat}, 2*time.Millisecond)

	snap := m.Snapshot()
	if snap.EventsTotal != 4 {
		t.Errorf("EventsTotal = %d, want 4", snap.EventsTotal)
	}
	if snap.Passes != 3 || snap.Suppressions != 1 {
		t.Errorf("Passes/Suppressions = %d/%d, want 3/1", snap.Passes, snap.Suppressions)
	}
	if snap.Echoes != 1 || snap.EchoRepeats != 1 {
		t.Errorf("Echoes/EchoRepeats = %d/%d, want 1/1", snap.Echoes, snap.EchoRepeats)
	}
	if snap.PeakLatency != 3*time.Millisecond || snap.MaxLatency != 3*time.Millisecond {
		t.Errorf("Peak/Max = %v/%v, want 3ms", snap.PeakLatency, snap.MaxLatency)
	}
	if snap.AvgLatency != 2*time.Millisecond {
		t.Errorf("AvgLatency = %v, want 2ms", snap.AvgLatency)
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := NewMetrics()
	m.SetEnabled(false)
	if m.IsEnabled() {
		t.Error("IsEnabled() = true after SetEnabled(false)")
	}
	m.RecordDecision(Decision{Action: Suppress}, time.Millisecond)
	if m.EventsTotal() != 0 {
		t.Errorf("EventsTotal() = %d, want 0", m.EventsTotal())
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordDecision(Decision{Action: Suppress}, time.Millisecond)
	m.Reset()

	snap := m.Snapshot()
	if snap.EventsTotal != 0 || snap.Suppressions != 0 || snap.PeakLatency != 0 || snap.AvgLatency != 0 {
		t.Errorf("snapshot after Reset = %+v", snap)
	}
}

func TestMetricsHealthCheck(t *testing.T) {
	m := NewMetrics()
	m.RecordDecision(Decision{}, 5*time.Millisecond)

	if s := m.HealthCheck(10 * time.Millisecond); !s.Healthy {
		t.Errorf("HealthCheck(10ms) = %+v, want healthy", s)
	}
	if s := m.HealthCheck(time.Millisecond); s.Healthy || s.Message != "latency threshold exceeded" {
		t.Errorf("HealthCheck(1ms) = %+v, want unhealthy", s)
	}
}

func TestCalculateLatencyStatsP99(t *testing.T) {
	lat := make([]time.Duration, 0, 200)
	for i := 1; i <= 100; i++ {
		lat = append(lat, time.Duration(i)*time.Microsecond)
	}
	lat = append(lat, 0, 0)

	avg, maxLat, p99 := calculateLatencyStats(lat)
	if maxLat != 100*time.Microsecond {
		t.Errorf("max = %v, want 100µs", maxLat)
	}
	if p99 != 100*time.Microsecond {
		t.Errorf("p99 = %v, want 100µs", p99)
	}
	if avg != 50500*time.Nanosecond {
		t.Errorf("avg = %v, want 50.5µs", avg)
	}
}
