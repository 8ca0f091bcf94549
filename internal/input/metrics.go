package input

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/keytap/internal/input/feedback"
)

const defaultLatencySamples = 1000

// Metrics tracks pipeline decisions and processing latency.
type Metrics struct {
	// Decision counters
	eventsTotal  atomic.Uint64
	passes       atomic.Uint64
	suppressions atomic.Uint64
	echoes       atomic.Uint64
	echoRepeats  atomic.Uint64

	// Latency tracking
	mu                sync.RWMutex
	latencies         []time.Duration
	maxLatencySamples int
	latencyIdx        int

	// Peak latency (all time)
	peakLatency atomic.Int64

	startTime time.Time

	enabled atomic.Bool
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		latencies:         make([]time.Duration, defaultLatencySamples),
		maxLatencySamples: defaultLatencySamples,
		startTime:         time.Now(),
	}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables metrics collection.
func (m *Metrics) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// IsEnabled returns whether metrics collection is enabled.
func (m *Metrics) IsEnabled() bool {
	return m.enabled.Load()
}

// RecordDecision records a decision with its processing time.
func (m *Metrics) RecordDecision(d Decision, latency time.Duration) {
	if !m.enabled.Load() {
		return
	}

	m.eventsTotal.Add(1)
	switch {
	case d.Verdict == feedback.Echo:
		m.echoes.Add(1)
	case d.Verdict == feedback.EchoRepeat:
		m.echoRepeats.Add(1)
	}
	if d.Action == Suppress {
		m.suppressions.Add(1)
	} else {
		m.passes.Add(1)
	}

	latencyNs := latency.Nanoseconds()
	for {
		current := m.peakLatency.Load()
		if latencyNs <= current {
			break
		}
		if m.peakLatency.CompareAndSwap(current, latencyNs) {
			break
		}
	}

	m.mu.Lock()
	m.latencies[m.latencyIdx] = latency
	m.latencyIdx = (m.latencyIdx + 1) % m.maxLatencySamples
	m.mu.Unlock()
}

// MetricsSnapshot holds a point-in-time view of metrics.
type MetricsSnapshot struct {
	// Counters
	EventsTotal  uint64
	Passes       uint64
	Suppressions uint64
	Echoes       uint64
	EchoRepeats  uint64

	// Latency stats over the most recent samples
	AvgLatency  time.Duration
	MaxLatency  time.Duration
	P99Latency  time.Duration
	PeakLatency time.Duration

	EventsPerSecond float64
	Uptime          time.Duration
}

// Snapshot returns a point-in-time view of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	latencies := slices.Clone(m.latencies)
	start := m.startTime
	m.mu.RUnlock()

	count := m.eventsTotal.Load()
	uptime := time.Since(start)

	snap := MetricsSnapshot{
		EventsTotal:  count,
		Passes:       m.passes.Load(),
		Suppressions: m.suppressions.Load(),
		Echoes:       m.echoes.Load(),
		EchoRepeats:  m.echoRepeats.Load(),
		PeakLatency:  time.Duration(m.peakLatency.Load()),
		Uptime:       uptime,
	}
	if uptime > 0 {
		snap.EventsPerSecond = float64(count) / uptime.Seconds()
	}
	snap.AvgLatency, snap.MaxLatency, snap.P99Latency = calculateLatencyStats(latencies)
	return snap
}

// calculateLatencyStats computes average, max, and p99 from a slice of latencies.
func calculateLatencyStats(latencies []time.Duration) (avg, maxLat, p99 time.Duration) {
	valid := make([]time.Duration, 0, len(latencies))
	for _, l := range latencies {
		if l > 0 {
			valid = append(valid, l)
		}
	}
	if len(valid) == 0 {
		return 0, 0, 0
	}

	var sum time.Duration
	for _, l := range valid {
		sum += l
	}
	avg = sum / time.Duration(len(valid))

	slices.Sort(valid)
	maxLat = valid[len(valid)-1]

	idx := int(float64(len(valid)) * 0.99)
	if idx >= len(valid) {
		idx = len(valid) - 1
	}
	p99 = valid[idx]

	return avg, maxLat, p99
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.eventsTotal.Store(0)
	m.passes.Store(0)
	m.suppressions.Store(0)
	m.echoes.Store(0)
	m.echoRepeats.Store(0)
	m.peakLatency.Store(0)

	m.mu.Lock()
	m.latencies = make([]time.Duration, m.maxLatencySamples)
	m.latencyIdx = 0
	m.startTime = time.Now()
	m.mu.Unlock()
}

// EventsTotal returns the total number of events processed.
func (m *Metrics) EventsTotal() uint64 {
	return m.eventsTotal.Load()
}

// HealthStatus represents the current health of event processing.
type HealthStatus struct {
	Healthy          bool
	PeakLatency      time.Duration
	LatencyThreshold time.Duration
	Message          string
}

// HealthCheck reports whether peak latency stayed under threshold.
func (m *Metrics) HealthCheck(latencyThreshold time.Duration) HealthStatus {
	status := HealthStatus{
		Healthy:          true,
		PeakLatency:      time.Duration(m.peakLatency.Load()),
		LatencyThreshold: latencyThreshold,
		Message:          "healthy",
	}
	if status.PeakLatency > latencyThreshold {
		status.Healthy = false
		status.Message = "latency threshold exceeded"
	}
	return status
}

// Timer measures the processing time of one event.
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// StartTimer starts a timer for one event.
func (m *Metrics) StartTimer() Timer {
	return Timer{start: time.Now(), metrics: m}
}

// Stop records the decision and its latency.
func (t Timer) Stop(d Decision) time.Duration {
	elapsed := time.Since(t.start)
	t.metrics.RecordDecision(d, elapsed)
	return elapsed
}
