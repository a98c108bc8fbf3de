package utils

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// InteractionMetrics tracks how interactions are handled
type InteractionMetrics struct {
	Handled     int64 `json:"handled"`
	Failed      int64 `json:"failed"`
	RateLimited int64 `json:"rate_limited"`
	Panics      int64 `json:"panics"`
	AverageMs   int64 `json:"average_ms"`
	MaxMs       int64 `json:"max_ms"`
	MinMs       int64 `json:"min_ms"`
}

// MetricsRecorder collects interaction counters and latencies
type MetricsRecorder struct {
	handled     atomic.Int64
	failed      atomic.Int64
	rateLimited atomic.Int64
	panics      atomic.Int64

	mutex        sync.Mutex
	latencySum   int64
	latencyCount int64
	maxLatency   int64
	minLatency   int64
}

// Global metrics recorder
var Metrics = NewMetricsRecorder()

func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{minLatency: -1}
}

// Observe records one handled interaction
func (m *MetricsRecorder) Observe(elapsed time.Duration, err error) {
	m.handled.Add(1)
	if err != nil {
		m.failed.Add(1)
	}

	ms := elapsed.Milliseconds()
	m.mutex.Lock()
	m.latencySum += ms
	m.latencyCount++
	if ms > m.maxLatency {
		m.maxLatency = ms
	}
	if m.minLatency < 0 || ms < m.minLatency {
		m.minLatency = ms
	}
	m.mutex.Unlock()
}

// RateLimitedHit counts an interaction rejected by the rate limiter
func (m *MetricsRecorder) RateLimitedHit() { m.rateLimited.Add(1) }

// PanicRecovered counts a recovered handler panic
func (m *MetricsRecorder) PanicRecovered() { m.panics.Add(1) }

// Snapshot returns the current counters
func (m *MetricsRecorder) Snapshot() InteractionMetrics {
	out := InteractionMetrics{
		Handled:     m.handled.Load(),
		Failed:      m.failed.Load(),
		RateLimited: m.rateLimited.Load(),
		Panics:      m.panics.Load(),
	}
	m.mutex.Lock()
	if m.latencyCount > 0 {
		out.AverageMs = m.latencySum / m.latencyCount
	}
	out.MaxMs = m.maxLatency
	if m.minLatency > 0 {
		out.MinMs = m.minLatency
	}
	m.mutex.Unlock()
	return out
}

// LogSnapshot writes the counters to the default logger
func (m *MetricsRecorder) LogSnapshot() {
	s := m.Snapshot()
	if s.Handled == 0 {
		return
	}
	slog.Info("interaction metrics",
		"handled", s.Handled,
		"failed", s.Failed,
		"rate_limited", s.RateLimited,
		"avg_ms", s.AverageMs,
		"max_ms", s.MaxMs,
	)
}
