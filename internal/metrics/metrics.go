package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks collaborator call and workflow outcome counters.
type Metrics struct {
	upstreamCalls   int64
	upstreamErrors  int64
	upstreamLatency int64 // Total latency in nanoseconds
	publishes       int64
	publishErrors   int64
	settlements     int64

	mu       sync.Mutex
	failures map[string]int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UpstreamCalls        int64            `json:"upstream_calls"`
	UpstreamErrors       int64            `json:"upstream_errors"`
	AvgUpstreamLatencyMs float64          `json:"avg_upstream_latency_ms"`
	Publishes            int64            `json:"publishes"`
	PublishErrors        int64            `json:"publish_errors"`
	Settlements          int64            `json:"settlements"`
	Failures             map[string]int64 `json:"failures"`
}

var global = New()

func New() *Metrics {
	return &Metrics{failures: make(map[string]int64)}
}

// Default returns the process-wide metrics.
func Default() *Metrics {
	return global
}

func (m *Metrics) RecordUpstreamCall(duration time.Duration, err error) {
	atomic.AddInt64(&m.upstreamCalls, 1)
	atomic.AddInt64(&m.upstreamLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&m.upstreamErrors, 1)
	}
}

func (m *Metrics) RecordPublish(err error) {
	atomic.AddInt64(&m.publishes, 1)
	if err != nil {
		atomic.AddInt64(&m.publishErrors, 1)
	}
}

func (m *Metrics) RecordSettlement() {
	atomic.AddInt64(&m.settlements, 1)
}

// RecordFailure counts a failed workflow by its error code.
func (m *Metrics) RecordFailure(code string) {
	m.mu.Lock()
	m.failures[code]++
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		UpstreamCalls:  atomic.LoadInt64(&m.upstreamCalls),
		UpstreamErrors: atomic.LoadInt64(&m.upstreamErrors),
		Publishes:      atomic.LoadInt64(&m.publishes),
		PublishErrors:  atomic.LoadInt64(&m.publishErrors),
		Settlements:    atomic.LoadInt64(&m.settlements),
		Failures:       make(map[string]int64),
	}
	if s.UpstreamCalls > 0 {
		avgNs := float64(atomic.LoadInt64(&m.upstreamLatency)) / float64(s.UpstreamCalls)
		s.AvgUpstreamLatencyMs = avgNs / 1e6
	}

	m.mu.Lock()
	for k, v := range m.failures {
		s.Failures[k] = v
	}
	m.mu.Unlock()

	return s
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.upstreamCalls, 0)
	atomic.StoreInt64(&m.upstreamErrors, 0)
	atomic.StoreInt64(&m.upstreamLatency, 0)
	atomic.StoreInt64(&m.publishes, 0)
	atomic.StoreInt64(&m.publishErrors, 0)
	atomic.StoreInt64(&m.settlements, 0)

	m.mu.Lock()
	m.failures = make(map[string]int64)
	m.mu.Unlock()
}
