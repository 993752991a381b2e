package hallpass

import "sync/atomic"

// MetricID indexes one counter in the fixed metric set.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginDenied
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshReplay
	MetricLogout
	MetricLogoutAll
	MetricCSRFIssued
	MetricCSRFRejected
	MetricStoreError
	metricIDCount
)

const cacheLineSize = 64

// paddedCounter keeps hot counters on separate cache lines so concurrent
// request paths do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the in-process counter set. A disabled Metrics is a nil-safe
// no-op so callers never branch on configuration.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// NewMetrics creates the counter set; when cfg.Enabled is false every
// operation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot returns a consistent-enough copy of the counters (each counter is
// read atomically; the set is not read under a global lock).
func (m *Metrics) Snapshot() MetricsSnapshot {
	out := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil || !m.enabled {
		return out
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		out.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return out
}
