package hallpass

import (
	"sync"
	"testing"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricRefreshReplay)

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("login success: got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricRefreshReplay] != 1 {
		t.Fatalf("refresh replay: got %d", snap.Counters[MetricRefreshReplay])
	}
	if snap.Counters[MetricLogout] != 0 {
		t.Fatalf("untouched counter: got %d", snap.Counters[MetricLogout])
	}
}

func TestDisabledMetricsAreNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLoginSuccess)

	snap := m.Snapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("disabled metrics reported counters: %v", snap.Counters)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	m.Inc(MetricLoginSuccess)
	snap := m.Snapshot()
	if snap.Counters == nil {
		t.Fatal("snapshot map should be non-nil")
	}
}

func TestMetricsOutOfRangeIDIgnored(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricID(10_000))
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				m.Inc(MetricLoginSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricLoginSuccess]; got != goroutines*perGoroutine {
		t.Fatalf("expected %d, got %d", goroutines*perGoroutine, got)
	}
}
