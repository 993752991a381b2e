package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hallpass-io/hallpass"
)

type stubSource struct {
	counters map[hallpass.MetricID]uint64
	dropped  uint64
}

func (s *stubSource) MetricsSnapshot() hallpass.MetricsSnapshot {
	return hallpass.MetricsSnapshot{Counters: s.counters}
}

func (s *stubSource) AuditDropped() uint64 {
	return s.dropped
}

func TestRenderExposesCountersInTextFormat(t *testing.T) {
	source := &stubSource{
		counters: map[hallpass.MetricID]uint64{
			hallpass.MetricLoginSuccess:  42,
			hallpass.MetricRefreshReplay: 3,
		},
		dropped: 7,
	}

	out := NewExporterFromSource(source).Render()

	for _, want := range []string{
		"# HELP hallpass_login_success_total",
		"# TYPE hallpass_login_success_total counter",
		"hallpass_login_success_total 42",
		"hallpass_refresh_replay_total 3",
		"hallpass_login_failure_total 0",
		"hallpass_audit_dropped_total 7",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEmptySnapshotIsEmpty(t *testing.T) {
	source := &stubSource{counters: map[hallpass.MetricID]uint64{}}
	if out := NewExporterFromSource(source).Render(); out != "" {
		t.Fatalf("expected empty output, got:\n%s", out)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	source := &stubSource{
		counters: map[hallpass.MetricID]uint64{hallpass.MetricLogout: 5},
	}

	rec := httptest.NewRecorder()
	NewExporterFromSource(source).Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(rec.Body.String(), "hallpass_logout_total 5") {
		t.Fatalf("body missing counter:\n%s", rec.Body.String())
	}
}

func TestNilExporterRendersEmpty(t *testing.T) {
	var e *Exporter
	if out := e.Render(); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
