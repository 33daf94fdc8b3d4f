package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservers(t *testing.T) {
	m := New()

	m.ObserveLLMAttempt("clova", "parse_error", 2*time.Second)
	m.ObserveLLMAttempt("clova", "success", time.Second)
	m.ObserveAnalysis("success", 3*time.Second)
	m.ObserveAlert("sent")
	m.ObserveAlert("sent")
	m.ObserveHTTP("/api/timing", "200", 10*time.Millisecond)

	if got := testutil.ToFloat64(m.LLMAttempts.WithLabelValues("clova", "parse_error")); got != 1 {
		t.Errorf("parse_error attempts = %v", got)
	}
	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("analyses = %v", got)
	}
	if got := testutil.ToFloat64(m.AlertsTotal.WithLabelValues("sent")); got != 2 {
		t.Errorf("alerts sent = %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/timing", "200")); got != 1 {
		t.Errorf("http requests = %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveLLMAttempt("clova", "success", time.Second)
	m.ObserveAnalysis("success", time.Second)
	m.ObserveAlert("sent")
	m.ObserveAlertRun(time.Second)
	m.ObserveHTTP("/healthz", "200", time.Millisecond)
}

func TestHandler(t *testing.T) {
	m := New()
	m.now = func() time.Time { return time.Unix(1717372800, 0) }
	m.ObserveAlert("held")
	m.ObserveAlertRun(2 * time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`navigator_alerts_total{outcome="held"} 1`,
		"navigator_alert_last_run_timestamp_seconds 1.7173728e+09",
		"navigator_alert_run_duration_seconds_count 1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveAlert("sent")
	if got := testutil.ToFloat64(b.AlertsTotal.WithLabelValues("sent")); got != 0 {
		t.Errorf("second registry saw %v", got)
	}
}
