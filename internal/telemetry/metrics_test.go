package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewEngineMetrics_HandlerServesRegisteredCounters(t *testing.T) {
	m := NewEngineMetrics()
	m.TicksExecuted.Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "rescueroute_engine_ticks_total") {
		t.Fatalf("expected metrics output to contain ticks counter, got: %s", body)
	}
}
