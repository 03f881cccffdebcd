package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(body)
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.PageFetched(http.StatusOK)
	m.PageFetched(http.StatusOK)
	m.PageFetched(http.StatusNotFound)
	m.PageFetched(0)
	m.DetailFetched(true)
	m.DetailFetched(false)
	m.EventDropped("date")

	out := scrape(t, m)

	for _, want := range []string{
		`buchloe_events_pages_fetched_total{status="OK"} 2`,
		`buchloe_events_pages_fetched_total{status="Not Found"} 1`,
		`buchloe_events_pages_fetched_total{status="error"} 1`,
		`buchloe_events_detail_fetches_total{result="ok"} 1`,
		`buchloe_events_detail_fetches_total{result="failed"} 1`,
		`buchloe_events_events_dropped_total{reason="date"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetrics_RunCompleted(t *testing.T) {
	m := New()
	at := time.Unix(1750186800, 0)

	m.RunCompleted(12, 3, 1, 2*time.Second, at)

	out := scrape(t, m)

	for _, want := range []string{
		"buchloe_events_events_scraped 12",
		`buchloe_events_events_changed_total{change="added"} 3`,
		`buchloe_events_events_changed_total{change="removed"} 1`,
		"buchloe_events_run_duration_seconds_count 1",
		"buchloe_events_last_success_timestamp_seconds 1.7",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q\n%s", want, out)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	m.PageFetched(http.StatusOK)
	m.DetailFetched(false)
	m.EventDropped("date")
	m.RunCompleted(1, 1, 1, time.Second, time.Now())

	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
	if m.Handler() == nil {
		t.Error("nil metrics should still return a handler")
	}
}
