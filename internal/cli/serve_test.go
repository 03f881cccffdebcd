package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/buchloe-events/internal/config"
	"github.com/pfrederiksen/buchloe-events/internal/logger"
	"github.com/pfrederiksen/buchloe-events/internal/metrics"
)

func newTestFeedServer(t *testing.T) (*feedServer, *site, *httptest.Server, *config.Config) {
	t.Helper()
	s, srv := newSite(t)

	cfg := config.DefaultConfig()
	cfg.BaseURL = srv.URL + "/seite/"
	cfg.SiteURL = srv.URL
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.FetchDescriptions = false

	log := logger.New(logger.LevelError, logger.FormatText, io.Discard)
	m := metrics.New()
	c := &clock{t: time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC)}

	p, err := NewPipeline(cfg, nil, nil, log, m, c.Now)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	return newFeedServer(p, cfg.CalendarOptions(), log, m), s, srv, cfg
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) healthResponse {
	t.Helper()
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding health: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func TestFeedServer_NotReady(t *testing.T) {
	fs, _, _, _ := newTestFeedServer(t)
	routes := fs.routes()

	if rec := get(t, routes, "/events.ics"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/events.ics status = %d, want 503", rec.Code)
	}
	rec := get(t, routes, "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/healthz status = %d, want 503", rec.Code)
	}
	if resp := decodeHealth(t, rec); resp.Status != "starting" {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestFeedServer_Refresh(t *testing.T) {
	fs, s, _, cfg := newTestFeedServer(t)
	s.set(page(konzertArticle, flohmarktArticle))
	routes := fs.routes()

	if err := fs.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error: %v", err)
	}

	rec := get(t, routes, "/events.ics")
	if rec.Code != http.StatusOK {
		t.Fatalf("/events.ics status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "SUMMARY:Sommerkonzert") || strings.Count(body, "BEGIN:VEVENT") != 2 {
		t.Errorf("unexpected feed:\n%s", body)
	}

	health := get(t, routes, "/healthz")
	if health.Code != http.StatusOK {
		t.Errorf("/healthz status = %d", health.Code)
	}
	if resp := decodeHealth(t, health); resp.Status != "ok" || resp.LastRefresh == nil || resp.LastError != "" {
		t.Errorf("health = %+v", resp)
	}

	metricsBody := get(t, routes, "/metrics").Body.String()
	if !strings.Contains(metricsBody, "buchloe_events_events_scraped 2") {
		t.Errorf("metrics missing scraped gauge:\n%s", metricsBody)
	}

	// Every refresh persists like a normal run
	if _, err := os.Stat(cfg.PublicFeedPath()); err != nil {
		t.Errorf("public feed not written: %v", err)
	}
}

func TestFeedServer_RefreshFailureKeepsFeed(t *testing.T) {
	fs, s, srv, _ := newTestFeedServer(t)
	s.set(page(konzertArticle))
	routes := fs.routes()

	if err := fs.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error: %v", err)
	}
	before := get(t, routes, "/events.ics").Body.String()

	srv.Close()
	if err := fs.refresh(context.Background()); err == nil {
		t.Fatal("refresh() should fail once the site is gone")
	}

	if after := get(t, routes, "/events.ics").Body.String(); after != before {
		t.Error("a failed refresh should keep serving the previous feed")
	}
	health := get(t, routes, "/healthz")
	if resp := decodeHealth(t, health); health.Code != http.StatusOK || resp.LastError == "" {
		t.Errorf("health after failure = %d %+v", health.Code, resp)
	}
}

func TestFeedServer_Preload(t *testing.T) {
	fs, _, _, cfg := newTestFeedServer(t)

	fs.preload(cfg.PublicFeedPath()) // missing file is ignored
	if rec := get(t, fs.routes(), "/events.ics"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	if err := os.MkdirAll(cfg.PublicDir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.PublicFeedPath(), []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), 0644); err != nil {
		t.Fatal(err)
	}
	fs.preload(cfg.PublicFeedPath())

	rec := get(t, fs.routes(), "/events.ics")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "BEGIN:VCALENDAR") {
		t.Errorf("preloaded feed not served: %d %q", rec.Code, rec.Body.String())
	}
}

func TestFeedServer_SkipsOverlappingRefresh(t *testing.T) {
	fs, s, _, _ := newTestFeedServer(t)
	s.set(page(konzertArticle))

	fs.refreshing.Lock()
	err := fs.refresh(context.Background())
	fs.refreshing.Unlock()

	if err != nil {
		t.Fatalf("refresh() error: %v", err)
	}
	if rec := get(t, fs.routes(), "/events.ics"); rec.Code != http.StatusServiceUnavailable {
		t.Error("an overlapping refresh should not run the pipeline")
	}
}

func TestServeCmd_InvalidSchedule(t *testing.T) {
	h := newHarness(t, "")

	if code := h.run("serve", "--refresh", "jede Stunde"); code != ExitError {
		t.Fatalf("exit code = %d, want %d", code, ExitError)
	}
	if !strings.Contains(h.stderr.String(), "invalid refresh schedule") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
}

func TestWriteOutput_Text(t *testing.T) {
	var buf bytes.Buffer
	result := &OutputResult{ShowAll: true}
	if err := WriteOutput(&buf, result, FormatText, false); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No events found.\n" {
		t.Errorf("output = %q", buf.String())
	}

	if err := WriteOutput(&buf, result, OutputFormat("yaml"), false); err == nil {
		t.Error("expected error for unknown format")
	}
}
