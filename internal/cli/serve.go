package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/buchloe-events/internal/calendar"
	"github.com/pfrederiksen/buchloe-events/internal/logger"
	"github.com/pfrederiksen/buchloe-events/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// feedServer serves the latest feed and re-runs the pipeline on a schedule
type feedServer struct {
	pipeline *Pipeline
	opts     calendar.Options
	log      *logger.Logger
	metrics  *metrics.Metrics

	// refreshing serializes pipeline runs; overlapping ticks are skipped
	refreshing sync.Mutex

	mu          sync.RWMutex
	feed        []byte
	lastRefresh time.Time
	lastErr     error
}

func newFeedServer(p *Pipeline, opts calendar.Options, log *logger.Logger, m *metrics.Metrics) *feedServer {
	return &feedServer{pipeline: p, opts: opts, log: log, metrics: m}
}

// preload serves a feed written by an earlier run until the first refresh
// completes.
func (s *feedServer) preload(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.feed = data
	s.mu.Unlock()
	s.log.Info("Serving existing feed", logger.Fields{"path": path})
}

func (s *feedServer) refresh(ctx context.Context) error {
	if !s.refreshing.TryLock() {
		s.log.Warn("Refresh already running, skipping", nil)
		return nil
	}
	defer s.refreshing.Unlock()

	report, err := s.pipeline.Run(ctx)
	if err == nil {
		var content string
		content, err = calendar.GenerateICS(report.Events, s.opts, report.CheckedAt)
		if err == nil {
			s.mu.Lock()
			s.feed = []byte(content)
			s.lastRefresh = report.CheckedAt
			s.lastErr = nil
			s.mu.Unlock()
			return nil
		}
	}

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.log.Error("Refresh failed", nil, err)
	return err
}

func (s *feedServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events.ics", s.handleFeed)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *feedServer) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	feed := s.feed
	s.mu.RUnlock()

	if feed == nil {
		http.Error(w, "feed not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
	_, _ = w.Write(feed)
}

type healthResponse struct {
	Status      string     `json:"status"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

func (s *feedServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := healthResponse{Status: "ok"}
	if !s.lastRefresh.IsZero() {
		t := s.lastRefresh
		resp.LastRefresh = &t
	}
	if s.lastErr != nil {
		resp.LastError = s.lastErr.Error()
	}
	ready := s.feed != nil
	s.mu.RUnlock()

	status := http.StatusOK
	if !ready {
		resp.Status = "starting"
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// newServeCmd serves the feed over HTTP and refreshes it on a cron schedule
func newServeCmd(app *App, gf *globalFlags) *cobra.Command {
	var (
		listen  string
		refresh string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the feed over HTTP and refresh it on a schedule",
		Long: `Serve /events.ics, /metrics and /healthz. The pipeline runs once at
startup and then on the configured cron schedule; every run persists the
snapshot and feeds exactly like the root command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := app.setup(gf)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Serve.Listen = listen
			}
			if refresh != "" {
				cfg.Serve.Refresh = refresh
			}

			schedule, err := cron.ParseStandard(cfg.Serve.Refresh)
			if err != nil {
				return fmt.Errorf("invalid refresh schedule %q: %w", cfg.Serve.Refresh, err)
			}

			n, err := app.notifier(cfg, log, false)
			if err != nil {
				return err
			}
			p, err := NewPipeline(cfg, app.Fetcher, n, log, app.metrics(), app.Now)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := newFeedServer(p, cfg.CalendarOptions(), log, app.metrics())
			srv.preload(cfg.PublicFeedPath())
			go func() { _ = srv.refresh(ctx) }()

			c := cron.New()
			c.Schedule(schedule, cron.FuncJob(func() { _ = srv.refresh(ctx) }))
			c.Start()
			defer func() { <-c.Stop().Done() }()

			httpSrv := &http.Server{
				Addr:         cfg.Serve.Listen,
				Handler:      srv.routes(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("Listening", logger.Fields{"addr": cfg.Serve.Listen, "refresh": cfg.Serve.Refresh})
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
				log.Info("Signal received, shutting down", nil)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("serving: %w", err)
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&refresh, "refresh", "", "Cron schedule for refreshes (default from config)")
	return cmd
}
