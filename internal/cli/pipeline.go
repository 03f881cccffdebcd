package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pfrederiksen/buchloe-events/internal/calendar"
	"github.com/pfrederiksen/buchloe-events/internal/config"
	"github.com/pfrederiksen/buchloe-events/internal/event"
	"github.com/pfrederiksen/buchloe-events/internal/logger"
	"github.com/pfrederiksen/buchloe-events/internal/metrics"
	"github.com/pfrederiksen/buchloe-events/internal/notifier"
	"github.com/pfrederiksen/buchloe-events/internal/scraper"
	"github.com/pfrederiksen/buchloe-events/internal/storage"
)

const feedTimestampLayout = "20060102_150405"

// Pipeline runs one scrape: fetch, dedupe, reconcile against the latest
// snapshot, persist, write feeds and report.
type Pipeline struct {
	cfg      *config.Config
	scraper  *scraper.Scraper
	cache    *scraper.DescriptionCache
	store    storage.Store
	notifier notifier.Notifier
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	// DryRun skips every write: no snapshot, no feeds.
	DryRun bool
	// Refresh saves the snapshot without reconciling against the previous one.
	Refresh bool
}

// Report is the outcome of one pipeline run.
type Report struct {
	CheckedAt time.Time
	Events    []event.Event
	Diff      *event.DiffResult
	Snapshot  string
	Feed      string
}

// NewPipeline wires the pipeline for cfg. A nil fetcher uses HTTP with the
// configured page timeout and user agent.
func NewPipeline(cfg *config.Config, fetcher scraper.Fetcher, n notifier.Notifier, log *logger.Logger, m *metrics.Metrics, now func() time.Time) (*Pipeline, error) {
	if now == nil {
		now = time.Now
	}

	cache := openCache(cfg, log)
	sc, err := newScraper(cfg, fetcher, cache, log, m)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	if n == nil {
		n = notifier.NewLogNotifier(log)
	}

	return &Pipeline{
		cfg:      cfg,
		scraper:  sc,
		cache:    cache,
		store:    store,
		notifier: n,
		log:      log,
		metrics:  m,
		now:      now,
	}, nil
}

func newScraper(cfg *config.Config, fetcher scraper.Fetcher, cache *scraper.DescriptionCache, log *logger.Logger, m *metrics.Metrics) (*scraper.Scraper, error) {
	if fetcher == nil {
		fetcher = scraper.NewHTTPFetcher(cfg.PageTimeout, cfg.UserAgent)
	}
	sc, err := scraper.New(fetcher, scraper.Options{
		BaseURL:           cfg.BaseURL,
		SiteURL:           cfg.SiteURL,
		FetchDescriptions: cfg.FetchDescriptions,
		DetailTimeout:     cfg.DetailTimeout,
		Concurrency:       cfg.Concurrency,
		MaxPages:          cfg.MaxPages,
		Cache:             cache,
		Logger:            log,
		Metrics:           m,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing scraper: %w", err)
	}
	return sc, nil
}

// openCache returns nil when descriptions are not fetched or caching is off.
// An unreadable cache file is replaced by an empty cache.
func openCache(cfg *config.Config, log *logger.Logger) *scraper.DescriptionCache {
	if !cfg.FetchDescriptions || !cfg.DetailCache {
		return nil
	}
	cache, err := scraper.LoadDescriptionCache(cfg.CachePath(), cfg.DetailCacheTTL)
	if err != nil {
		log.Warn("Ignoring unreadable description cache", logger.Fields{"path": cfg.CachePath(), "error": err.Error()})
		return scraper.NewDescriptionCache(cfg.DetailCacheTTL)
	}
	return cache
}

func saveCache(cfg *config.Config, cache *scraper.DescriptionCache, log *logger.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Save(cfg.CachePath()); err != nil {
		log.Warn("Failed to save description cache", logger.Fields{"error": err.Error()})
	}
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreBolt:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return storage.NewBoltStore(cfg.BoltPath())
	default:
		return storage.NewFileStore(cfg.ProcessedDir())
	}
}

// Run executes the pipeline once.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	started := p.now()
	report := &Report{CheckedAt: started.UTC()}

	p.log.Info("Scraping events", logger.Fields{"url": p.cfg.BaseURL})
	scraped, err := p.scraper.FetchEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	report.Events = event.Dedupe(scraped)
	p.log.Info("Scraped events", logger.Fields{
		"scraped": len(scraped),
		"unique":  len(report.Events),
	})

	if p.Refresh {
		report.Diff = event.Reconcile(nil, nil)
	} else {
		previous, err := p.store.Latest()
		switch {
		case errors.Is(err, event.ErrStorageUnavailable):
			p.log.Info("No previous snapshot found", nil)
			previous = nil
		case err != nil:
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
		report.Diff = event.Reconcile(report.Events, previous)
	}

	if !p.DryRun {
		if err := p.persist(report, started); err != nil {
			return nil, err
		}
	}

	if !p.Refresh {
		if err := p.notifier.Notify(ctx, report.Diff); err != nil {
			p.log.Warn("Notification failed", logger.Fields{"error": err.Error()})
		}
	}

	finished := p.now()
	p.metrics.RunCompleted(len(report.Events), len(report.Diff.Added), len(report.Diff.Removed), finished.Sub(started), finished)
	return report, nil
}

func (p *Pipeline) persist(report *Report, at time.Time) error {
	saveCache(p.cfg, p.cache, p.log)

	ref, err := p.store.Save(report.Events, at)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	if ref == "" {
		p.log.Warn("No events to save", nil)
		return nil
	}
	report.Snapshot = ref
	p.log.Info("Saved snapshot", logger.Fields{"path": ref, "events": len(report.Events)})

	opts := p.cfg.CalendarOptions()
	archive := filepath.Join(p.cfg.ProcessedDir(), "events_"+at.Format(feedTimestampLayout)+".ics")
	if err := calendar.WriteFile(archive, report.Events, opts, at); err != nil {
		return fmt.Errorf("writing archival feed: %w", err)
	}
	if err := calendar.WriteFile(p.cfg.PublicFeedPath(), report.Events, opts, at); err != nil {
		return fmt.Errorf("writing public feed: %w", err)
	}
	report.Feed = p.cfg.PublicFeedPath()
	p.log.Info(fmt.Sprintf("Generated iCal files with %d events", len(report.Events)), logger.Fields{
		"archive": archive,
		"public":  report.Feed,
	})
	return nil
}
