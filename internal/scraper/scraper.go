package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/buchloe-events/internal/event"
	"github.com/pfrederiksen/buchloe-events/internal/logger"
	"github.com/pfrederiksen/buchloe-events/internal/metrics"
)

const (
	ListingURL         = "https://www.buchloe.de/freizeit-tourismus/veranstaltungen/seite/"
	SiteURL            = "https://www.buchloe.de"
	UserAgent          = "buchloe-events/1.0 (github.com/pfrederiksen/buchloe-events)"
	Timeout            = 30 * time.Second
	DetailTimeout      = 10 * time.Second
	DefaultConcurrency = 8
	DefaultMaxPages    = 50
)

// Options configures a Scraper. Zero values fall back to the package
// defaults.
type Options struct {
	// BaseURL is the listing URL the page number and a slash are appended to.
	BaseURL string
	// SiteURL is the root relative detail links are resolved against.
	SiteURL string

	FetchDescriptions bool
	DetailTimeout     time.Duration
	Concurrency       int
	MaxPages          int

	// Cache, when set, serves detail descriptions fetched by earlier runs.
	Cache *DescriptionCache

	Resolver *event.Resolver
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

// Scraper handles fetching and parsing the Buchloe event listing
type Scraper struct {
	fetcher Fetcher
	opts    Options
	site    *url.URL
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New creates a new Scraper instance
func New(fetcher Fetcher, opts Options) (*Scraper, error) {
	if fetcher == nil {
		fetcher = NewHTTPFetcher(Timeout, UserAgent)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = ListingURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	if opts.SiteURL == "" {
		opts.SiteURL = SiteURL
	}
	if opts.DetailTimeout <= 0 {
		opts.DetailTimeout = DetailTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Resolver == nil {
		opts.Resolver = event.NewResolver(event.German)
	}

	site, err := url.Parse(opts.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site url %q: %w", opts.SiteURL, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	return &Scraper{
		fetcher: fetcher,
		opts:    opts,
		site:    site,
		log:     log,
		metrics: opts.Metrics,
	}, nil
}

// FetchEvents walks the listing pages starting at page 1 and returns the
// events of all of them in page order. The walk stops at the first page that
// is not served with 200 OK, that holds no events, or that repeats the
// previous page. A transport failure aborts the walk.
func (s *Scraper) FetchEvents(ctx context.Context) ([]event.Event, error) {
	all := make([]event.Event, 0)
	var previous []event.Event

	for page := 1; s.opts.MaxPages <= 0 || page <= s.opts.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL := fmt.Sprintf("%s%d/", s.opts.BaseURL, page)
		s.log.Info("Scraping page", logger.Fields{"page": page, "url": pageURL})

		content, err := s.fetcher.Fetch(ctx, pageURL)
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			s.metrics.PageFetched(statusErr.StatusCode)
			s.log.Info("Listing page not available, stopping", logger.Fields{
				"page":   page,
				"status": statusErr.StatusCode,
			})
			break
		}
		if err != nil {
			s.metrics.PageFetched(0)
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}
		s.metrics.PageFetched(200)

		events, err := s.ParsePage(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("parsing page %d: %w", page, err)
		}
		if len(events) == 0 {
			s.log.Info("No more events found", logger.Fields{"page": page})
			break
		}
		if sameEvents(events, previous) {
			s.log.Info("Pagination repeats the same page, stopping", logger.Fields{"page": page})
			break
		}

		previous = events
		all = append(all, events...)
	}

	return all, nil
}

// candidate is a fragment that passed date and title checks.
type candidate struct {
	input   event.Input
	pattern event.Pattern
}

// ParsePage extracts the events of one listing page. Fragments without a
// resolvable date or a title are logged and skipped. When description
// fetching is enabled the detail pages are fetched concurrently and a
// failure keeps the short listing description.
func (s *Scraper) ParsePage(ctx context.Context, content []byte) ([]event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	candidates := make([]candidate, 0)
	for _, f := range extractFragments(doc, s.site) {
		if c, ok := s.prepare(f); ok {
			candidates = append(candidates, c)
		}
	}

	if s.opts.FetchDescriptions {
		s.fetchDescriptions(ctx, candidates)
	}

	events := make([]event.Event, 0, len(candidates))
	for _, c := range candidates {
		evt, err := event.Normalize(c.input)
		if err != nil {
			s.metrics.EventDropped("essential")
			s.log.Warn("Missing essential information for event parsing", logger.Fields{
				"title": c.input.Title, "pattern": c.pattern.String(), "url": c.input.URL,
			})
			continue
		}
		s.log.Info("Found event", logger.Fields{"event": evt.String()})
		events = append(events, evt)
	}
	return events, nil
}

// prepare reads the raw parts of a fragment and resolves its date.
func (s *Scraper) prepare(f event.Fragment) (candidate, bool) {
	components := event.ExtractDateComponents(f)
	detailURL, _ := f.DetailURL()
	title, _ := f.Field(event.RoleTitle)

	date, err := s.opts.Resolver.Resolve(components)
	if err != nil {
		s.metrics.EventDropped("date")
		s.log.Warn("Failed to resolve event date", logger.Fields{
			"dayname": components.DayName,
			"day":     components.Day,
			"month":   components.Month,
			"year":    components.Year,
			"pattern": components.Pattern.String(),
			"title":   title,
			"url":     detailURL,
		})
		return candidate{}, false
	}
	if components.Pattern == event.PatternNochBis {
		s.log.Info("Parsed 'Noch bis' date", logger.Fields{"date": date.String(), "title": title})
	}

	if event.CleanTitle(title) == "" {
		s.metrics.EventDropped("essential")
		s.log.Warn("Missing essential information for event parsing", logger.Fields{
			"date": date.String(), "pattern": components.Pattern.String(), "url": detailURL,
		})
		return candidate{}, false
	}

	var times event.TimeRange
	if raw, ok := f.Field(event.RoleTime); ok {
		times, _ = event.ParseTimeRange(raw)
	}
	location, _ := f.Field(event.RoleLocation)
	description, _ := f.Field(event.RoleDescription)

	return candidate{
		input: event.Input{
			Title:       title,
			Date:        date,
			Times:       times,
			Location:    location,
			Description: description,
			URL:         detailURL,
		},
		pattern: components.Pattern,
	}, true
}

// fetchDescriptions replaces short descriptions with the detail page text
// where one can be fetched. Each fetch fails on its own; none cancels the
// others.
func (s *Scraper) fetchDescriptions(ctx context.Context, candidates []candidate) {
	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)

	for i := range candidates {
		detailURL := candidates[i].input.URL
		if detailURL == "" {
			continue
		}
		if description, ok := s.opts.Cache.Get(detailURL); ok {
			candidates[i].input.Description = description
			continue
		}
		g.Go(func() error {
			description, err := s.FetchDescription(ctx, detailURL)
			if err != nil {
				s.metrics.DetailFetched(false)
				s.log.Warn("Failed to fetch full description, using short description", logger.Fields{
					"url":   detailURL,
					"error": err.Error(),
				})
				return nil
			}
			s.metrics.DetailFetched(true)
			s.opts.Cache.Set(detailURL, description)
			candidates[i].input.Description = description
			return nil
		})
	}
	_ = g.Wait()
}

func sameEvents(a, b []event.Event) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
