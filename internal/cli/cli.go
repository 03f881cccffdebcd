package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/buchloe-events/internal/config"
	"github.com/pfrederiksen/buchloe-events/internal/event"
	"github.com/pfrederiksen/buchloe-events/internal/filter"
	"github.com/pfrederiksen/buchloe-events/internal/logger"
	"github.com/pfrederiksen/buchloe-events/internal/metrics"
	"github.com/pfrederiksen/buchloe-events/internal/notifier"
	"github.com/pfrederiksen/buchloe-events/internal/scraper"
	"github.com/pfrederiksen/buchloe-events/internal/storage"
	"github.com/pfrederiksen/buchloe-events/internal/telegram"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

// App holds the collaborators shared by the commands. Zero fields fall back
// to the production defaults.
type App struct {
	Fetcher scraper.Fetcher
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
	Metrics *metrics.Metrics

	exitCode int
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) stdout() io.Writer {
	if a.Stdout != nil {
		return a.Stdout
	}
	return os.Stdout
}

func (a *App) stderr() io.Writer {
	if a.Stderr != nil {
		return a.Stderr
	}
	return os.Stderr
}

func (a *App) metrics() *metrics.Metrics {
	if a.Metrics == nil {
		a.Metrics = metrics.New()
	}
	return a.Metrics
}

// globalFlags are shared by every command
type globalFlags struct {
	configPath string
	envFile    string
	dataDir    string
	store      string
	logLevel   string
	logFormat  string
	noDetails  bool
	verbose    bool
}

// outputFlags control listing, sorting and filtering of events
type outputFlags struct {
	format    string
	sort      string
	dateRange string
	titles    []string
	locations []string
	weekends  bool
	upcoming  bool
	days      int
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&o.sort, "sort", "", "Sort events by: date, title or location (default page order)")
	cmd.Flags().StringVar(&o.dateRange, "range", "", "Only events in a date range, e.g. '1.-15. Juli' or '01.06.2025 - 30.06.2025'")
	cmd.Flags().StringSliceVar(&o.titles, "title", nil, "Only events whose title contains this text (repeatable)")
	cmd.Flags().StringSliceVar(&o.locations, "location", nil, "Only events whose location contains this text (repeatable)")
	cmd.Flags().BoolVar(&o.weekends, "weekends", false, "Only events on Saturday or Sunday")
	cmd.Flags().BoolVar(&o.upcoming, "upcoming", false, "Only events that are not over yet")
	cmd.Flags().IntVar(&o.days, "days", 0, "Only events starting within the next N days")
}

func (o *outputFlags) filter(now time.Time) (*filter.Filter, error) {
	f := filter.NewFilter()
	if o.dateRange != "" {
		from, to, err := filter.ParseDateRange(o.dateRange, now)
		if err != nil {
			return nil, fmt.Errorf("invalid --range: %w", err)
		}
		f.DateFrom, f.DateTo = from, to
	}
	f.Titles = append(f.Titles, o.titles...)
	f.Locations = append(f.Locations, o.locations...)
	f.WeekendsOnly = o.weekends
	f.UpcomingOnly = o.upcoming
	f.WithinDays = o.days
	return f, nil
}

// prepare validates the flags and returns the events to list, filtered
// and sorted.
func (o *outputFlags) prepare(events []event.Event, now time.Time) ([]event.Event, OutputFormat, *filter.Filter, error) {
	format, err := ParseOutputFormat(strings.ToLower(o.format))
	if err != nil {
		return nil, "", nil, err
	}
	order, err := ParseSortOrder(o.sort)
	if err != nil {
		return nil, "", nil, err
	}
	f, err := o.filter(now)
	if err != nil {
		return nil, "", nil, err
	}

	listed := append([]event.Event{}, f.Apply(events, now)...)
	sortEvents(listed, order)
	return listed, format, f, nil
}

// NewRootCmd creates the root command
func NewRootCmd(app *App) *cobra.Command {
	gf := &globalFlags{}
	of := &outputFlags{}
	var (
		dryRun  bool
		refresh bool
		showAll bool
	)

	cmd := &cobra.Command{
		Use:   "buchloe-events",
		Short: "Scrape the Buchloe event calendar and publish it as iCalendar",
		Long: `A CLI tool that scrapes the event listing of the town of Buchloe,
tracks events across runs, reports new and removed events and writes an
iCalendar feed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runCheck(cmd, gf, of, dryRun, refresh, showAll)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&gf.configPath, "config", "config.yaml", "Path to the YAML config file (missing file uses defaults)")
	pf.StringVar(&gf.envFile, "env-file", ".env", "Path to a .env file (ignored if missing)")
	pf.StringVar(&gf.dataDir, "data-dir", "", "Data directory for snapshots and feeds (default from config)")
	pf.StringVar(&gf.store, "store", "", "Snapshot store: file or bolt (default from config)")
	pf.StringVar(&gf.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&gf.logFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&gf.noDetails, "no-details", false, "Do not fetch full descriptions from detail pages")
	pf.BoolVar(&gf.verbose, "verbose", false, "Enable verbose logging and output")

	of.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without saving the snapshot or writing feeds")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh snapshot without showing new events")
	cmd.Flags().BoolVar(&showAll, "show-all", false, "List all current events instead of only new ones")

	cmd.AddCommand(newScrapeCmd(app, gf))
	cmd.AddCommand(newDiffCmd(app, gf))
	cmd.AddCommand(newServeCmd(app, gf))

	return cmd
}

// setup loads the configuration, applies flag overrides and installs the
// configured logger as the default.
func (a *App) setup(gf *globalFlags) (*config.Config, *logger.Logger, error) {
	if err := config.LoadDotEnv(gf.envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(gf.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if gf.dataDir != "" {
		cfg.DataDir = gf.dataDir
	}
	if gf.store != "" {
		cfg.Store = gf.store
	}
	if gf.logLevel != "" {
		cfg.LogLevel = gf.logLevel
	}
	if gf.logFormat != "" {
		cfg.LogFormat = gf.logFormat
	}
	if gf.noDetails {
		cfg.FetchDescriptions = false
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if cfg.DataDir, err = storage.ExpandHome(cfg.DataDir); err != nil {
		return nil, nil, err
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	if gf.verbose {
		level = logger.LevelDebug
	}
	format, _ := logger.ParseFormat(cfg.LogFormat)
	log := logger.New(level, format, a.stderr())
	logger.SetDefault(log)

	log.Debug("Loaded configuration", logger.Fields{
		"data_dir": cfg.DataDir,
		"store":    cfg.Store,
		"base_url": cfg.BaseURL,
	})
	return cfg, log, nil
}

// notifier picks where changes are reported. Dry runs only print them;
// otherwise they are logged and, when configured, posted to Telegram.
func (a *App) notifier(cfg *config.Config, log *logger.Logger, dryRun bool) (notifier.Notifier, error) {
	if dryRun {
		return notifier.NewDryRunNotifier(a.stderr()), nil
	}
	if !cfg.Telegram.Enabled() {
		return notifier.NewLogNotifier(log), nil
	}

	client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram: %w", err)
	}
	log.Debug("Telegram notifications enabled", logger.Fields{"chat_id": cfg.Telegram.ChatID})
	return notifier.Multi{
		notifier.NewLogNotifier(log),
		telegram.NewNotifier(client, cfg.Telegram.DigestThreshold, log),
	}, nil
}

// runCheck is the main command logic
func (a *App) runCheck(cmd *cobra.Command, gf *globalFlags, of *outputFlags, dryRun, refresh, showAll bool) error {
	cfg, log, err := a.setup(gf)
	if err != nil {
		return err
	}
	// Reject bad output flags before anything is fetched or saved
	if _, _, _, err := of.prepare(nil, a.now()); err != nil {
		return err
	}

	n, err := a.notifier(cfg, log, dryRun)
	if err != nil {
		return err
	}

	p, err := NewPipeline(cfg, a.Fetcher, n, log, a.metrics(), a.Now)
	if err != nil {
		return err
	}
	p.DryRun = dryRun
	p.Refresh = refresh

	report, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	now := a.now()
	source := report.Diff.Added
	if showAll {
		source = report.Events
	}
	listed, format, f, err := of.prepare(source, now)
	if err != nil {
		return err
	}

	result := &OutputResult{
		CheckedAt:     report.CheckedAt,
		NewEvents:     listed,
		RemovedEvents: report.Diff.Removed,
		EventCount:    len(listed),
		TotalEvents:   len(report.Events),
		ShowAll:       showAll,
	}
	if !f.IsEmpty() {
		result.Filter = f.String()
	}

	// In refresh mode, don't output new events
	if refresh {
		if format == FormatText {
			fmt.Fprintln(a.stdout(), "Snapshot refreshed successfully.")
			return nil
		}
		result.NewEvents = []event.Event{}
		result.RemovedEvents = []event.Event{}
		result.EventCount = 0
		return WriteOutput(a.stdout(), result, format, gf.verbose)
	}

	if err := WriteOutput(a.stdout(), result, format, gf.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	// Set exit code based on whether events were added or removed
	if report.Diff.Changed() {
		a.exitCode = ExitNewEvents
	}
	return nil
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, app *App) int {
	cmd := NewRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(app.stdout())
	cmd.SetErr(app.stderr())

	app.exitCode = ExitSuccess
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(app.stderr(), "Error: %v\n", err)
		return ExitError
	}
	return app.exitCode
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(os.Args[1:], &App{}))
}
