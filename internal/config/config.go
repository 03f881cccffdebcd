// Package config loads the scraper configuration from a YAML file, an
// optional .env file and BUCHLOE_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/buchloe-events/internal/calendar"
	"github.com/pfrederiksen/buchloe-events/internal/logger"
	"github.com/pfrederiksen/buchloe-events/internal/scraper"
)

const (
	StoreFile = "file"
	StoreBolt = "bolt"

	envPrefix = "BUCHLOE_"
)

// CalendarConfig holds the feed metadata.
type CalendarConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	ProductID   string `yaml:"product_id"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// Refresh is a cron schedule (e.g. "0 */6 * * *") for re-scraping.
	Refresh string `yaml:"refresh"`
}

// TelegramConfig enables the Telegram notifier when both a token and a chat
// are set.
type TelegramConfig struct {
	BotToken        string `yaml:"bot_token"`
	ChatID          string `yaml:"chat_id"`
	DigestThreshold int    `yaml:"digest_threshold"`
}

// Enabled reports whether Telegram notifications are configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Config is the top-level application configuration.
type Config struct {
	BaseURL   string `yaml:"base_url"`
	SiteURL   string `yaml:"site_url"`
	UserAgent string `yaml:"user_agent"`

	// DataDir holds processed/ snapshots and the public/ feed.
	DataDir string `yaml:"data_dir"`
	// Store selects the snapshot backend: "file" or "bolt".
	Store string `yaml:"store"`

	FetchDescriptions bool          `yaml:"fetch_descriptions"`
	DetailTimeout     time.Duration `yaml:"detail_timeout"`
	PageTimeout       time.Duration `yaml:"page_timeout"`
	Concurrency       int           `yaml:"concurrency"`
	MaxPages          int           `yaml:"max_pages"`

	// DetailCache reuses detail descriptions across runs for DetailCacheTTL.
	DetailCache    bool          `yaml:"detail_cache"`
	DetailCacheTTL time.Duration `yaml:"detail_cache_ttl"`

	Timezone  string `yaml:"timezone"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Calendar CalendarConfig `yaml:"calendar"`
	Serve    ServeConfig    `yaml:"serve"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           scraper.ListingURL,
		SiteURL:           scraper.SiteURL,
		UserAgent:         scraper.UserAgent,
		DataDir:           "data",
		Store:             StoreFile,
		FetchDescriptions: true,
		DetailTimeout:     scraper.DetailTimeout,
		PageTimeout:       scraper.Timeout,
		Concurrency:       scraper.DefaultConcurrency,
		MaxPages:          scraper.DefaultMaxPages,
		DetailCache:       true,
		DetailCacheTTL:    scraper.DefaultCacheTTL,
		Timezone:          calendar.DefaultTimezone,
		LogLevel:          "info",
		LogFormat:         "text",
		Calendar: CalendarConfig{
			Name:        calendar.DefaultName,
			Description: calendar.DefaultDescription,
			ProductID:   calendar.DefaultProductID,
		},
		Serve: ServeConfig{
			Listen:  "127.0.0.1:8080",
			Refresh: "0 */6 * * *",
		},
	}
}

// Normalize fills in missing/zero values with the defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.SiteURL == "" {
		c.SiteURL = d.SiteURL
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	if c.Store == "" {
		c.Store = d.Store
	}
	if c.DetailTimeout <= 0 {
		c.DetailTimeout = d.DetailTimeout
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = d.PageTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.DetailCacheTTL <= 0 {
		c.DetailCacheTTL = d.DetailCacheTTL
	}
	if c.MaxPages < 0 {
		c.MaxPages = 0
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.Calendar.Name == "" {
		c.Calendar.Name = d.Calendar.Name
	}
	if c.Calendar.Description == "" {
		c.Calendar.Description = d.Calendar.Description
	}
	if c.Calendar.ProductID == "" {
		c.Calendar.ProductID = d.Calendar.ProductID
	}
	if c.Serve.Listen == "" {
		c.Serve.Listen = d.Serve.Listen
	}
	if c.Serve.Refresh == "" {
		c.Serve.Refresh = d.Serve.Refresh
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Store != StoreFile && c.Store != StoreBolt {
		return fmt.Errorf("invalid store: %s (must be %s or %s)", c.Store, StoreFile, StoreBolt)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %s: %w", c.Timezone, err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := logger.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	return nil
}

// Load builds the configuration from the YAML file at path (skipped when
// path is empty or the file does not exist) and the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// No file: defaults and environment only.
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.BaseURL = getEnvOrDefault("BASE_URL", c.BaseURL)
	c.SiteURL = getEnvOrDefault("SITE_URL", c.SiteURL)
	c.UserAgent = getEnvOrDefault("USER_AGENT", c.UserAgent)
	c.DataDir = getEnvOrDefault("DATA_DIR", c.DataDir)
	c.Store = getEnvOrDefault("STORE", c.Store)
	c.Timezone = getEnvOrDefault("TIMEZONE", c.Timezone)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("LOG_FORMAT", c.LogFormat)
	c.Serve.Listen = getEnvOrDefault("LISTEN", c.Serve.Listen)
	c.Serve.Refresh = getEnvOrDefault("REFRESH", c.Serve.Refresh)
	c.Telegram.BotToken = getEnvOrDefault("TELEGRAM_TOKEN", c.Telegram.BotToken)
	c.Telegram.ChatID = getEnvOrDefault("TELEGRAM_CHAT_ID", c.Telegram.ChatID)

	var err error
	if c.FetchDescriptions, err = getEnvBool("FETCH_DESCRIPTIONS", c.FetchDescriptions); err != nil {
		return err
	}
	if c.DetailCache, err = getEnvBool("DETAIL_CACHE", c.DetailCache); err != nil {
		return err
	}
	if c.DetailCacheTTL, err = getEnvDuration("DETAIL_CACHE_TTL", c.DetailCacheTTL); err != nil {
		return err
	}
	if c.DetailTimeout, err = getEnvDuration("DETAIL_TIMEOUT", c.DetailTimeout); err != nil {
		return err
	}
	if c.PageTimeout, err = getEnvDuration("PAGE_TIMEOUT", c.PageTimeout); err != nil {
		return err
	}
	if c.Concurrency, err = getEnvInt("CONCURRENCY", c.Concurrency); err != nil {
		return err
	}
	if c.MaxPages, err = getEnvInt("MAX_PAGES", c.MaxPages); err != nil {
		return err
	}
	if c.Telegram.DigestThreshold, err = getEnvInt("TELEGRAM_DIGEST_THRESHOLD", c.Telegram.DigestThreshold); err != nil {
		return err
	}
	return nil
}

// getEnvOrDefault returns the BUCHLOE_-prefixed variable or the default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return b, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return d, nil
}

// ProcessedDir is where snapshots and archival feeds are written.
func (c *Config) ProcessedDir() string {
	return filepath.Join(c.DataDir, "processed")
}

// PublicDir is where the subscription feed is written.
func (c *Config) PublicDir() string {
	return filepath.Join(c.DataDir, "public")
}

// PublicFeedPath is the path of the subscription feed.
func (c *Config) PublicFeedPath() string {
	return filepath.Join(c.PublicDir(), "events.ics")
}

// CachePath is the detail description cache file.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache", "descriptions.json")
}

// BoltPath is the database file used by the bolt store.
func (c *Config) BoltPath() string {
	return filepath.Join(c.DataDir, "snapshots.db")
}

// CalendarOptions converts the feed settings for the calendar package.
func (c *Config) CalendarOptions() calendar.Options {
	return calendar.Options{
		Name:        c.Calendar.Name,
		Description: c.Calendar.Description,
		ProductID:   c.Calendar.ProductID,
		Timezone:    c.Timezone,
	}
}
