package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BASE_URL", "SITE_URL", "USER_AGENT", "DATA_DIR", "STORE", "TIMEZONE",
		"LOG_LEVEL", "LOG_FORMAT", "LISTEN", "REFRESH", "FETCH_DESCRIPTIONS",
		"DETAIL_TIMEOUT", "PAGE_TIMEOUT", "CONCURRENCY", "MAX_PAGES",
		"DETAIL_CACHE", "DETAIL_CACHE_TTL", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "TELEGRAM_DIGEST_THRESHOLD",
	} {
		t.Setenv(envPrefix+key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.True(t, cfg.FetchDescriptions)
	assert.Equal(t, 10*time.Second, cfg.DetailTimeout)
	assert.Equal(t, StoreFile, cfg.Store)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "loading must not create the config file")
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
base_url: https://example.test/veranstaltungen
data_dir: /var/lib/buchloe
store: BOLT
fetch_descriptions: false
detail_timeout: 5s
detail_cache: false
detail_cache_ttl: 48h
concurrency: 2
max_pages: 3
calendar:
  name: Testkalender
serve:
  listen: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/veranstaltungen/", cfg.BaseURL)
	assert.Equal(t, "/var/lib/buchloe", cfg.DataDir)
	assert.Equal(t, StoreBolt, cfg.Store)
	assert.False(t, cfg.FetchDescriptions)
	assert.Equal(t, 5*time.Second, cfg.DetailTimeout)
	assert.False(t, cfg.DetailCache)
	assert.Equal(t, 48*time.Hour, cfg.DetailCacheTTL)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 3, cfg.MaxPages)
	assert.Equal(t, "Testkalender", cfg.Calendar.Name)
	assert.Equal(t, DefaultConfig().Calendar.Description, cfg.Calendar.Description)
	assert.Equal(t, ":9090", cfg.Serve.Listen)
	assert.Equal(t, DefaultConfig().Serve.Refresh, cfg.Serve.Refresh)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "data_dir: from-file\nconcurrency: 2\n")

	t.Setenv("BUCHLOE_DATA_DIR", "from-env")
	t.Setenv("BUCHLOE_CONCURRENCY", "4")
	t.Setenv("BUCHLOE_FETCH_DESCRIPTIONS", "false")
	t.Setenv("BUCHLOE_PAGE_TIMEOUT", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DataDir)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.False(t, cfg.FetchDescriptions)
	assert.Equal(t, time.Minute, cfg.PageTimeout)
}

func TestLoad_Telegram(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telegram:
  chat_id: "-100123"
  digest_threshold: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Telegram.Enabled(), "a chat without a token is not enabled")

	t.Setenv("BUCHLOE_TELEGRAM_TOKEN", "123:abc")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, "-100123", cfg.Telegram.ChatID)
	assert.Equal(t, 3, cfg.Telegram.DigestThreshold)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad yaml", yaml: "store: [unterminated"},
		{name: "unknown store", yaml: "store: redis"},
		{name: "unknown timezone", yaml: "timezone: Mars/Olympus"},
		{name: "unknown log level", yaml: "log_level: verbose"},
		{name: "unknown log format", yaml: "log_format: xml"},
		{name: "bad int env", env: map[string]string{"BUCHLOE_CONCURRENCY": "many"}},
		{name: "bad bool env", env: map[string]string{"BUCHLOE_FETCH_DESCRIPTIONS": "vielleicht"}},
		{name: "bad duration env", env: map[string]string{"BUCHLOE_DETAIL_TIMEOUT": "10 Sekunden"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, tt.yaml)

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestNormalize(t *testing.T) {
	cfg := &Config{BaseURL: "https://example.test/liste", Concurrency: -1, MaxPages: -5}
	cfg.Normalize()

	assert.Equal(t, "https://example.test/liste/", cfg.BaseURL)
	assert.Equal(t, DefaultConfig().Concurrency, cfg.Concurrency)
	assert.Zero(t, cfg.MaxPages)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is present, even if empty
	require.NoError(t, os.Unsetenv("BUCHLOE_MAX_PAGES"))

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BUCHLOE_MAX_PAGES=7\n"), 0644))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxPages)
}

func TestLoadDotEnv_NoFiles(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("BUCHLOE_TEST_KEY", "wert")
	assert.Equal(t, "wert", getEnvOrDefault("TEST_KEY", "default"))
	assert.Equal(t, "default", getEnvOrDefault("NONEXISTENT_KEY_FOR_TEST_12345", "default"))
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/srv/buchloe"

	assert.Equal(t, "/srv/buchloe/processed", cfg.ProcessedDir())
	assert.Equal(t, "/srv/buchloe/public/events.ics", cfg.PublicFeedPath())
	assert.Equal(t, "/srv/buchloe/snapshots.db", cfg.BoltPath())
	assert.Equal(t, "/srv/buchloe/cache/descriptions.json", cfg.CachePath())

	opts := cfg.CalendarOptions()
	assert.Equal(t, "Europe/Berlin", opts.Timezone)
	assert.Equal(t, cfg.Calendar.Name, opts.Name)
}
