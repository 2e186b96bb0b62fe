package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config is the static bootstrap configuration: storage locations,
// queue tuning, provider credentials, and process-wide defaults. The
// five runtime-adjustable policy blobs (prefilter-policy, match-policy,
// worker-settings, ai-settings, personal-info) are NOT part of this
// struct — they live in the Store's config table and are read through
// internal/config.Service, so they can be hot-reloaded without a
// restart. This struct is everything a restart-required change lives
// in.
type Config struct {
	Environment string        `toml:"environment"`
	Queue       QueueConfig   `toml:"queue"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Claude      ClaudeConfig  `toml:"claude"`
	Gemini      GeminiConfig  `toml:"gemini"`
	Crawler     CrawlerConfig `toml:"crawler"`
	Redis       RedisConfig   `toml:"redis"`
	Metrics     MetricsConfig `toml:"metrics"`
}

// QueueConfig tunes the goqite lease queue that fronts the durable
// task Store.
type QueueConfig struct {
	PollInterval      string `toml:"poll_interval"`
	Concurrency       int    `toml:"concurrency"`
	VisibilityTimeout string `toml:"visibility_timeout"`
	MaxReceive        int    `toml:"max_receive"`
	QueueName         string `toml:"queue_name"`
}

// StorageConfig points at the Badger entity store and the small
// SQLite database goqite requires for its own tables.
type StorageConfig struct {
	Badger BadgerConfig  `toml:"badger"`
	Queue  QueueDBConfig `toml:"queue_db"`
	// SeedSourcesPath, if set, points at a YAML file of JobSource
	// records bulk-imported once at startup (internal/seed). Leave
	// empty to skip seeding entirely.
	SeedSourcesPath string `toml:"seed_sources_path"`
}

type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

type QueueDBConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Output     []string `toml:"output"`
	TimeFormat string   `toml:"time_format"`
}

// ClaudeConfig configures the Anthropic provider for the AI Agent
// Manager.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// GeminiConfig configures the Gemini provider, used both for AI
// extraction agents and for the primary web-search enrichment client
// (via GoogleSearch grounding).
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// CrawlerConfig tunes the HTML fetch/sample enrichment client and the
// Generic Scraper's html branch.
type CrawlerConfig struct {
	UserAgent           string        `toml:"user_agent"`
	RequestTimeout      time.Duration `toml:"request_timeout"`
	MaxRedirects        int           `toml:"max_redirects"`
	MaxHTMLSampleLength int           `toml:"max_html_sample_length"`
	EnableJavaScript    bool          `toml:"enable_javascript"`
	JavaScriptWaitTime  time.Duration `toml:"javascript_wait_time"`
}

// RedisConfig is optional; when Addr is empty the budget counters fall
// back to the Store's own atomic increment, so a single-process
// deployment needs no Redis at all.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// NewDefaultConfig returns sane defaults for a local/dev run. Only
// user-facing, environment-specific values belong in worker.toml;
// everything else is hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Queue: QueueConfig{
			PollInterval:      "1s",
			Concurrency:       8,
			VisibilityTimeout: "5m",
			MaxReceive:        3,
			QueueName:         "jobfinder_tasks",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{Path: "./data/store"},
			Queue:  QueueDBConfig{Path: "./data/queue.db"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Crawler: CrawlerConfig{
			UserAgent:           "Mozilla/5.0 (compatible; job-finder-worker/1.0)",
			RequestTimeout:      20 * time.Second,
			MaxRedirects:        5,
			MaxHTMLSampleLength: 20000,
			EnableJavaScript:    false,
			JavaScriptWaitTime:  3 * time.Second,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file(s)
// (later files override earlier ones) -> environment variables.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("JOBFINDER_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("JOBFINDER_QUEUE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Queue.Concurrency = n
		}
	}
	if v := os.Getenv("JOBFINDER_BADGER_PATH"); v != "" {
		c.Storage.Badger.Path = v
	}
	if v := os.Getenv("JOBFINDER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Claude.APIKey = v
	}
	if v := os.Getenv("JOBFINDER_CLAUDE_API_KEY"); v != "" {
		c.Claude.APIKey = v
	}
	if v := os.Getenv("JOBFINDER_GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("JOBFINDER_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// ValidateCronSchedule validates a cron expression used for the
// source-health sweep by parsing it as a standard five-field cron
// expression. It does not enforce a minimum interval.
func ValidateCronSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}
