// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newsroom-kr/press-crawler/internal/press"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig            `mapstructure:"server"`
	Auth     AuthConfig              `mapstructure:"auth"`
	Crawler  CrawlerConfig           `mapstructure:"crawler"`
	Sources  map[string]SourceConfig `mapstructure:"sources"`
	Store    StoreConfig             `mapstructure:"store"`
	Archive  ArchiveConfig           `mapstructure:"archive"`
	PubSub   PubSubConfig            `mapstructure:"pubsub"`
	Schedule ScheduleConfig          `mapstructure:"schedule"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// CrawlerConfig governs crawl pipeline behavior.
type CrawlerConfig struct {
	DefaultLimit   int    `mapstructure:"default_limit"`
	DetailDelayMs  int    `mapstructure:"detail_delay_ms"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SourceConfig enables and shapes one publisher adapter. Mode selects
// the feed or listing strategy; Headless routes listing fetches through
// the chromedp renderer for JS-heavy boards.
type SourceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Mode    string `mapstructure:"mode"`
	FeedURL string `mapstructure:"feed_url"`
	// ListingURL overrides the built-in board URL in listing mode.
	ListingURL string `mapstructure:"listing_url"`
	Headless   bool   `mapstructure:"headless"`
}

// Adapter modes for SourceConfig.Mode.
const (
	ModeFeed    = "feed"
	ModeListing = "listing"
)

// StoreConfig controls access to the relational database. An empty DSN
// selects the in-memory store.
type StoreConfig struct {
	DSN                string `mapstructure:"dsn"`
	MaxConns           int    `mapstructure:"max_conns"`
	MinConns           int    `mapstructure:"min_conns"`
	MaxConnLifetimeMin int    `mapstructure:"max_conn_lifetime_minutes"`
}

// ArchiveConfig selects the raw-snapshot store.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	BaseDir   string `mapstructure:"base_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// Archive providers for ArchiveConfig.Provider.
const (
	ArchiveNone  = "none"
	ArchiveLocal = "local"
	ArchiveGCS   = "gcs"
)

// PubSubConfig holds metadata for new-release notifications. An empty
// project disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ScheduleConfig drives the in-process cron trigger.
type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRESSCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.default_limit", 20)
	v.SetDefault("crawler.detail_delay_ms", 500)
	v.SetDefault("crawler.user_agent", "press-crawler/0.1")
	v.SetDefault("crawler.timeout_seconds", 30)
	v.SetDefault("sources.msit.enabled", true)
	v.SetDefault("sources.msit.mode", ModeListing)
	v.SetDefault("sources.kcc.enabled", true)
	v.SetDefault("sources.kcc.mode", ModeListing)
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("store.max_conn_lifetime_minutes", 30)
	v.SetDefault("archive.provider", ArchiveNone)
	v.SetDefault("archive.prefix", "snapshots")
	v.SetDefault("pubsub.topic_name", "press-release-new")
	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.cron", "*/30 * * * *")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.DefaultLimit <= 0 {
		return fmt.Errorf("crawler.default_limit must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	for name, src := range c.Sources {
		if _, err := press.ParseSource(name); err != nil {
			return fmt.Errorf("sources.%s: %w", name, err)
		}
		if !src.Enabled {
			continue
		}
		switch src.Mode {
		case ModeFeed:
			if src.FeedURL == "" {
				return fmt.Errorf("sources.%s.feed_url must be set in feed mode", name)
			}
		case ModeListing:
		default:
			return fmt.Errorf("sources.%s.mode must be %q or %q", name, ModeFeed, ModeListing)
		}
	}
	switch c.Archive.Provider {
	case ArchiveNone:
	case ArchiveLocal:
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir must be set for the local provider")
		}
	case ArchiveGCS:
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set for the gcs provider")
		}
	default:
		return fmt.Errorf("archive.provider must be one of %q, %q, %q", ArchiveNone, ArchiveLocal, ArchiveGCS)
	}
	if c.Schedule.Enabled && c.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron must be set when the schedule is enabled")
	}
	return nil
}

// FetchTimeout converts the crawler timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}

// DetailDelay converts the inter-request pause into a duration.
func (c Config) DetailDelay() time.Duration {
	return time.Duration(c.Crawler.DetailDelayMs) * time.Millisecond
}

// MaxConnLifetime converts the pool lifetime into a duration.
func (c StoreConfig) MaxConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifetimeMin) * time.Minute
}
