package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for tradescope.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	Sources SourcesConfig `mapstructure:"sources" yaml:"sources"`
	Cache   CacheConfig   `mapstructure:"cache"   yaml:"cache"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Port        int           `mapstructure:"port"         yaml:"port"`
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	// WriteTimeout must cover a full cold scrape, which can run for minutes
	// when the origin paginates deeply.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"  yaml:"idle_timeout"`
}

// ScraperConfig controls browser rendering and page walking.
type ScraperConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SelectorTimeout   time.Duration `mapstructure:"selector_timeout"   yaml:"selector_timeout"`
	MaxPages          int           `mapstructure:"max_pages"          yaml:"max_pages"`
	PageDelay         time.Duration `mapstructure:"page_delay"         yaml:"page_delay"`
	Headless          bool          `mapstructure:"headless"           yaml:"headless"`
	Stealth           bool          `mapstructure:"stealth"            yaml:"stealth"`
	UserAgent         string        `mapstructure:"user_agent"         yaml:"user_agent"`
	// RefreshSchedule is a cron spec for pre-warming both source caches.
	// Empty disables scheduled refresh.
	RefreshSchedule string `mapstructure:"refresh_schedule" yaml:"refresh_schedule"`
}

// SourcesConfig holds the two scraped origins.
type SourcesConfig struct {
	Disclosure SourceConfig `mapstructure:"disclosure" yaml:"disclosure"`
	Insider    SourceConfig `mapstructure:"insider"    yaml:"insider"`
}

// SourceConfig describes one scraped origin.
type SourceConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// CacheConfig controls the daily cache-date key computation.
type CacheConfig struct {
	// ReferenceTimezone is the IANA zone used for the insider source's day
	// key. The insider site publishes "today's" data only after CutoffHour
	// in this zone.
	ReferenceTimezone string `mapstructure:"reference_timezone" yaml:"reference_timezone"`
	CutoffHour        int    `mapstructure:"cutoff_hour"        yaml:"cutoff_hour"`
}

// ArchiveConfig controls optional persistence of successful scrape results.
type ArchiveConfig struct {
	Enabled         bool   `mapstructure:"enabled"          yaml:"enabled"`
	Type            string `mapstructure:"type"             yaml:"type"` // json, jsonl, csv, mongodb
	OutputPath      string `mapstructure:"output_path"      yaml:"output_path"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		Scraper: ScraperConfig{
			NavigationTimeout: 60 * time.Second,
			SelectorTimeout:   30 * time.Second,
			MaxPages:          25,
			PageDelay:         500 * time.Millisecond,
			Headless:          true,
			Stealth:           true,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RefreshSchedule:   "@hourly",
		},
		Sources: SourcesConfig{
			Disclosure: SourceConfig{
				URL: "https://www.capitoltrades.com/trades?pageSize=96",
			},
			Insider: SourceConfig{
				URL: "http://openinsider.com/screener?fd=30&td=0&cnt=500",
			},
		},
		Cache: CacheConfig{
			ReferenceTimezone: "America/New_York",
			CutoffHour:        10,
		},
		Archive: ArchiveConfig{
			Enabled:         false,
			Type:            "jsonl",
			OutputPath:      "./archive",
			MongoDatabase:   "tradescope",
			MongoCollection: "scrapes",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
