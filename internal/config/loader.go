package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("TRADESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("tradescope")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".tradescope"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)

	v.SetDefault("scraper.navigation_timeout", cfg.Scraper.NavigationTimeout)
	v.SetDefault("scraper.selector_timeout", cfg.Scraper.SelectorTimeout)
	v.SetDefault("scraper.max_pages", cfg.Scraper.MaxPages)
	v.SetDefault("scraper.page_delay", cfg.Scraper.PageDelay)
	v.SetDefault("scraper.headless", cfg.Scraper.Headless)
	v.SetDefault("scraper.stealth", cfg.Scraper.Stealth)
	v.SetDefault("scraper.user_agent", cfg.Scraper.UserAgent)
	v.SetDefault("scraper.refresh_schedule", cfg.Scraper.RefreshSchedule)

	v.SetDefault("sources.disclosure.url", cfg.Sources.Disclosure.URL)
	v.SetDefault("sources.insider.url", cfg.Sources.Insider.URL)

	v.SetDefault("cache.reference_timezone", cfg.Cache.ReferenceTimezone)
	v.SetDefault("cache.cutoff_hour", cfg.Cache.CutoffHour)

	v.SetDefault("archive.enabled", cfg.Archive.Enabled)
	v.SetDefault("archive.type", cfg.Archive.Type)
	v.SetDefault("archive.output_path", cfg.Archive.OutputPath)
	v.SetDefault("archive.mongo_uri", cfg.Archive.MongoURI)
	v.SetDefault("archive.mongo_database", cfg.Archive.MongoDatabase)
	v.SetDefault("archive.mongo_collection", cfg.Archive.MongoCollection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
