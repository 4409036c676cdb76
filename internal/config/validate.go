package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}

	if cfg.Scraper.NavigationTimeout <= 0 {
		return fmt.Errorf("scraper.navigation_timeout must be > 0")
	}
	if cfg.Scraper.SelectorTimeout <= 0 {
		return fmt.Errorf("scraper.selector_timeout must be > 0")
	}
	if cfg.Scraper.MaxPages < 1 {
		return fmt.Errorf("scraper.max_pages must be >= 1, got %d", cfg.Scraper.MaxPages)
	}
	if cfg.Scraper.PageDelay < 0 {
		return fmt.Errorf("scraper.page_delay must be >= 0")
	}

	if err := ValidateURL(cfg.Sources.Disclosure.URL); err != nil {
		return fmt.Errorf("sources.disclosure.url: %w", err)
	}
	if err := ValidateURL(cfg.Sources.Insider.URL); err != nil {
		return fmt.Errorf("sources.insider.url: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Cache.ReferenceTimezone); err != nil {
		return fmt.Errorf("cache.reference_timezone %q is not a valid IANA zone: %w", cfg.Cache.ReferenceTimezone, err)
	}
	if cfg.Cache.CutoffHour < 0 || cfg.Cache.CutoffHour > 23 {
		return fmt.Errorf("cache.cutoff_hour must be 0-23, got %d", cfg.Cache.CutoffHour)
	}

	if cfg.Archive.Enabled {
		validArchiveTypes := map[string]bool{
			"json": true, "jsonl": true, "csv": true, "mongodb": true,
		}
		if !validArchiveTypes[cfg.Archive.Type] {
			return fmt.Errorf("archive.type %q is not supported (valid: json, jsonl, csv, mongodb)", cfg.Archive.Type)
		}
		if cfg.Archive.Type == "mongodb" && cfg.Archive.MongoURI == "" {
			return fmt.Errorf("archive.mongo_uri is required when archive.type is mongodb")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a scrape origin.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
