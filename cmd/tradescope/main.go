package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshetty/tradescope/internal/api"
	"github.com/rshetty/tradescope/internal/cache"
	"github.com/rshetty/tradescope/internal/config"
	"github.com/rshetty/tradescope/internal/scrape"
	"github.com/rshetty/tradescope/internal/storage"
	"github.com/rshetty/tradescope/internal/types"
)

var (
	cfgFile string
	verbose bool
	port    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tradescope",
		Short: "Tradescope — legislator and insider trade scraper",
		Long: `Tradescope scrapes legislator stock-transaction disclosures and corporate
insider filings from their script-rendered source sites, normalizes them into
a single record shape, and serves them over a small REST API with per-day
caching.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the trade API server",
		Long:  "Run the REST API, with a background schedule that keeps both source caches warm.",
		RunE:  runServe,
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, cfg, err := setup()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	orch, archive, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return err
	}
	if archive != nil {
		defer archive.Close()
	}

	server := api.NewServer(cfg, orch, logger)
	return server.Start()
}

// scrapeCmd creates the "scrape" subcommand for one-shot scrapes.
func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape [source]",
		Short: "Scrape one source once and print the records as JSON",
		Long:  "Run a single scrape pass for a source (disclosure or insider) and write the records to stdout.",
		Args:  cobra.ExactArgs(1),
		RunE:  runScrape,
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger, cfg, err := setup()
	if err != nil {
		return err
	}

	var src types.Source
	switch strings.ToLower(args[0]) {
	case "disclosure":
		src = types.SourceDisclosure
	case "insider":
		src = types.SourceInsider
	default:
		return fmt.Errorf("%w: %s (want disclosure or insider)", types.ErrUnknownSource, args[0])
	}

	orch, archive, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return err
	}
	if archive != nil {
		defer archive.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	res, err := orch.Trades(ctx, src)
	if err != nil {
		return fmt.Errorf("scrape %s: %w", src, err)
	}

	logger.Info("scrape complete",
		"source", src,
		"records", len(res.Records),
		"pages", res.Pages,
		"elapsed", time.Since(start).Round(time.Millisecond))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Records)
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Server:\n")
			fmt.Printf("  Port:              %d\n", cfg.Server.Port)
			fmt.Printf("  Write Timeout:     %s\n", cfg.Server.WriteTimeout)
			fmt.Printf("\nScraper:\n")
			fmt.Printf("  Navigation Timeout: %s\n", cfg.Scraper.NavigationTimeout)
			fmt.Printf("  Selector Timeout:   %s\n", cfg.Scraper.SelectorTimeout)
			fmt.Printf("  Max Pages:          %d\n", cfg.Scraper.MaxPages)
			fmt.Printf("  Page Delay:         %s\n", cfg.Scraper.PageDelay)
			fmt.Printf("  Headless:           %v\n", cfg.Scraper.Headless)
			fmt.Printf("  Stealth:            %v\n", cfg.Scraper.Stealth)
			fmt.Printf("  Refresh Schedule:   %s\n", cfg.Scraper.RefreshSchedule)
			fmt.Printf("\nSources:\n")
			fmt.Printf("  Disclosure:        %s\n", cfg.Sources.Disclosure.URL)
			fmt.Printf("  Insider:           %s\n", cfg.Sources.Insider.URL)
			fmt.Printf("\nCache:\n")
			fmt.Printf("  Reference TZ:      %s\n", cfg.Cache.ReferenceTimezone)
			fmt.Printf("  Cutoff Hour:       %d\n", cfg.Cache.CutoffHour)
			fmt.Printf("\nArchive:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Archive.Enabled)
			fmt.Printf("  Type:              %s\n", cfg.Archive.Type)
			fmt.Printf("  Output Path:       %s\n", cfg.Archive.OutputPath)
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Tradescope %s\n", config.Version)
		},
	}
}

// setup loads and validates config and builds the logger.
func setup() (*slog.Logger, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return setupLogger(&cfg.Logging), cfg, nil
}

// buildOrchestrator wires the cache, archive, and scrape orchestrator.
func buildOrchestrator(cfg *config.Config, logger *slog.Logger) (*scrape.Orchestrator, storage.Storage, error) {
	dc, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create cache: %w", err)
	}

	archive, err := storage.NewFromConfig(&cfg.Archive, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create archive: %w", err)
	}

	opts := []scrape.OrchestratorOption{}
	if archive != nil {
		opts = append(opts, scrape.WithArchive(archive))
	}
	return scrape.NewOrchestrator(cfg, dc, logger, opts...), archive, nil
}

// setupLogger creates a structured logger from the logging config, with the
// -v flag forcing debug level.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
