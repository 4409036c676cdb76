// Package storage archives successful scrape results. The archive is an
// optional sink; the serving path never reads from it.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/rshetty/tradescope/internal/config"
	"github.com/rshetty/tradescope/internal/types"
)

// Storage is the interface for all archive backends.
type Storage interface {
	// Store persists one scrape result.
	Store(res *types.ScrapeResult) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}

// NewFromConfig creates the configured archive backend, or nil when
// archiving is disabled.
func NewFromConfig(cfg *config.ArchiveConfig, logger *slog.Logger) (Storage, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Type {
	case "json":
		return NewJSONStorage(cfg.OutputPath, logger)
	case "jsonl":
		return NewJSONLStorage(cfg.OutputPath, logger)
	case "csv":
		return NewCSVStorage(cfg.OutputPath, logger)
	case "mongodb":
		return NewMongoStorage(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", cfg.Type)
	}
}

// MultiStorage fans a result out to multiple backends.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that writes to every backend.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

func (s *MultiStorage) Store(res *types.ScrapeResult) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(res); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiStorage) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
