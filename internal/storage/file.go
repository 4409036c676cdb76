package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rshetty/tradescope/internal/types"
)

// --- JSON Storage ---

// JSONStorage writes each scrape result as its own snapshot file, named by
// source and cache-date key. A re-scrape for the same key overwrites the
// previous snapshot.
type JSONStorage struct {
	dir    string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewJSONStorage creates a per-snapshot JSON archive under dir.
func NewJSONStorage(dir string, logger *slog.Logger) (*JSONStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "json", Err: fmt.Errorf("create archive dir: %w", err)}
	}
	return &JSONStorage{
		dir:    dir,
		logger: logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(res *types.ScrapeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", res.Source, res.CacheDateKey))
	f, err := os.Create(path)
	if err != nil {
		return &types.StorageError{Backend: "json", Err: err}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return &types.StorageError{Backend: "json", Err: err}
	}

	s.logger.Debug("snapshot written", "path", path, "records", len(res.Records))
	return nil
}

func (s *JSONStorage) Close() error { return nil }

// --- JSONL Storage ---

// JSONLStorage appends every record of every result to one newline-delimited
// file per source, with provenance fields on each line.
type JSONLStorage struct {
	dir    string
	mu     sync.Mutex
	files  map[types.Source]*os.File
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates an append-only JSONL archive under dir.
func NewJSONLStorage(dir string, logger *slog.Logger) (*JSONLStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "jsonl", Err: fmt.Errorf("create archive dir: %w", err)}
	}
	return &JSONLStorage{
		dir:    dir,
		files:  make(map[types.Source]*os.File),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(res *types.ScrapeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fileFor(res.Source)
	if err != nil {
		return &types.StorageError{Backend: "jsonl", Err: err}
	}

	enc := json.NewEncoder(f)
	for _, rec := range res.Records {
		line := struct {
			types.TradeRecord
			FetchedAt    time.Time `json:"fetchedAt"`
			CacheDateKey string    `json:"cacheDateKey"`
		}{rec, res.FetchedAt, res.CacheDateKey}

		if err := enc.Encode(line); err != nil {
			return &types.StorageError{Backend: "jsonl", Err: err}
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) fileFor(src types.Source) (*os.File, error) {
	if f, ok := s.files[src]; ok {
		return f, nil
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s.jsonl", src))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	s.files[src] = f
	return f, nil
}

func (s *JSONLStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("jsonl archive closing", "records", s.count)
	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// --- CSV Storage ---

var csvHeaders = []string{
	"id", "subject_name", "subject_role", "ticker", "asset_description",
	"transaction_type", "transaction_date", "amount_or_value",
	"relation_to_filer", "source", "cache_date_key", "fetched_at",
}

// CSVStorage appends records from every result to one CSV file.
type CSVStorage struct {
	path    string
	file    *os.File
	writer  *csv.Writer
	mu      sync.Mutex
	wroteHd bool
	count   int
	logger  *slog.Logger
}

// NewCSVStorage creates a CSV archive under dir.
func NewCSVStorage(dir string, logger *slog.Logger) (*CSVStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("create archive dir: %w", err)}
	}

	path := filepath.Join(dir, "trades.csv")
	f, err := os.Create(path)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: err}
	}

	return &CSVStorage{
		path:   path,
		file:   f,
		writer: csv.NewWriter(f),
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(res *types.ScrapeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.wroteHd {
		if err := s.writer.Write(csvHeaders); err != nil {
			return &types.StorageError{Backend: "csv", Err: err}
		}
		s.wroteHd = true
	}

	fetched := res.FetchedAt.UTC().Format(time.RFC3339)
	for _, rec := range res.Records {
		row := []string{
			rec.ID, rec.SubjectName, rec.SubjectRole, rec.Ticker, rec.AssetDescription,
			string(rec.TransactionType), rec.TransactionDate, rec.AmountOrValue,
			rec.RelationToFiler, string(rec.SourceCategory), res.CacheDateKey, fetched,
		}
		if err := s.writer.Write(row); err != nil {
			return &types.StorageError{Backend: "csv", Err: err}
		}
		s.count++
	}

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return &types.StorageError{Backend: "csv", Err: err}
	}
	return nil
}

func (s *CSVStorage) Close() error {
	s.logger.Info("csv archive closing", "path", s.path, "records", s.count)
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
