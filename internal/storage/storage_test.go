package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rshetty/tradescope/internal/config"
	"github.com/rshetty/tradescope/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sampleResult() *types.ScrapeResult {
	return &types.ScrapeResult{
		Source: types.SourceDisclosure,
		Records: []types.TradeRecord{
			{
				ID:              "disclosure-1",
				SubjectName:     "Jane Doe",
				SubjectRole:     "Democrat / House",
				Ticker:          "TSLA",
				TransactionType: types.TxPurchase,
				TransactionDate: "10/30/2025",
				AmountOrValue:   "$1,001 - $15,000",
				SourceCategory:  types.SourceDisclosure,
			},
			{
				ID:              "disclosure-2",
				SubjectName:     "John Roe",
				Ticker:          "AAPL",
				TransactionType: types.TxSale,
				TransactionDate: "10/29/2025",
				SourceCategory:  types.SourceDisclosure,
			},
		},
		FetchedAt:    time.Date(2025, time.November, 4, 15, 0, 0, 0, time.UTC),
		CacheDateKey: "2025-11-04",
		Pages:        2,
	}
}

func TestJSONStorageSnapshot(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStorage(dir, testLogger)
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	defer s.Close()

	res := sampleResult()
	if err := s.Store(res); err != nil {
		t.Fatalf("store: %v", err)
	}

	path := filepath.Join(dir, "disclosure-2025-11-04.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	var got types.ScrapeResult
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(got.Records) != 2 || got.CacheDateKey != "2025-11-04" {
		t.Errorf("unexpected snapshot: %+v", got)
	}

	// A re-store for the same key overwrites in place.
	res.Records = res.Records[:1]
	if err := s.Store(res); err != nil {
		t.Fatalf("re-store: %v", err)
	}
	data, _ = os.ReadFile(path)
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode overwritten snapshot: %v", err)
	}
	if len(got.Records) != 1 {
		t.Errorf("expected the snapshot overwritten, got %d records", len(got.Records))
	}
}

func TestJSONLStorageAppends(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONLStorage(dir, testLogger)
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	if err := s.Store(sampleResult()); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Store(sampleResult()); err != nil {
		t.Fatalf("second store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "disclosure.jsonl"))
	if err != nil {
		t.Fatalf("open jsonl: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line struct {
			types.TradeRecord
			FetchedAt    time.Time `json:"fetchedAt"`
			CacheDateKey string    `json:"cacheDateKey"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("line %d: %v", lines+1, err)
		}
		if line.CacheDateKey != "2025-11-04" {
			t.Errorf("line %d missing provenance: %+v", lines+1, line)
		}
		lines++
	}
	if lines != 4 {
		t.Errorf("expected 4 appended lines, got %d", lines)
	}
}

func TestCSVStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVStorage(dir, testLogger)
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	if err := s.Store(sampleResult()); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "trades.csv"))
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "subject_name" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "disclosure-1" || rows[1][3] != "TSLA" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()

	disabled := &config.ArchiveConfig{Enabled: false}
	s, err := NewFromConfig(disabled, testLogger)
	if err != nil {
		t.Fatalf("disabled archive: %v", err)
	}
	if s != nil {
		t.Error("disabled archive must yield a nil storage")
	}

	for _, typ := range []string{"json", "jsonl", "csv"} {
		cfg := &config.ArchiveConfig{Enabled: true, Type: typ, OutputPath: filepath.Join(dir, typ)}
		s, err := NewFromConfig(cfg, testLogger)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if s.Name() != typ {
			t.Errorf("expected backend %q, got %q", typ, s.Name())
		}
		s.Close()
	}

	if _, err := NewFromConfig(&config.ArchiveConfig{Enabled: true, Type: "sqlite"}, testLogger); err == nil {
		t.Error("unsupported type must error")
	}
}

// failingStorage always errors, for the fan-out test.
type failingStorage struct{}

func (failingStorage) Name() string                        { return "failing" }
func (failingStorage) Store(res *types.ScrapeResult) error { return errors.New("disk full") }
func (failingStorage) Close() error                        { return nil }

func TestMultiStorageFanOut(t *testing.T) {
	dir := t.TempDir()
	jsonStore, err := NewJSONStorage(dir, testLogger)
	if err != nil {
		t.Fatalf("create json storage: %v", err)
	}

	multi := NewMultiStorage([]Storage{failingStorage{}, jsonStore}, testLogger)
	if err := multi.Store(sampleResult()); err == nil {
		t.Error("expected the first backend's error to surface")
	}

	// The healthy backend still received the result.
	if _, err := os.Stat(filepath.Join(dir, "disclosure-2025-11-04.json")); err != nil {
		t.Errorf("healthy backend skipped: %v", err)
	}

	if err := multi.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
