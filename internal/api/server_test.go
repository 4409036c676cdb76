package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rshetty/tradescope/internal/config"
	"github.com/rshetty/tradescope/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeService implements TradeService with canned responses.
type fakeService struct {
	results   map[types.Source]*types.ScrapeResult
	err       error
	cleared   int
	lastFetch string
}

func (f *fakeService) Trades(ctx context.Context, src types.Source) (*types.ScrapeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[src], nil
}

func (f *fakeService) ClearCache()           { f.cleared++ }
func (f *fakeService) LastFetchDate() string { return f.lastFetch }

func newTestServer(svc *fakeService) *Server {
	return NewServer(config.DefaultConfig(), svc, testLogger)
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestTradesEndpoint(t *testing.T) {
	svc := &fakeService{results: map[types.Source]*types.ScrapeResult{
		types.SourceDisclosure: {
			Source: types.SourceDisclosure,
			Records: []types.TradeRecord{{
				ID:              "disclosure-1",
				SubjectName:     "Jane Doe",
				Ticker:          "TSLA",
				TransactionType: types.TxPurchase,
				TransactionDate: "10/30/2025",
				SourceCategory:  types.SourceDisclosure,
			}},
		},
	}}

	rr := doRequest(t, newTestServer(svc), http.MethodGet, "/trades")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var records []types.TradeRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(records) != 1 || records[0].ID != "disclosure-1" {
		t.Errorf("unexpected payload: %+v", records)
	}
}

func TestInsiderTradesEndpoint(t *testing.T) {
	svc := &fakeService{results: map[types.Source]*types.ScrapeResult{
		types.SourceInsider: {
			Source:  types.SourceInsider,
			Records: []types.TradeRecord{{ID: "insider-1", Ticker: "MSFT"}},
		},
	}}

	rr := doRequest(t, newTestServer(svc), http.MethodGet, "/insider-trades")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var records []types.TradeRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(records) != 1 || records[0].Ticker != "MSFT" {
		t.Errorf("unexpected payload: %+v", records)
	}
}

func TestTradesEmptyIsArray(t *testing.T) {
	svc := &fakeService{results: map[types.Source]*types.ScrapeResult{
		types.SourceDisclosure: {Source: types.SourceDisclosure},
	}}

	rr := doRequest(t, newTestServer(svc), http.MethodGet, "/trades")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("expected an empty array, got %q", body)
	}
}

func TestTradesScrapeFailure(t *testing.T) {
	svc := &fakeService{err: &types.FetchError{
		URL:  "https://example.com/trades",
		Kind: types.FetchSelector,
		Err:  context.DeadlineExceeded,
	}}

	rr := doRequest(t, newTestServer(svc), http.MethodGet, "/trades")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload.Error != "scrape_failed" {
		t.Errorf("expected scrape_failed, got %q", payload.Error)
	}
	if !strings.Contains(payload.Message, "example.com") {
		t.Errorf("expected the failing URL in the message, got %q", payload.Message)
	}
}

func TestHealthEndpoint(t *testing.T) {
	svc := &fakeService{lastFetch: "2025-11-04"}

	rr := doRequest(t, newTestServer(svc), http.MethodGet, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var payload map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if payload["status"] != "ok" {
		t.Errorf("expected ok, got %q", payload["status"])
	}
	if payload["lastFetchDate"] != "2025-11-04" {
		t.Errorf("expected 2025-11-04, got %q", payload["lastFetchDate"])
	}
}

func TestHealthNeverScrapes(t *testing.T) {
	// Health must answer even when every scrape would fail.
	svc := &fakeService{err: context.DeadlineExceeded}

	rr := doRequest(t, newTestServer(svc), http.MethodGet, "/health")
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 from health during outage, got %d", rr.Code)
	}
}

func TestClearCacheEndpoint(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(svc)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rr := doRequest(t, s, method, "/clear-cache")
		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", method, rr.Code)
		}
	}
	if svc.cleared != 2 {
		t.Errorf("expected 2 clear calls, got %d", svc.cleared)
	}
}

func TestCORSHeaders(t *testing.T) {
	svc := &fakeService{lastFetch: ""}
	rr := doRequest(t, newTestServer(svc), http.MethodGet, "/health")
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard CORS origin, got %q", got)
	}
}

func TestUnknownRoute(t *testing.T) {
	rr := doRequest(t, newTestServer(&fakeService{}), http.MethodGet, "/nope")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}
