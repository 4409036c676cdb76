package scrape

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/rshetty/tradescope/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestLastTradeDateSkipsFilingTimestamp(t *testing.T) {
	cells := []string{"Jane Doe", "17:30 Yesterday", "30 Oct 2025", "$1,001 - $15,000"}

	got, ok := LastTradeDate(cells)
	if !ok {
		t.Fatal("expected a trade date")
	}
	want := time.Date(2025, time.October, 30, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestLastTradeDateLastMatchWins(t *testing.T) {
	// Publish date and trade date in separate cells, no timestamp markers.
	cells := []string{"5 Nov 2025", "30 Oct 2025"}

	got, ok := LastTradeDate(cells)
	if !ok {
		t.Fatal("expected a trade date")
	}
	if got.Day() != 30 || got.Month() != time.October {
		t.Errorf("expected the last date to win, got %s", got)
	}
}

func TestLastTradeDateNoCandidates(t *testing.T) {
	cells := []string{"Jane Doe", "17:30 Yesterday", "2 days ago", "TSLA"}

	if _, ok := LastTradeDate(cells); ok {
		t.Error("expected no trade date from timestamp-only cells")
	}
}

func TestNormalizeDisclosureDate(t *testing.T) {
	d := time.Date(2025, time.October, 30, 0, 0, 0, 0, time.UTC)
	if got := NormalizeDisclosureDate(d); got != "10/30/2025" {
		t.Errorf("expected 10/30/2025, got %q", got)
	}
}

func TestParseAnyDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"30 Oct 2025", "2025-10-30", true},
		{"2 Jan 2026", "2026-01-02", true},
		{"2025-10-30", "2025-10-30", true},
		{"10/30/2025", "2025-10-30", true},
		{"Oct 30, 2025", "2025-10-30", true},
		{"not a date", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseAnyDate(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseAnyDate(%q): ok=%v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got.Format("2006-01-02") != tc.want {
			t.Errorf("ParseAnyDate(%q) = %s, want %s", tc.in, got.Format("2006-01-02"), tc.want)
		}
	}
}

func TestClassifyDisclosureVerb(t *testing.T) {
	cases := []struct {
		cells []string
		want  types.TransactionType
	}{
		{[]string{"Jane Doe", "TSLA", "Purchased"}, types.TxPurchase},
		{[]string{"Jane Doe", "TSLA", "sold"}, types.TxSale},
		{[]string{"Jane Doe", "TSLA", "buy"}, types.TxPurchase},
		{[]string{"Jane Doe", "TSLA", "exchange"}, types.TxUnknown},
		// Verb embedded in a longer cell must not match.
		{[]string{"recently sold holdings"}, types.TxUnknown},
		{nil, types.TxUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyDisclosureVerb(tc.cells); got != tc.want {
			t.Errorf("ClassifyDisclosureVerb(%v) = %s, want %s", tc.cells, got, tc.want)
		}
	}
}

func TestClassifyInsiderCode(t *testing.T) {
	cases := []struct {
		code string
		want types.TransactionType
	}{
		{"P", types.TxPurchase},
		{"S", types.TxSale},
		{"P - Purchase", types.TxPurchase},
		{"S - Sale", types.TxSale},
		{"S - Sale+OE", types.TxSale},
		{"A - Grant", types.TxUnknown},
		{"F - Tax", types.TxUnknown},
		{"", types.TxUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyInsiderCode(tc.code); got != tc.want {
			t.Errorf("ClassifyInsiderCode(%q) = %s, want %s", tc.code, got, tc.want)
		}
	}
}

func TestParseAmountRange(t *testing.T) {
	cases := []struct {
		cells []string
		want  string
	}{
		{[]string{"$1,001 - $15,000"}, "$1,001 - $15,000"},
		{[]string{"noise", "$50,001 – $100,000"}, "$50,001 - $100,000"},
		{[]string{"1K–15K"}, "$1K - $15K"},
		{[]string{"1k - 15k"}, "$1K - $15K"},
		// Dollar form beats the compact form regardless of cell order.
		{[]string{"1K–15K", "$1,001 - $15,000"}, "$1,001 - $15,000"},
		{[]string{"no amounts here"}, ""},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := ParseAmountRange(tc.cells); got != tc.want {
			t.Errorf("ParseAmountRange(%v) = %q, want %q", tc.cells, got, tc.want)
		}
	}
}

func TestRelationToFiler(t *testing.T) {
	if got := RelationToFiler([]string{"Jane Doe", "Spouse"}); got != "Spouse" {
		t.Errorf("expected Spouse, got %q", got)
	}
	if got := RelationToFiler([]string{"spouse of filer"}); got != "" {
		t.Errorf("partial match must not resolve, got %q", got)
	}
	if got := RelationToFiler([]string{"Jane Doe", "TSLA"}); got != "" {
		t.Errorf("expected empty relation, got %q", got)
	}
}

func TestIsTreasuryInstrument(t *testing.T) {
	cases := []struct {
		ticker  string
		company string
		want    bool
	}{
		{"912828XG8", "", true},
		{"US", "", true},
		{"USD", "", true},
		{"TBILL", "", true},
		{"", "US Treasury Note due 2027", true},
		{"", "T-Bill 4.5%", true},
		{"AAPL", "Apple Inc", false},
		{"USB", "US Bancorp", false},
	}
	for _, tc := range cases {
		if got := IsTreasuryInstrument(tc.ticker, tc.company); got != tc.want {
			t.Errorf("IsTreasuryInstrument(%q, %q) = %v, want %v", tc.ticker, tc.company, got, tc.want)
		}
	}
}

func TestIsPlaceholderTicker(t *testing.T) {
	for _, p := range []string{"", "-", "--", "—", "N/A", "n/a", "NA", "none", "  "} {
		if !IsPlaceholderTicker(p) {
			t.Errorf("expected %q to be a placeholder", p)
		}
	}
	if IsPlaceholderTicker("AAPL") {
		t.Error("AAPL must not be a placeholder")
	}
}
