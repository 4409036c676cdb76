package scrape

import (
	"strings"
	"time"

	"github.com/rshetty/tradescope/internal/types"
)

// insiderWindowDays bounds the insider source to a trailing calendar window;
// its underlying query is not date-bounded as tightly as the disclosure
// source's.
const insiderWindowDays = 30

// dotSuffixes are exchange suffixes in dotted form; colon suffixes ("TSLA:US")
// are stripped unconditionally.
var dotSuffixes = []string{".TO", ".L", ".AX", ".HK", ".PA", ".DE", ".SW"}

// ApplyFilter is a pure post-pass over extracted records: it strips exchange
// suffixes from tickers, drops records whose cleaned ticker becomes empty or
// a placeholder, drops parseable future-dated records, and for the insider
// source drops records outside the trailing 30-day window (inclusive of
// today). Re-running it on an already-filtered set is a no-op.
func ApplyFilter(records []types.TradeRecord, now time.Time) []types.TradeRecord {
	today := dateOnly(now)
	cutoff := today.AddDate(0, 0, -insiderWindowDays)

	out := make([]types.TradeRecord, 0, len(records))
	for _, rec := range records {
		rec.Ticker = CleanTicker(rec.Ticker)
		if IsPlaceholderTicker(rec.Ticker) {
			continue
		}

		if t, ok := recordDate(rec); ok {
			if t.After(today) {
				continue
			}
			if rec.SourceCategory == types.SourceInsider && t.Before(cutoff) {
				continue
			}
		}

		out = append(out, rec)
	}
	return out
}

// CleanTicker uppercases a ticker and strips known exchange suffixes.
func CleanTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if i := strings.IndexByte(t, ':'); i >= 0 {
		t = t[:i]
	}
	for _, suffix := range dotSuffixes {
		if strings.HasSuffix(t, suffix) {
			t = strings.TrimSuffix(t, suffix)
			break
		}
	}
	return strings.TrimSpace(t)
}

// recordDate parses a record's transaction date in its source's canonical
// layout, falling back to the other source's layout.
func recordDate(rec types.TradeRecord) (time.Time, bool) {
	layouts := []string{"01/02/2006", insiderDateLayout}
	if rec.SourceCategory == types.SourceInsider {
		layouts = []string{insiderDateLayout, "01/02/2006"}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, rec.TransactionDate); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
