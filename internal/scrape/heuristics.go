package scrape

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rshetty/tradescope/internal/types"
)

// The extraction heuristics operate on plain cell-text slices rather than DOM
// handles so they can be fixture-tested without a live browser.

var (
	// dayMonthYearRe matches "30 Oct 2025" style dates, with or without a
	// trailing period on the month abbreviation.
	dayMonthYearRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec)[a-z]*\.?\s+(\d{4})\b`)

	// clockTimeRe matches "17:30" style clock times. A cell carrying one is a
	// filing/publish timestamp, not a transaction date.
	clockTimeRe = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)

	// dollarRangeRe matches "$50,001 - $100,000" style ranges (any dash).
	dollarRangeRe = regexp.MustCompile(`\$\s*([\d,]+(?:\.\d+)?)\s*[-–—]\s*\$\s*([\d,]+(?:\.\d+)?)`)

	// compactRangeRe matches "1K–15K" style ranges.
	compactRangeRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*([KMB])\s*[-–—]\s*(\d+(?:\.\d+)?)\s*([KMB])\b`)
)

// relativeWords mark a cell as a filing timestamp ("17:30 Yesterday").
var relativeWords = []string{"yesterday", "today", "ago"}

var monthsByAbbr = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November,
	"dec": time.December,
}

// LastTradeDate scans a row's cells for "day month-abbrev year" dates,
// skipping any cell that also carries a clock time or a relative-time word
// (those denote the filing date, not the transaction). Rows routinely show a
// publish date and a trade date together; among the surviving candidates the
// trade date consistently sorts last, so the last match wins.
//
// This rides on the source's empirical column ordering and is the most
// fragile contract in the system; it is deliberately not hardened further.
func LastTradeDate(cells []string) (time.Time, bool) {
	var last time.Time
	found := false

	for _, cell := range cells {
		if isFilingTimestamp(cell) {
			continue
		}
		for _, m := range dayMonthYearRe.FindAllStringSubmatch(cell, -1) {
			if t, ok := buildDate(m[1], m[2], m[3]); ok {
				last = t
				found = true
			}
		}
	}
	return last, found
}

// isFilingTimestamp reports whether a cell's text denotes a filing/publish
// date rather than a transaction date.
func isFilingTimestamp(cell string) bool {
	if clockTimeRe.MatchString(cell) {
		return true
	}
	lower := strings.ToLower(cell)
	for _, w := range relativeWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func buildDate(day, monthAbbr, year string) (time.Time, bool) {
	month, ok := monthsByAbbr[strings.ToLower(monthAbbr)]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse("2 1 2006", fmt.Sprintf("%s %d %s", day, int(month), year))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDisclosureDate renders a transaction date in the disclosure
// source's canonical MM/DD/YYYY form.
func NormalizeDisclosureDate(t time.Time) string {
	return t.Format("01/02/2006")
}

// ParseAnyDate tries the handful of date layouts the sources are known to
// emit. Used for the dedicated transaction-date marker fallback.
func ParseAnyDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2 Jan 2006", "02 Jan 2006", "2006-01-02", "01/02/2006", "Jan 2, 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if m := dayMonthYearRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	return time.Time{}, false
}

// purchaseVerbs and saleVerbs are matched against whole cell text,
// case-insensitively and exactly. Absence of a match yields TxUnknown, never
// a guess.
var (
	purchaseVerbs = map[string]bool{"purchased": true, "purchase": true, "buy": true}
	saleVerbs     = map[string]bool{"sold": true, "sale": true, "sell": true}
)

// ClassifyDisclosureVerb resolves a row's transaction type from its cells.
func ClassifyDisclosureVerb(cells []string) types.TransactionType {
	for _, cell := range cells {
		v := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case purchaseVerbs[v]:
			return types.TxPurchase
		case saleVerbs[v]:
			return types.TxSale
		}
	}
	return types.TxUnknown
}

// ClassifyInsiderCode resolves the insider source's transaction-type column,
// which carries either a code-plus-label ("P - Purchase", "S - Sale") or a
// bare single-letter SEC code.
func ClassifyInsiderCode(code string) types.TransactionType {
	c := strings.ToLower(strings.TrimSpace(code))
	switch c {
	case "p":
		return types.TxPurchase
	case "s":
		return types.TxSale
	}
	switch {
	case strings.Contains(c, "purchase") || strings.Contains(c, "buy"):
		return types.TxPurchase
	case strings.Contains(c, "sale") || strings.Contains(c, "sell"):
		return types.TxSale
	}
	return types.TxUnknown
}

// ParseAmountRange scans a row's cells for a monetary range: "$X - $Y" first,
// then the compact "NNK–MMK" form, which is rewritten into the former's
// dollar format.
func ParseAmountRange(cells []string) string {
	for _, cell := range cells {
		if m := dollarRangeRe.FindStringSubmatch(cell); m != nil {
			return fmt.Sprintf("$%s - $%s", m[1], m[2])
		}
	}
	for _, cell := range cells {
		if m := compactRangeRe.FindStringSubmatch(cell); m != nil {
			return fmt.Sprintf("$%s%s - $%s%s", m[1], strings.ToUpper(m[2]), m[3], strings.ToUpper(m[4]))
		}
	}
	return ""
}

// relationVocab is a closed vocabulary; partial matches are deliberately
// rejected to avoid false positives against unrelated cell text.
var relationVocab = map[string]string{
	"spouse":    "Spouse",
	"self":      "Self",
	"child":     "Child",
	"joint":     "Joint",
	"dependent": "Dependent",
}

// RelationToFiler captures the filer relation only when a cell's whole text
// is an exact vocabulary match.
func RelationToFiler(cells []string) string {
	for _, cell := range cells {
		if rel, ok := relationVocab[strings.ToLower(strings.TrimSpace(cell))]; ok {
			return rel
		}
	}
	return ""
}

// treasuryNameMarkers flag non-equity instruments by company/asset name.
var treasuryNameMarkers = []string{
	"treasury", "t-bill", "t-note", "t-bond",
	"bill due", "note due", "bond due",
}

// IsTreasuryInstrument reports whether a row describes a treasury or bond
// instrument rather than an equity. Matched by company-name substrings, a
// ticker prefix convention (the 912 Treasury CUSIP family), or a bare
// currency code standing in for a ticker.
func IsTreasuryInstrument(ticker, company string) bool {
	name := strings.ToLower(company)
	for _, marker := range treasuryNameMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}

	t := strings.ToUpper(strings.TrimSpace(ticker))
	if strings.HasPrefix(t, "912") {
		return true
	}
	if t == "US" || t == "USD" {
		return true
	}
	return strings.Contains(t, "TBILL") || strings.Contains(t, "TNOTE") || strings.Contains(t, "TBOND")
}

// placeholderTickers are values the sources emit when no symbol exists.
var placeholderTickers = map[string]bool{
	"": true, "-": true, "--": true, "—": true,
	"N/A": true, "NA": true, "NONE": true,
}

// IsPlaceholderTicker reports whether a ticker is missing or a placeholder.
func IsPlaceholderTicker(ticker string) bool {
	return placeholderTickers[strings.ToUpper(strings.TrimSpace(ticker))]
}
