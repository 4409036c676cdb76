package scrape

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rshetty/tradescope/internal/types"
)

// Marker classes on the disclosure site's result rows. These are the named
// sub-fields the site renders per row; everything else is recovered from raw
// cell text by the heuristics.
const (
	disclosureRowSelector = "table tbody tr"

	markerPolitician = ".politician-name"
	markerParty      = ".party"
	markerChamber    = ".chamber"
	markerState      = ".us-state-compact"
	markerTicker     = ".issuer-ticker"
	markerIssuer     = ".issuer-name"
	markerTxDate     = ".tx-date"
)

// DisclosureExtractor is the selector-driven strategy for the legislator
// disclosure site.
type DisclosureExtractor struct {
	baseURL string
	logger  *slog.Logger
}

// NewDisclosureExtractor creates the disclosure-table strategy.
func NewDisclosureExtractor(baseURL string, logger *slog.Logger) *DisclosureExtractor {
	return &DisclosureExtractor{
		baseURL: baseURL,
		logger:  logger.With("component", "disclosure_extractor"),
	}
}

func (e *DisclosureExtractor) Source() types.Source { return types.SourceDisclosure }

func (e *DisclosureExtractor) PageURL(page int) string { return pageURL(e.baseURL, page) }

func (e *DisclosureExtractor) WaitSelector() string { return disclosureRowSelector }

// ExtractPage extracts all candidate trade records from a rendered page.
func (e *DisclosureExtractor) ExtractPage(pg *types.RenderedPage) ([]types.TradeRecord, error) {
	doc, err := pg.Document()
	if err != nil {
		return nil, err
	}

	var records []types.TradeRecord
	doc.Find(disclosureRowSelector).Each(func(i int, row *goquery.Selection) {
		if rec, ok := e.safeExtractRow(i, row); ok {
			records = append(records, *rec)
		}
	})

	e.logger.Debug("page extracted", "url", pg.URL, "records", len(records))
	return records, nil
}

// safeExtractRow drops a row that blows up mid-parse instead of aborting the
// whole page.
func (e *DisclosureExtractor) safeExtractRow(i int, row *goquery.Selection) (rec *types.TradeRecord, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err := &types.ExtractError{Source: types.SourceDisclosure, Row: i, Err: fmt.Errorf("%v", r)}
			e.logger.Warn("row dropped", "error", err)
			rec, ok = nil, false
		}
	}()
	return e.extractRow(row)
}

// extractRow applies the disclosure heuristics to one row. Rows with a
// missing subject, an unresolvable transaction date, a placeholder ticker, or
// a treasury/bond instrument yield nothing.
func (e *DisclosureExtractor) extractRow(row *goquery.Selection) (*types.TradeRecord, bool) {
	ticker := markerText(row, markerTicker)
	company := markerText(row, markerIssuer)
	if IsPlaceholderTicker(ticker) || IsTreasuryInstrument(ticker, company) {
		return nil, false
	}

	name := markerText(row, markerPolitician)
	if name == "" {
		return nil, false
	}

	cells := cellTexts(row)

	dateStr := ""
	if t, ok := LastTradeDate(cells); ok {
		dateStr = NormalizeDisclosureDate(t)
	} else if raw := markerText(row, markerTxDate); raw != "" {
		if t, ok := ParseAnyDate(raw); ok {
			dateStr = NormalizeDisclosureDate(t)
		}
	}
	if dateStr == "" {
		return nil, false
	}

	return &types.TradeRecord{
		SubjectName:      name,
		SubjectRole:      subjectRole(row),
		Ticker:           strings.ToUpper(strings.TrimSpace(ticker)),
		AssetDescription: company,
		TransactionType:  ClassifyDisclosureVerb(cells),
		TransactionDate:  dateStr,
		AmountOrValue:    ParseAmountRange(cells),
		RelationToFiler:  RelationToFiler(cells),
		SourceCategory:   types.SourceDisclosure,
	}, true
}

// subjectRole combines party, chamber, and state ("Democrat / House / CA")
// from whichever markers the row carries.
func subjectRole(row *goquery.Selection) string {
	parts := make([]string, 0, 3)
	for _, marker := range []string{markerParty, markerChamber, markerState} {
		if v := markerText(row, marker); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " / ")
}

// markerText returns the trimmed text of the first element matching a marker
// class within the row.
func markerText(row *goquery.Selection, selector string) string {
	return strings.TrimSpace(row.Find(selector).First().Text())
}

// cellTexts returns the trimmed text of each table cell in the row.
func cellTexts(row *goquery.Selection) []string {
	var cells []string
	row.Find("td").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}
