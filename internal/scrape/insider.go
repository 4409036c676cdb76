package scrape

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/rshetty/tradescope/internal/types"
)

// The insider-filing site renders one wide table with a fixed column
// contract; fields are read by cell index, not by marker class.
const (
	insiderWaitSelector = "table.tinytable"
	insiderRowsXPath    = `//table[contains(@class,"tinytable")]//tr[td]`

	colInsiderDate    = 2
	colInsiderTicker  = 3
	colInsiderCompany = 4
	colInsiderName    = 5
	colInsiderTitle   = 6
	colInsiderType    = 7
	colInsiderPrice   = 8
	colInsiderShares  = 9
	colInsiderOwned   = 10
	colInsiderValue   = 12

	// insiderMinCells is the highest index the contract reads, plus one.
	insiderMinCells = 13
)

// insiderDateLayout is the only date format the insider source emits.
const insiderDateLayout = "2006-01-02"

// InsiderExtractor is the fixed-column strategy for the insider-filing site.
type InsiderExtractor struct {
	baseURL string
	logger  *slog.Logger
}

// NewInsiderExtractor creates the insider fixed-column strategy.
func NewInsiderExtractor(baseURL string, logger *slog.Logger) *InsiderExtractor {
	return &InsiderExtractor{
		baseURL: baseURL,
		logger:  logger.With("component", "insider_extractor"),
	}
}

func (e *InsiderExtractor) Source() types.Source { return types.SourceInsider }

func (e *InsiderExtractor) PageURL(page int) string { return pageURL(e.baseURL, page) }

func (e *InsiderExtractor) WaitSelector() string { return insiderWaitSelector }

// ExtractPage extracts all candidate trade records from a rendered page.
func (e *InsiderExtractor) ExtractPage(pg *types.RenderedPage) ([]types.TradeRecord, error) {
	root, err := pg.Root()
	if err != nil {
		return nil, err
	}

	rows, err := htmlquery.QueryAll(root, insiderRowsXPath)
	if err != nil {
		return nil, err
	}

	var records []types.TradeRecord
	for i, row := range rows {
		if rec, ok := e.safeExtractRow(i, row); ok {
			records = append(records, *rec)
		}
	}

	e.logger.Debug("page extracted", "url", pg.URL, "rows", len(rows), "records", len(records))
	return records, nil
}

func (e *InsiderExtractor) safeExtractRow(i int, row *html.Node) (rec *types.TradeRecord, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err := &types.ExtractError{Source: types.SourceInsider, Row: i, Err: fmt.Errorf("%v", r)}
			e.logger.Warn("row dropped", "error", err)
			rec, ok = nil, false
		}
	}()
	return e.extractRow(row)
}

// extractRow reads one row by the fixed cell-index contract. Short rows
// (header spacers, ad rows) and rows with unparseable dates, placeholder
// tickers, or non-equity instruments yield nothing.
func (e *InsiderExtractor) extractRow(row *html.Node) (*types.TradeRecord, bool) {
	cells := rowCellTexts(row)
	if len(cells) < insiderMinCells {
		return nil, false
	}

	ticker := cells[colInsiderTicker]
	company := cells[colInsiderCompany]
	if IsPlaceholderTicker(ticker) || IsTreasuryInstrument(ticker, company) {
		return nil, false
	}

	name := cells[colInsiderName]
	if name == "" {
		return nil, false
	}

	// The date cell occasionally carries a trailing filing time; the date
	// itself is always the first field.
	rawDate, _, _ := strings.Cut(cells[colInsiderDate], " ")
	if _, err := time.Parse(insiderDateLayout, rawDate); err != nil {
		return nil, false
	}

	value := strings.TrimPrefix(cells[colInsiderValue], "+")

	return &types.TradeRecord{
		SubjectName:      name,
		SubjectRole:      cells[colInsiderTitle],
		Ticker:           strings.ToUpper(strings.TrimSpace(ticker)),
		AssetDescription: company,
		TransactionType:  ClassifyInsiderCode(cells[colInsiderType]),
		TransactionDate:  rawDate,
		AmountOrValue:    value,
		SourceCategory:   types.SourceInsider,
	}, true
}

// rowCellTexts returns the trimmed text of each td in an html.Node row.
func rowCellTexts(row *html.Node) []string {
	cells, err := htmlquery.QueryAll(row, "./td")
	if err != nil {
		return nil
	}
	texts := make([]string, len(cells))
	for i, cell := range cells {
		texts[i] = strings.TrimSpace(htmlquery.InnerText(cell))
	}
	return texts
}
