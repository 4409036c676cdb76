package types

import (
	"time"
)

// Source identifies which origin a record was scraped from.
type Source string

const (
	// SourceDisclosure is the legislator stock-transaction disclosure site.
	SourceDisclosure Source = "disclosure"

	// SourceInsider is the corporate insider-filing site.
	SourceInsider Source = "insider"
)

// TransactionType classifies a trade as a buy or a sell.
type TransactionType string

const (
	TxPurchase TransactionType = "Purchase"
	TxSale     TransactionType = "Sale"
	TxUnknown  TransactionType = "Unknown"
)

// TradeRecord is the canonical output unit of a scrape.
//
// Invariants: Ticker is never empty, never a treasury/bond instrument and never a
// bare currency code; TransactionDate, when parseable, is not in the future.
// Records with unparseable required fields are dropped rather than emitted with
// placeholders, except TransactionType, which may legitimately be TxUnknown.
type TradeRecord struct {
	// ID is a synthetic key, stable and unique within a single scrape.
	ID string `json:"id"`

	// SubjectName is the politician or insider the filing belongs to.
	SubjectName string `json:"subjectName"`

	// SubjectRole is party+chamber for legislators, or the insider's title.
	SubjectRole string `json:"subjectRole,omitempty"`

	// Ticker is the uppercase, exchange-suffix-stripped stock symbol.
	Ticker string `json:"ticker"`

	// AssetDescription is the issuer/company name as shown by the source.
	AssetDescription string `json:"assetDescription,omitempty"`

	TransactionType TransactionType `json:"transactionType"`

	// TransactionDate is normalized to a single format per source:
	// MM/DD/YYYY for the disclosure source, YYYY-MM-DD for the insider source.
	TransactionDate string `json:"transactionDate,omitempty"`

	// AmountOrValue is a free-text monetary range ("$50,001 - $100,000") or a
	// numeric value, depending on the source.
	AmountOrValue string `json:"amountOrValue,omitempty"`

	// RelationToFiler is spouse/self/child/joint/dependent when disclosed.
	RelationToFiler string `json:"relationToFiler,omitempty"`

	SourceCategory Source `json:"sourceCategory"`
}

// ScrapeResult is an ordered collection of TradeRecords plus provenance.
// It is owned by the daily cache and replaced atomically, never patched.
type ScrapeResult struct {
	Source       Source        `json:"source"`
	Records      []TradeRecord `json:"records"`
	FetchedAt    time.Time     `json:"fetchedAt"`
	CacheDateKey string        `json:"cacheDateKey"`
	Pages        int           `json:"pages"`
}
