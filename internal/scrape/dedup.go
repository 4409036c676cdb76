package scrape

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rshetty/tradescope/internal/types"
)

// Fingerprint hashes the identity fields of a record. Two rows describing
// the same filing on different result pages collapse to one fingerprint.
func Fingerprint(rec types.TradeRecord) string {
	h := sha256.Sum256([]byte(strings.Join([]string{
		string(rec.SourceCategory),
		rec.SubjectName,
		rec.Ticker,
		rec.TransactionDate,
		string(rec.TransactionType),
		rec.AmountOrValue,
	}, "|")))
	return hex.EncodeToString(h[:16])
}

// Dedupe removes duplicate records within a single scrape, preserving
// first-seen order.
func Dedupe(records []types.TradeRecord) []types.TradeRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]types.TradeRecord, 0, len(records))
	for _, rec := range records {
		fp := Fingerprint(rec)
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, rec)
	}
	return out
}
