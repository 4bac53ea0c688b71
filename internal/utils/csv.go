package utils

import (
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"krakenWebhook/internal/domain"
)

// QuoteRow is one dry-run translation: what would have been ordered.
type QuoteRow struct {
	QuotedAt time.Time
	Symbol   string
	Pair     domain.NormalizedPair
	Side     domain.OrderSide
	Amount   decimal.Decimal
	Price    decimal.Decimal
	Volume   decimal.Decimal
	Error    string
}

var quoteHeader = []string{"quoted_at", "symbol", "pair", "side", "amount", "price", "volume", "error"}

// WriteQuotesToCSV writes rows to filename, replacing any existing file.
func WriteQuotesToCSV(rows []QuoteRow, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteQuotes(file, rows); err != nil {
		return err
	}
	return file.Close()
}

// WriteQuotes writes rows as CSV with a header line.
func WriteQuotes(w io.Writer, rows []QuoteRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(quoteHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.QuotedAt.UTC().Format(time.RFC3339),
			r.Symbol,
			r.Pair.String(),
			string(r.Side),
			r.Amount.String(),
			"",
			"",
			r.Error,
		}
		if r.Price.IsPositive() {
			record[5] = r.Price.String()
		}
		if r.Volume.IsPositive() {
			record[6] = r.Volume.StringFixed(domain.VolumeScale)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
