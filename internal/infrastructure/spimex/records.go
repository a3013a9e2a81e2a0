package spimex

import (
	"iter"
	"strconv"
	"strings"

	trading "github.com/annaputilovskaya/TradingResults/internal/domain/entity/trading"
)

// Everything from the total row onward is summary, not data.
const totalSentinel = "Итого:"

// Records lazily turns extracted table rows into trading results for the
// given trading date (decoded from the report link, never from the sheet).
// Generation stops at the first total row; blank instrument codes, codes too
// short to derive identifiers from, and rows with unparsable numeric cells
// are skipped. The sequence is pure and restartable: the same table and date
// always yield the same results in row order.
func Records(table []Row, date string) iter.Seq[trading.Result] {
	return func(yield func(trading.Result) bool) {
		for _, row := range table {
			code := strings.TrimSpace(row.Code)
			if code == totalSentinel {
				return
			}
			if code == "" {
				continue
			}

			volume, ok := parseAmount(row.Volume)
			if !ok {
				continue
			}
			total, ok := parseAmount(row.Total)
			if !ok {
				continue
			}
			count, ok := parseAmount(row.Count)
			if !ok {
				continue
			}

			result, err := trading.NewResult(
				code,
				strings.TrimSpace(row.Name),
				strings.TrimSpace(row.Basis),
				volume, total, count,
				date,
			)
			if err != nil {
				continue
			}
			if !yield(*result) {
				return
			}
		}
	}
}

// parseAmount reads a possibly fractional numeric cell and truncates it to an
// integer. Cells may use comma decimal separators and spaced digit groups.
func parseAmount(cell string) (int64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	cell = strings.ReplaceAll(cell, "\u00a0", "")
	cell = strings.ReplaceAll(cell, " ", "")
	cell = strings.ReplaceAll(cell, ",", ".")
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return int64(value), true
}
