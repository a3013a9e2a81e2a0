package interfaces

import (
	"context"

	trading "github.com/annaputilovskaya/TradingResults/internal/domain/entity/trading"
)

type TradingResultRepository interface {
	// AddResults persists a batch of results with insert-or-ignore semantics
	// on the (exchange_product_id, date) unique key. It reports how many rows
	// were actually inserted; conflicting rows are silent no-ops.
	AddResults(ctx context.Context, results []trading.Result) (int64, error)

	// LastDates returns up to days distinct trading dates, newest first.
	LastDates(ctx context.Context, days int) ([]string, error)

	// GetDynamics returns results matching the filter within the inclusive
	// [startDate, endDate] interval (YYYYMMDD), newest first.
	GetDynamics(ctx context.Context, f trading.Filter, startDate, endDate string) ([]trading.Result, error)

	// GetLastResults returns results for the latest stored date matching the
	// filter.
	GetLastResults(ctx context.Context, f trading.Filter) ([]trading.Result, error)

	Close()
}
