// Package trading provides the Postgres repository for trading results.
package trading

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/annaputilovskaya/TradingResults/internal/domain/entity/trading"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

const resultColumns = `
	id, exchange_product_id, exchange_product_name, oil_id,
	delivery_basis_id, delivery_basis_name, delivery_type_id,
	volume, total, count, date, created_on, updated_on`

// Duplicate (exchange_product_id, date) pairs are absorbed by the unique
// constraint: the first write wins, later attempts are no-ops. This is what
// makes re-running ingestion after a partial failure safe.
const insertResultQuery = `
	INSERT INTO spimex_trading_results (
		exchange_product_id, exchange_product_name, oil_id,
		delivery_basis_id, delivery_basis_name, delivery_type_id,
		volume, total, count, date
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	ON CONFLICT (exchange_product_id, date) DO NOTHING`

// AddResults writes a batch of results in one round trip. Each row is an
// independent insert-or-ignore, so a conflicting row never poisons the rest
// of its batch. Returns the number of rows actually inserted.
func (r *Repository) AddResults(ctx context.Context, results []domain.Result) (int64, error) {
	if len(results) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i := range results {
		result := &results[i]
		batch.Queue(insertResultQuery,
			result.ExchangeProductID,
			result.ExchangeProductName,
			result.OilID,
			result.DeliveryBasisID,
			result.DeliveryBasisName,
			result.DeliveryTypeID,
			result.Volume,
			result.Total,
			result.Count,
			result.Date,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for range results {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert trading result: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func (r *Repository) LastDates(ctx context.Context, days int) ([]string, error) {
	const query = `
		SELECT DISTINCT date
		FROM spimex_trading_results
		ORDER BY date DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

func (r *Repository) GetDynamics(ctx context.Context, f domain.Filter, startDate, endDate string) ([]domain.Result, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `
		SELECT %s
		FROM spimex_trading_results
		WHERE date >= $1 AND date <= $2`, resultColumns)
	args := []any{startDate, endDate}
	args = appendFilterClauses(&sb, args, f)
	sb.WriteString(" ORDER BY date DESC, exchange_product_id")

	return r.queryResults(ctx, sb.String(), args)
}

func (r *Repository) GetLastResults(ctx context.Context, f domain.Filter) ([]domain.Result, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `
		SELECT %s
		FROM spimex_trading_results
		WHERE date = (SELECT MAX(date) FROM spimex_trading_results)`, resultColumns)
	args := appendFilterClauses(&sb, nil, f)
	sb.WriteString(" ORDER BY exchange_product_id")

	return r.queryResults(ctx, sb.String(), args)
}

// appendFilterClauses adds one AND clause per present filter field; absent
// fields impose no constraint.
func appendFilterClauses(sb *strings.Builder, args []any, f domain.Filter) []any {
	if f.OilID != "" {
		args = append(args, f.OilID)
		fmt.Fprintf(sb, " AND oil_id = $%d", len(args))
	}
	if f.DeliveryTypeID != "" {
		args = append(args, f.DeliveryTypeID)
		fmt.Fprintf(sb, " AND delivery_type_id = $%d", len(args))
	}
	if f.DeliveryBasisID != "" {
		args = append(args, f.DeliveryBasisID)
		fmt.Fprintf(sb, " AND delivery_basis_id = $%d", len(args))
	}
	return args
}

func (r *Repository) queryResults(ctx context.Context, query string, args []any) ([]domain.Result, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func scanResult(row pgx.Row) (domain.Result, error) {
	result := domain.Result{}
	err := row.Scan(
		&result.ID,
		&result.ExchangeProductID,
		&result.ExchangeProductName,
		&result.OilID,
		&result.DeliveryBasisID,
		&result.DeliveryBasisName,
		&result.DeliveryTypeID,
		&result.Volume,
		&result.Total,
		&result.Count,
		&result.Date,
		&result.CreatedOn,
		&result.UpdatedOn,
	)
	if err != nil {
		return domain.Result{}, err
	}
	return result, nil
}
