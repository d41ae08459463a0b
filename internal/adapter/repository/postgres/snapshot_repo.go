package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/simaogato/stockval-backend/internal/domain"
)

// snapshotRepository implements domain.SnapshotRepository
type snapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new valuation snapshot repository
func NewSnapshotRepository(db *DB) domain.SnapshotRepository {
	return &snapshotRepository{db: db}
}

const snapshotColumns = `
	id, ticker, snapshot_date,
	intrinsic_value, intrinsic_value_fcf,
	current_eps, eps_growth_rate, eps_multiple, discount_rate,
	current_fcf_per_share, fcf_growth_rate, fcf_multiple, fcf_discount_rate,
	preferred_method, calculated_at
`

// ListByTicker retrieves all snapshots for a ticker, ordered by snapshot
// date ascending
func (r *snapshotRepository) ListByTicker(ctx context.Context, ticker string) ([]*domain.ValuationSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM valuation_snapshots
		WHERE ticker = $1
		ORDER BY snapshot_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for %s: %w", ticker, err)
	}
	defer rows.Close()

	snapshots := make([]*domain.ValuationSnapshot, 0)
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}

// GetByTickerAndDate retrieves the snapshot for a (ticker, date) pair
func (r *snapshotRepository) GetByTickerAndDate(ctx context.Context, ticker string, date time.Time) (*domain.ValuationSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM valuation_snapshots
		WHERE ticker = $1 AND snapshot_date = $2
	`

	snapshot, err := scanSnapshot(r.db.QueryRowContext(ctx, query, ticker, date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("snapshot %s/%s: %w", ticker, date.Format("2006-01-02"), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return snapshot, nil
}

// Create creates a new snapshot. The table carries a UNIQUE (ticker,
// snapshot_date) constraint; a violation maps to ErrSnapshotExists.
func (r *snapshotRepository) Create(ctx context.Context, snapshot *domain.ValuationSnapshot) error {
	query := `
		INSERT INTO valuation_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.Ticker,
		snapshot.SnapshotDate,
		nullDecimal(snapshot.IntrinsicValue),
		nullDecimal(snapshot.IntrinsicValueFCF),
		nullDecimal(snapshot.CurrentEPS),
		nullDecimal(snapshot.EPSGrowthRate),
		nullDecimal(snapshot.EPSMultiple),
		nullDecimal(snapshot.DiscountRate),
		nullDecimal(snapshot.CurrentFCFPerShare),
		nullDecimal(snapshot.FCFGrowthRate),
		nullDecimal(snapshot.FCFMultiple),
		nullDecimal(snapshot.FCFDiscountRate),
		string(snapshot.PreferredMethod.Normalize()),
		snapshot.CalculatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: %s on %s", domain.ErrSnapshotExists,
				snapshot.Ticker, snapshot.SnapshotDate.Format("2006-01-02"))
		}
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// Delete removes the snapshot for a (ticker, date) pair
func (r *snapshotRepository) Delete(ctx context.Context, ticker string, date time.Time) error {
	query := `DELETE FROM valuation_snapshots WHERE ticker = $1 AND snapshot_date = $2`

	_, err := r.db.ExecContext(ctx, query, ticker, date)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}

func scanSnapshot(row scanner) (*domain.ValuationSnapshot, error) {
	var snapshot domain.ValuationSnapshot
	var intrinsicValue, intrinsicValueFCF sql.NullString
	var currentEPS, epsGrowthRate, epsMultiple, discountRate sql.NullString
	var currentFCF, fcfGrowthRate, fcfMultiple, fcfDiscountRate sql.NullString
	var preferredMethod string

	err := row.Scan(
		&snapshot.ID,
		&snapshot.Ticker,
		&snapshot.SnapshotDate,
		&intrinsicValue,
		&intrinsicValueFCF,
		&currentEPS,
		&epsGrowthRate,
		&epsMultiple,
		&discountRate,
		&currentFCF,
		&fcfGrowthRate,
		&fcfMultiple,
		&fcfDiscountRate,
		&preferredMethod,
		&snapshot.CalculatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		src sql.NullString
		dst **decimal.Decimal
	}{
		{intrinsicValue, &snapshot.IntrinsicValue},
		{intrinsicValueFCF, &snapshot.IntrinsicValueFCF},
		{currentEPS, &snapshot.CurrentEPS},
		{epsGrowthRate, &snapshot.EPSGrowthRate},
		{epsMultiple, &snapshot.EPSMultiple},
		{discountRate, &snapshot.DiscountRate},
		{currentFCF, &snapshot.CurrentFCFPerShare},
		{fcfGrowthRate, &snapshot.FCFGrowthRate},
		{fcfMultiple, &snapshot.FCFMultiple},
		{fcfDiscountRate, &snapshot.FCFDiscountRate},
	} {
		value, err := parseNullDecimal(f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = value
	}

	snapshot.PreferredMethod = domain.ValuationMethod(preferredMethod)

	return &snapshot, nil
}
