package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/stockval-backend/internal/domain"
)

// stockRepository implements domain.StockRepository
type stockRepository struct {
	db *DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *DB) domain.StockRepository {
	return &stockRepository{db: db}
}

const stockColumns = `
	ticker, name, is_active,
	current_price, price_updated_at,
	current_eps, eps_growth_rate, eps_multiple, discount_rate, projection_years, intrinsic_value,
	current_fcf_per_share, fcf_growth_rate, fcf_multiple, fcf_discount_rate, fcf_projection_years, intrinsic_value_fcf,
	preferred_method, last_calculated_at
`

// GetByTicker retrieves a stock by its ticker symbol
func (r *stockRepository) GetByTicker(ctx context.Context, ticker string) (*domain.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE ticker = $1`

	stock, err := scanStock(r.db.QueryRowContext(ctx, query, ticker))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("stock %s: %w", ticker, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get stock %s: %w", ticker, err)
	}

	return stock, nil
}

// ListActive retrieves all active curated stocks
func (r *stockRepository) ListActive(ctx context.Context) ([]*domain.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE is_active = TRUE ORDER BY ticker`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active stocks: %w", err)
	}
	defer rows.Close()

	stocks := make([]*domain.Stock, 0)
	for rows.Next() {
		stock, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock row: %w", err)
		}
		stocks = append(stocks, stock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stock rows: %w", err)
	}

	return stocks, nil
}

// Create creates a new curated stock
func (r *stockRepository) Create(ctx context.Context, stock *domain.Stock) error {
	query := `
		INSERT INTO stocks (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.db.ExecContext(ctx, query,
		stock.Ticker,
		stock.Name,
		stock.IsActive,
		nullDecimal(stock.CurrentPrice),
		nullTime(stock.PriceUpdatedAt),
		nullDecimal(stock.CurrentEPS),
		nullDecimal(stock.EPSGrowthRate),
		nullDecimal(stock.EPSMultiple),
		nullDecimal(stock.DiscountRate),
		stock.ProjectionYears,
		nullDecimal(stock.IntrinsicValue),
		nullDecimal(stock.CurrentFCFPerShare),
		nullDecimal(stock.FCFGrowthRate),
		nullDecimal(stock.FCFMultiple),
		nullDecimal(stock.FCFDiscountRate),
		stock.FCFProjectionYears,
		nullDecimal(stock.IntrinsicValueFCF),
		string(stock.PreferredMethod.Normalize()),
		nullTime(stock.LastCalculatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert stock %s: %w", stock.Ticker, err)
	}

	return nil
}

// UpdateValuation persists a stock's recomputed intrinsic values,
// current metrics and calculation timestamp
func (r *stockRepository) UpdateValuation(ctx context.Context, stock *domain.Stock) error {
	query := `
		UPDATE stocks
		SET current_eps = $2,
		    intrinsic_value = $3,
		    current_fcf_per_share = $4,
		    intrinsic_value_fcf = $5,
		    last_calculated_at = $6
		WHERE ticker = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		stock.Ticker,
		nullDecimal(stock.CurrentEPS),
		nullDecimal(stock.IntrinsicValue),
		nullDecimal(stock.CurrentFCFPerShare),
		nullDecimal(stock.IntrinsicValueFCF),
		nullTime(stock.LastCalculatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update valuation for %s: %w", stock.Ticker, err)
	}

	return requireOneRow(result, stock.Ticker)
}

// UpdatePrice persists a stock's current price and price timestamp
func (r *stockRepository) UpdatePrice(ctx context.Context, stock *domain.Stock) error {
	query := `
		UPDATE stocks
		SET current_price = $2,
		    price_updated_at = $3
		WHERE ticker = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		stock.Ticker,
		nullDecimal(stock.CurrentPrice),
		nullTime(stock.PriceUpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update price for %s: %w", stock.Ticker, err)
	}

	return requireOneRow(result, stock.Ticker)
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStock(row scanner) (*domain.Stock, error) {
	var stock domain.Stock
	var currentPrice, currentEPS, epsGrowthRate, epsMultiple, discountRate, intrinsicValue sql.NullString
	var currentFCF, fcfGrowthRate, fcfMultiple, fcfDiscountRate, intrinsicValueFCF sql.NullString
	var priceUpdatedAt, lastCalculatedAt sql.NullTime
	var preferredMethod string

	err := row.Scan(
		&stock.Ticker,
		&stock.Name,
		&stock.IsActive,
		&currentPrice,
		&priceUpdatedAt,
		&currentEPS,
		&epsGrowthRate,
		&epsMultiple,
		&discountRate,
		&stock.ProjectionYears,
		&intrinsicValue,
		&currentFCF,
		&fcfGrowthRate,
		&fcfMultiple,
		&fcfDiscountRate,
		&stock.FCFProjectionYears,
		&intrinsicValueFCF,
		&preferredMethod,
		&lastCalculatedAt,
	)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		src sql.NullString
		dst **decimal.Decimal
	}{
		{currentPrice, &stock.CurrentPrice},
		{currentEPS, &stock.CurrentEPS},
		{epsGrowthRate, &stock.EPSGrowthRate},
		{epsMultiple, &stock.EPSMultiple},
		{discountRate, &stock.DiscountRate},
		{intrinsicValue, &stock.IntrinsicValue},
		{currentFCF, &stock.CurrentFCFPerShare},
		{fcfGrowthRate, &stock.FCFGrowthRate},
		{fcfMultiple, &stock.FCFMultiple},
		{fcfDiscountRate, &stock.FCFDiscountRate},
		{intrinsicValueFCF, &stock.IntrinsicValueFCF},
	}
	for _, f := range fields {
		value, err := parseNullDecimal(f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = value
	}

	if priceUpdatedAt.Valid {
		stock.PriceUpdatedAt = &priceUpdatedAt.Time
	}
	if lastCalculatedAt.Valid {
		stock.LastCalculatedAt = &lastCalculatedAt.Time
	}
	stock.PreferredMethod = domain.ValuationMethod(preferredMethod)

	return &stock, nil
}

// nullDecimal converts an optional decimal to its driver value
func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// nullTime converts an optional timestamp to its driver value
func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// parseNullDecimal parses a nullable DECIMAL column
func parseNullDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	value, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse decimal column: %w", err)
	}
	return &value, nil
}

// requireOneRow converts a zero-row update into ErrNotFound
func requireOneRow(result sql.Result, ticker string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("stock %s: %w", ticker, domain.ErrNotFound)
	}
	return nil
}
