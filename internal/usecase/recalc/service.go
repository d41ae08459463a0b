package recalc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/stockval-backend/internal/domain"
	"github.com/simaogato/stockval-backend/internal/usecase/valuation"
)

// Metrics carries the already-fetched per-share inputs for one stock.
// Fetching them from a market-data provider happens upstream; this
// service only consumes the numbers. A nil field leaves the stored
// metric untouched.
type Metrics struct {
	EPS         *decimal.Decimal
	FCFPerShare *decimal.Decimal
}

// Service recomputes stock valuations and writes the periodic historical
// snapshots
type Service struct {
	StockRepo    domain.StockRepository
	SnapshotRepo domain.SnapshotRepository

	log zerolog.Logger
	now func() time.Time
}

// NewService creates a new recalculation Service instance
func NewService(stockRepo domain.StockRepository, snapshotRepo domain.SnapshotRepository, log zerolog.Logger) *Service {
	return &Service{
		StockRepo:    stockRepo,
		SnapshotRepo: snapshotRepo,
		log:          log.With().Str("component", "recalc").Logger(),
		now:          time.Now,
	}
}

// RecalculateStock recomputes both valuation tracks for one stock and
// persists the result.
// Logic:
//  1. Apply the supplied metrics to the stock (nil fields keep stored values)
//  2. Run the DCF engine once per track; a track with incomplete
//     assumptions ends up with a nil intrinsic value (logged, not fatal)
//  3. Both tracks failing is an error: the stock would be left without
//     any usable valuation
func (s *Service) RecalculateStock(ctx context.Context, ticker string, metrics Metrics) (*domain.Stock, error) {
	stock, err := s.StockRepo.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if metrics.EPS != nil {
		stock.CurrentEPS = metrics.EPS
	}
	if metrics.FCFPerShare != nil {
		stock.CurrentFCFPerShare = metrics.FCFPerShare
	}

	stock.IntrinsicValue = s.calculateTrack(stock, domain.MethodEPS)
	stock.IntrinsicValueFCF = s.calculateTrack(stock, domain.MethodFCF)

	if stock.IntrinsicValue == nil && stock.IntrinsicValueFCF == nil {
		return nil, fmt.Errorf("no valuation track could be calculated for %s", ticker)
	}

	calculatedAt := s.now()
	stock.LastCalculatedAt = &calculatedAt

	if err := s.StockRepo.UpdateValuation(ctx, stock); err != nil {
		return nil, err
	}

	return stock, nil
}

// calculateTrack runs the engine for one track, returning nil when the
// track's assumptions are incomplete or invalid
func (s *Service) calculateTrack(stock *domain.Stock, method domain.ValuationMethod) *decimal.Decimal {
	assumptions := valuation.AssumptionsForMethod(stock, method)
	if assumptions == nil {
		s.log.Debug().Str("ticker", stock.Ticker).Str("method", string(method)).
			Msg("track has incomplete assumptions, skipping")
		return nil
	}

	result, err := valuation.Calculate(*assumptions)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", stock.Ticker).Str("method", string(method)).
			Msg("track calculation failed")
		return nil
	}

	return &result.IntrinsicValue
}

// RecalculateAll recomputes every active stock sequentially. Per-stock
// failures are logged and skipped; the returned counts tell the caller
// how the run went.
func (s *Service) RecalculateAll(ctx context.Context, metricsByTicker map[string]Metrics) (processed, failed int, err error) {
	stocks, err := s.StockRepo.ListActive(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list active stocks: %w", err)
	}

	for _, stock := range stocks {
		if _, err := s.RecalculateStock(ctx, stock.Ticker, metricsByTicker[stock.Ticker]); err != nil {
			s.log.Error().Err(err).Str("ticker", stock.Ticker).Msg("recalculation failed, skipping")
			failed++
			continue
		}
		processed++
	}

	return processed, failed, nil
}

// CreateSnapshot copies a stock's current valuation state into an
// immutable snapshot for the given calendar date. At most one snapshot
// may exist per (ticker, date): without force an existing snapshot yields
// domain.ErrSnapshotExists, with force it is deleted and recreated.
func (s *Service) CreateSnapshot(ctx context.Context, ticker string, snapshotDate time.Time, force bool) (*domain.ValuationSnapshot, error) {
	stock, err := s.StockRepo.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	date := normalizeDate(snapshotDate)

	existing, err := s.SnapshotRepo.GetByTickerAndDate(ctx, ticker, date)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if !force {
			return nil, fmt.Errorf("%w: %s on %s", domain.ErrSnapshotExists, ticker, date.Format("2006-01-02"))
		}
		if err := s.SnapshotRepo.Delete(ctx, ticker, date); err != nil {
			return nil, fmt.Errorf("failed to delete existing snapshot: %w", err)
		}
	}

	snapshot := &domain.ValuationSnapshot{
		ID:                 uuid.New(),
		Ticker:             stock.Ticker,
		SnapshotDate:       date,
		IntrinsicValue:     stock.IntrinsicValue,
		IntrinsicValueFCF:  stock.IntrinsicValueFCF,
		CurrentEPS:         stock.CurrentEPS,
		EPSGrowthRate:      stock.EPSGrowthRate,
		EPSMultiple:        stock.EPSMultiple,
		DiscountRate:       stock.DiscountRate,
		CurrentFCFPerShare: stock.CurrentFCFPerShare,
		FCFGrowthRate:      stock.FCFGrowthRate,
		FCFMultiple:        stock.FCFMultiple,
		FCFDiscountRate:    stock.FCFDiscountRate,
		PreferredMethod:    stock.PreferredMethod.Normalize(),
		CalculatedAt:       s.now(),
	}

	if err := s.SnapshotRepo.Create(ctx, snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// SnapshotAll writes a snapshot for every active stock, skipping stocks
// that already have one for the date unless force is set
func (s *Service) SnapshotAll(ctx context.Context, snapshotDate time.Time, force bool) (created, skipped int, err error) {
	stocks, err := s.StockRepo.ListActive(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list active stocks: %w", err)
	}

	for _, stock := range stocks {
		if _, err := s.CreateSnapshot(ctx, stock.Ticker, snapshotDate, force); err != nil {
			if errors.Is(err, domain.ErrSnapshotExists) {
				skipped++
				continue
			}
			s.log.Error().Err(err).Str("ticker", stock.Ticker).Msg("snapshot failed, skipping")
			skipped++
			continue
		}
		created++
	}

	return created, skipped, nil
}

// normalizeDate strips the time component so snapshots key on the
// calendar date alone
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
