package analytics

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/stockval-backend/internal/domain"
)

// PortfolioStats holds the portfolio-level summary numbers. Averages are
// computed only over stocks that contributed a non-nil value for the
// metric in question.
type PortfolioStats struct {
	AverageIV         *decimal.Decimal
	TotalDataPoints   int
	AverageVolatility *float64
	AverageCagr       *float64
}

// PortfolioAnalytics is the aggregate view across the whole curated
// universe
type PortfolioAnalytics struct {
	TotalStocks       int
	StocksWithHistory int
	PortfolioStats    PortfolioStats
	PerStock          []*StockAnalytics
}

// Aggregator composes per-stock analytics across every active curated stock
type Aggregator struct {
	StockRepo    domain.StockRepository
	SnapshotRepo domain.SnapshotRepository
	log          zerolog.Logger
}

// NewAggregator creates a new Aggregator instance
func NewAggregator(stockRepo domain.StockRepository, snapshotRepo domain.SnapshotRepository, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		StockRepo:    stockRepo,
		SnapshotRepo: snapshotRepo,
		log:          log.With().Str("component", "portfolio_analytics").Logger(),
	}
}

// Portfolio computes the portfolio-level analytics across all active
// stocks. A stock whose analytics fail is logged and skipped so that one
// bad entity cannot blank out the whole portfolio view; only a failure to
// list the universe itself is an error.
func (a *Aggregator) Portfolio(ctx context.Context) (*PortfolioAnalytics, error) {
	stocks, err := a.StockRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active stocks: %w", err)
	}

	result := &PortfolioAnalytics{
		TotalStocks: len(stocks),
		PerStock:    make([]*StockAnalytics, 0, len(stocks)),
	}

	ivSum := decimal.Zero
	ivCount := 0
	volatilitySum := 0.0
	volatilityCount := 0
	cagrSum := 0.0
	cagrCount := 0

	for _, stock := range stocks {
		stockAnalytics, err := a.analyzeStock(ctx, stock)
		if err != nil {
			a.log.Error().Err(err).Str("ticker", stock.Ticker).Msg("skipping stock in portfolio analytics")
			continue
		}

		result.PerStock = append(result.PerStock, stockAnalytics)
		result.PortfolioStats.TotalDataPoints += stockAnalytics.DataPoints

		if stockAnalytics.DataPoints > 0 {
			result.StocksWithHistory++
		}
		if stockAnalytics.AverageIV != nil {
			ivSum = ivSum.Add(*stockAnalytics.AverageIV)
			ivCount++
		}
		if stockAnalytics.EffectiveVolatility.StdDev != nil {
			volatilitySum += *stockAnalytics.EffectiveVolatility.StdDev
			volatilityCount++
		}
		if stockAnalytics.EffectiveCagr != nil {
			cagrSum += *stockAnalytics.EffectiveCagr
			cagrCount++
		}
	}

	if ivCount > 0 {
		avg := ivSum.Div(decimal.NewFromInt(int64(ivCount))).Round(2)
		result.PortfolioStats.AverageIV = &avg
	}
	if volatilityCount > 0 {
		result.PortfolioStats.AverageVolatility = roundPtr(volatilitySum/float64(volatilityCount), 2)
	}
	if cagrCount > 0 {
		result.PortfolioStats.AverageCagr = roundPtr(cagrSum/float64(cagrCount), 2)
	}

	return result, nil
}

// analyzeStock loads one stock's snapshots and computes its rollup,
// converting panics into errors so the aggregate loop can skip the stock
func (a *Aggregator) analyzeStock(ctx context.Context, stock *domain.Stock) (result *StockAnalytics, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("stock analytics panicked: %v", r)
		}
	}()

	snapshots, err := a.SnapshotRepo.ListByTicker(ctx, stock.Ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	return ForStock(stock, snapshots), nil
}
