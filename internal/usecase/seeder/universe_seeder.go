package seeder

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/simaogato/stockval-backend/internal/domain"
)

// seedEntry defines one curated stock to be seeded with starter assumptions
type seedEntry struct {
	Ticker          string
	Name            string
	GrowthRate      decimal.Decimal
	Multiple        decimal.Decimal
	PreferredMethod domain.ValuationMethod
}

// Starter assumptions shared by every seeded stock; refined per stock
// later through the admin workflow
var (
	defaultDiscountRate    = decimal.NewFromFloat(15.0)
	defaultProjectionYears = 5
)

// defaultUniverse is the curated list seeded on first run
var defaultUniverse = []seedEntry{
	{Ticker: "AAPL", Name: "Apple Inc.", GrowthRate: decimal.NewFromFloat(10.0), Multiple: decimal.NewFromFloat(25.0), PreferredMethod: domain.MethodEPS},
	{Ticker: "MSFT", Name: "Microsoft Corporation", GrowthRate: decimal.NewFromFloat(12.0), Multiple: decimal.NewFromFloat(28.0), PreferredMethod: domain.MethodEPS},
	{Ticker: "GOOGL", Name: "Alphabet Inc.", GrowthRate: decimal.NewFromFloat(12.0), Multiple: decimal.NewFromFloat(22.0), PreferredMethod: domain.MethodFCF},
	{Ticker: "AMZN", Name: "Amazon.com Inc.", GrowthRate: decimal.NewFromFloat(15.0), Multiple: decimal.NewFromFloat(30.0), PreferredMethod: domain.MethodFCF},
	{Ticker: "NVDA", Name: "NVIDIA Corporation", GrowthRate: decimal.NewFromFloat(20.0), Multiple: decimal.NewFromFloat(35.0), PreferredMethod: domain.MethodEPS},
	{Ticker: "BRK.B", Name: "Berkshire Hathaway Inc.", GrowthRate: decimal.NewFromFloat(8.0), Multiple: decimal.NewFromFloat(18.0), PreferredMethod: domain.MethodEPS},
	{Ticker: "JNJ", Name: "Johnson & Johnson", GrowthRate: decimal.NewFromFloat(5.0), Multiple: decimal.NewFromFloat(16.0), PreferredMethod: domain.MethodEPS},
	{Ticker: "V", Name: "Visa Inc.", GrowthRate: decimal.NewFromFloat(11.0), Multiple: decimal.NewFromFloat(26.0), PreferredMethod: domain.MethodEPS},
}

// UniverseSeeder ensures the default curated stock list exists
type UniverseSeeder struct {
	repo domain.StockRepository
}

// NewUniverseSeeder creates a new UniverseSeeder instance
func NewUniverseSeeder(repo domain.StockRepository) *UniverseSeeder {
	return &UniverseSeeder{
		repo: repo,
	}
}

// Seed creates each missing curated stock with starter assumptions.
// Existing stocks are never touched: the seeder only fills gaps, it does
// not reset assumptions that were adjusted since the first run.
func (s *UniverseSeeder) Seed(ctx context.Context) error {
	for _, entry := range defaultUniverse {
		// Try to get the stock by ticker
		_, err := s.repo.GetByTicker(ctx, entry.Ticker)
		if err == nil {
			// Stock exists, no action needed
			continue
		}

		growthRate := entry.GrowthRate
		multiple := entry.Multiple
		discountRate := defaultDiscountRate

		stock := &domain.Stock{
			Ticker:          entry.Ticker,
			Name:            entry.Name,
			IsActive:        true,
			EPSGrowthRate:   &growthRate,
			EPSMultiple:     &multiple,
			DiscountRate:    &discountRate,
			ProjectionYears: defaultProjectionYears,
			PreferredMethod: entry.PreferredMethod,
		}

		// Validate before creating
		if err := stock.Validate(); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, stock); err != nil {
			return err
		}
	}

	return nil
}
