package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/stockval-backend/internal/domain"
)

// ProjectSeries projects a per-share metric forward at a compound growth rate
// Returns one value per year, 1-indexed: year k = currentMetric * (1 + growthRatePct/100)^k
// Each year is rounded to 2 decimal places independently; rounding is not
// deferred to the end of the series.
// Growth may be zero (flat projection) or negative (decline).
func ProjectSeries(currentMetric, growthRatePct decimal.Decimal, years int) ([]decimal.Decimal, error) {
	if years < 1 {
		return nil, fmt.Errorf("%w: projection years must be at least 1, got %d", domain.ErrInvalidInput, years)
	}

	growthFactor := decimal.NewFromInt(1).Add(growthRatePct.Div(decimal.NewFromInt(100)))

	series := make([]decimal.Decimal, years)
	for k := 1; k <= years; k++ {
		projected := currentMetric.Mul(growthFactor.Pow(decimal.NewFromInt(int64(k))))
		series[k-1] = projected.Round(2)
	}

	return series, nil
}
