package analytics

import (
	"github.com/shopspring/decimal"
	"github.com/simaogato/stockval-backend/internal/domain"
)

// StockAnalytics is the per-stock rollup over its historical valuation
// snapshots. "Effective" fields use each snapshot's own preferred-method
// selection. A stock with zero snapshots gets DataPoints 0 and nil
// analytics rather than an error; downstream consumers rely on the shape
// always being present.
type StockAnalytics struct {
	Ticker     string
	DataPoints int

	EPSVolatility       VolatilityStats
	FCFVolatility       VolatilityStats
	EffectiveVolatility VolatilityStats

	EPSCagr       *float64
	FCFCagr       *float64
	EffectiveCagr *float64

	// Pearson correlation between the EPS-based and FCF-based IV series
	EPSFCFCorrelation *float64

	LatestEPSIV *decimal.Decimal
	LatestFCFIV *decimal.Decimal

	HighestIV *decimal.Decimal
	LowestIV  *decimal.Decimal
	AverageIV *decimal.Decimal

	PreferredMethod domain.ValuationMethod
}

// ForStock computes the historical analytics rollup for one stock from
// its snapshot sequence, which must be ordered by snapshot date
// ascending. Never returns an error: degenerate inputs degrade to nil
// fields, and zero snapshots yield the explicit empty shape.
func ForStock(stock *domain.Stock, snapshots []*domain.ValuationSnapshot) *StockAnalytics {
	result := &StockAnalytics{
		Ticker:          stock.Ticker,
		DataPoints:      len(snapshots),
		PreferredMethod: stock.PreferredMethod.Normalize(),
	}

	if len(snapshots) == 0 {
		return result
	}

	epsSeries := make([]*decimal.Decimal, len(snapshots))
	fcfSeries := make([]*decimal.Decimal, len(snapshots))
	effectiveSeries := make([]*decimal.Decimal, len(snapshots))
	for i, snapshot := range snapshots {
		epsSeries[i] = snapshot.IntrinsicValue
		fcfSeries[i] = snapshot.IntrinsicValueFCF
		effectiveSeries[i] = snapshot.EffectiveIntrinsicValue()
	}

	result.EPSVolatility = Volatility(epsSeries)
	result.FCFVolatility = Volatility(fcfSeries)
	result.EffectiveVolatility = Volatility(effectiveSeries)

	// Snapshots sit one quarter apart by convention, so the elapsed
	// period between the first and last is (n-1) quarters
	quarters := len(snapshots) - 1
	result.EPSCagr = CAGR(epsSeries[0], epsSeries[len(epsSeries)-1], quarters)
	result.FCFCagr = CAGR(fcfSeries[0], fcfSeries[len(fcfSeries)-1], quarters)
	result.EffectiveCagr = CAGR(effectiveSeries[0], effectiveSeries[len(effectiveSeries)-1], quarters)

	result.EPSFCFCorrelation = Correlation(epsSeries, fcfSeries)

	latest := snapshots[len(snapshots)-1]
	result.LatestEPSIV = latest.IntrinsicValue
	result.LatestFCFIV = latest.IntrinsicValueFCF

	result.HighestIV, result.LowestIV, result.AverageIV = summarize(effectiveSeries)

	return result
}

// summarize returns the highest, lowest and average of the non-nil values
// in a series, all nil when the series has no values
func summarize(values []*decimal.Decimal) (highest, lowest, average *decimal.Decimal) {
	sum := decimal.Zero
	count := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		if highest == nil || v.GreaterThan(*highest) {
			highest = v
		}
		if lowest == nil || v.LessThan(*lowest) {
			lowest = v
		}
		sum = sum.Add(*v)
		count++
	}

	if count == 0 {
		return nil, nil, nil
	}

	avg := sum.Div(decimal.NewFromInt(int64(count))).Round(2)
	return highest, lowest, &avg
}
