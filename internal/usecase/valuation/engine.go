package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/stockval-backend/internal/domain"
)

// Assumptions represents the complete set of inputs for one DCF
// calculation. Constructed fresh per calculation and never mutated.
// The same shape serves both valuation tracks: the caller decides
// whether CurrentMetric is EPS or FCF per share.
type Assumptions struct {
	CurrentMetric   decimal.Decimal
	GrowthRatePct   decimal.Decimal // percentage points, e.g. 10.0 = 10%
	ExitMultiple    decimal.Decimal
	DiscountRatePct decimal.Decimal // percentage points
	ProjectionYears int
}

// Validate ensures the assumptions satisfy the engine's structural
// preconditions. Returns an error wrapping domain.ErrInvalidInput if not.
func (a Assumptions) Validate() error {
	if a.CurrentMetric.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: current metric must be positive, got %s", domain.ErrInvalidInput, a.CurrentMetric)
	}
	if a.ProjectionYears < 1 {
		return fmt.Errorf("%w: projection years must be at least 1, got %d", domain.ErrInvalidInput, a.ProjectionYears)
	}
	return nil
}

// Result represents the output of one DCF calculation. Every intermediate
// stage is retained so that sensitivity analysis and debugging can inspect
// the full trace, not just the final number.
type Result struct {
	IntrinsicValue         decimal.Decimal
	ProjectedSeries        []decimal.Decimal
	TerminalValue          decimal.Decimal
	PresentValueOfSeries   []decimal.Decimal
	PresentValueOfTerminal decimal.Decimal
	SumOfPresentValues     decimal.Decimal
}

// Calculate runs the full DCF pipeline for one set of assumptions
// Logic:
//  1. Project the per-share metric forward ProjectionYears at the growth rate
//  2. Apply the exit multiple to the final projected year to get terminal value
//  3. Discount each projected year and the terminal value to present value
//  4. Intrinsic value = round(sum of discounted series + discounted terminal, 2)
//
// Pure and deterministic: no I/O, no side effects. The only error path is
// precondition validation (domain.ErrInvalidInput).
func Calculate(a Assumptions) (*Result, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	projectedSeries, err := ProjectSeries(a.CurrentMetric, a.GrowthRatePct, a.ProjectionYears)
	if err != nil {
		return nil, err
	}

	terminalValue := TerminalValue(projectedSeries[len(projectedSeries)-1], a.ExitMultiple)

	presentValueOfSeries := DiscountSeries(projectedSeries, a.DiscountRatePct)
	presentValueOfTerminal := PresentValue(terminalValue, a.DiscountRatePct, a.ProjectionYears)

	sumOfPresentValues := decimal.Zero
	for _, pv := range presentValueOfSeries {
		sumOfPresentValues = sumOfPresentValues.Add(pv)
	}

	intrinsicValue := sumOfPresentValues.Add(presentValueOfTerminal).Round(2)

	return &Result{
		IntrinsicValue:         intrinsicValue,
		ProjectedSeries:        projectedSeries,
		TerminalValue:          terminalValue,
		PresentValueOfSeries:   presentValueOfSeries,
		PresentValueOfTerminal: presentValueOfTerminal,
		SumOfPresentValues:     sumOfPresentValues,
	}, nil
}

// AssumptionsForMethod builds the Assumptions for one of a stock's
// valuation tracks. Returns nil if the track is missing any required
// input (the track simply has no valuation yet - not an error).
// The FCF track falls back to the EPS track's discount rate and
// projection years when it has no separate ones of its own.
func AssumptionsForMethod(stock *domain.Stock, method domain.ValuationMethod) *Assumptions {
	switch method.Normalize() {
	case domain.MethodFCF:
		if stock.CurrentFCFPerShare == nil || stock.FCFGrowthRate == nil || stock.FCFMultiple == nil {
			return nil
		}
		discountRate := stock.FCFDiscountRate
		if discountRate == nil {
			discountRate = stock.DiscountRate
		}
		if discountRate == nil {
			return nil
		}
		years := stock.FCFProjectionYears
		if years == 0 {
			years = stock.ProjectionYears
		}
		return &Assumptions{
			CurrentMetric:   *stock.CurrentFCFPerShare,
			GrowthRatePct:   *stock.FCFGrowthRate,
			ExitMultiple:    *stock.FCFMultiple,
			DiscountRatePct: *discountRate,
			ProjectionYears: years,
		}
	default:
		if stock.CurrentEPS == nil || stock.EPSGrowthRate == nil || stock.EPSMultiple == nil || stock.DiscountRate == nil {
			return nil
		}
		return &Assumptions{
			CurrentMetric:   *stock.CurrentEPS,
			GrowthRatePct:   *stock.EPSGrowthRate,
			ExitMultiple:    *stock.EPSMultiple,
			DiscountRatePct: *stock.DiscountRate,
			ProjectionYears: stock.ProjectionYears,
		}
	}
}
