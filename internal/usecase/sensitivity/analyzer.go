package sensitivity

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/stockval-backend/internal/domain"
	"github.com/simaogato/stockval-backend/internal/usecase/valuation"
)

// Assumption names accepted by the analyzer
const (
	AssumptionGrowthRate         = "growth_rate"
	AssumptionDiscountRate       = "discount_rate"
	AssumptionTerminalGrowthRate = "terminal_growth_rate"
)

// Result represents the outcome of one what-if query. The analyzer never
// returns an error value: failures are carried in the result itself so a
// user-facing query always gets a well-formed answer.
type Result struct {
	Ticker     string
	Assumption string
	Method     domain.ValuationMethod

	// Delta as a fraction of 1: 0.02 means the rate was shifted by
	// +2 percentage points
	Delta decimal.Decimal

	OriginalIV *decimal.Decimal
	AdjustedIV *decimal.Decimal
	ChangePct  *decimal.Decimal

	// Unsupported marks the deliberately-unimplemented
	// terminal_growth_rate case
	Unsupported bool
	Message     string
}

// Analyzer answers what-if queries against a stock's preferred valuation track
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a new Analyzer instance
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		log: log.With().Str("component", "sensitivity").Logger(),
	}
}

// Analyze measures the effect on intrinsic value of shifting one
// assumption while holding everything else fixed.
//
// delta is expressed as a fraction of 1 and is added directly to the
// targeted rate's percentage-point value: delta 0.02 turns a 10.0% growth
// rate into 12.0%, not 10.2%.
//
// Logic:
//  1. terminal_growth_rate is a recognized but unimplemented assumption:
//     it returns a structured unsupported result, never an error
//  2. Build the preferred-method assumptions and compute the baseline IV
//  3. Shift the targeted rate by delta*100 percentage points and recompute
//  4. ChangePct = round((adjusted-original)/original * 100, 2), nil when
//     the original IV is zero
//
// Any computation failure (incomplete assumptions, invalid inputs) is
// converted into a result carrying the failure message; this method never
// propagates an error to its caller.
func (s *Analyzer) Analyze(stock *domain.Stock, assumption string, delta decimal.Decimal) (result *Result) {
	method := stock.PreferredMethod.Normalize()
	result = &Result{
		Ticker:     stock.Ticker,
		Assumption: assumption,
		Method:     method,
		Delta:      delta,
	}

	// Pathological inputs (a -100% discount rate, say) panic deep inside
	// the decimal math; surface them as a message instead
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("ticker", stock.Ticker).
				Msg("sensitivity computation panicked")
			result.AdjustedIV = nil
			result.ChangePct = nil
			result.Message = fmt.Sprintf("sensitivity computation failed: %v", r)
		}
	}()

	if assumption == AssumptionTerminalGrowthRate {
		result.Unsupported = true
		result.Message = "terminal growth rate sensitivity is not implemented"
		return result
	}

	assumptions := valuation.AssumptionsForMethod(stock, method)
	if assumptions == nil {
		result.Message = "stock has incomplete assumptions for the " + string(method) + " method"
		return result
	}

	baseline, err := valuation.Calculate(*assumptions)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", stock.Ticker).Msg("baseline valuation failed")
		result.Message = err.Error()
		return result
	}
	result.OriginalIV = &baseline.IntrinsicValue

	// delta arrives as a fraction; the stored rates are percentage points
	shift := delta.Mul(decimal.NewFromInt(100))

	adjusted := *assumptions
	switch assumption {
	case AssumptionGrowthRate:
		adjusted.GrowthRatePct = adjusted.GrowthRatePct.Add(shift)
	case AssumptionDiscountRate:
		adjusted.DiscountRatePct = adjusted.DiscountRatePct.Add(shift)
	default:
		result.Message = "unknown assumption: " + assumption
		return result
	}

	recalculated, err := valuation.Calculate(adjusted)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", stock.Ticker).Str("assumption", assumption).
			Msg("adjusted valuation failed")
		result.Message = err.Error()
		return result
	}
	result.AdjustedIV = &recalculated.IntrinsicValue

	// Division-by-zero guard: a zero baseline leaves ChangePct unset
	if !baseline.IntrinsicValue.IsZero() {
		changePct := recalculated.IntrinsicValue.
			Sub(baseline.IntrinsicValue).
			Div(baseline.IntrinsicValue).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		result.ChangePct = &changePct
	}

	return result
}
