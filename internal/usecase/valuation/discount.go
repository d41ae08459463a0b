package valuation

import (
	"github.com/shopspring/decimal"
)

// TerminalValue applies an exit multiple to the final projected-year value
func TerminalValue(finalYearValue, exitMultiple decimal.Decimal) decimal.Decimal {
	return finalYearValue.Mul(exitMultiple).Round(2)
}

// PresentValue discounts a single future value back to present value
// Formula: futureValue / (1 + discountRatePct/100)^yearsOut, rounded to 2 decimals
// A zero discount rate degenerates to the identity (after rounding).
func PresentValue(futureValue, discountRatePct decimal.Decimal, yearsOut int) decimal.Decimal {
	discountFactor := decimal.NewFromInt(1).Add(discountRatePct.Div(decimal.NewFromInt(100)))
	return futureValue.Div(discountFactor.Pow(decimal.NewFromInt(int64(yearsOut)))).Round(2)
}

// DiscountSeries discounts each element of a projected series back to
// present value. The element at position k (1-indexed) is discounted by
// k years.
func DiscountSeries(series []decimal.Decimal, discountRatePct decimal.Decimal) []decimal.Decimal {
	discounted := make([]decimal.Decimal, len(series))
	for i, futureValue := range series {
		discounted[i] = PresentValue(futureValue, discountRatePct, i+1)
	}
	return discounted
}
