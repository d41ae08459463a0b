package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValuationSnapshot represents a point-in-time copy of a stock's full
// valuation state, taken at a quarter boundary by convention.
// Immutable after creation: recreating a snapshot for the same
// (ticker, snapshot date) pair requires deleting the prior one first.
type ValuationSnapshot struct {
	ID           uuid.UUID
	Ticker       string
	SnapshotDate time.Time // calendar date; time component is ignored

	IntrinsicValue    *decimal.Decimal
	IntrinsicValueFCF *decimal.Decimal

	// Assumptions at snapshot time
	CurrentEPS         *decimal.Decimal
	EPSGrowthRate      *decimal.Decimal
	EPSMultiple        *decimal.Decimal
	DiscountRate       *decimal.Decimal
	CurrentFCFPerShare *decimal.Decimal
	FCFGrowthRate      *decimal.Decimal
	FCFMultiple        *decimal.Decimal
	FCFDiscountRate    *decimal.Decimal

	PreferredMethod ValuationMethod
	CalculatedAt    time.Time
}

// EffectiveIntrinsicValue returns the intrinsic value selected by the
// snapshot's own preferred method, nil if that track was empty at
// snapshot time. Same selection rule as Stock.EffectiveIntrinsicValue.
func (v *ValuationSnapshot) EffectiveIntrinsicValue() *decimal.Decimal {
	if v.PreferredMethod.Normalize() == MethodFCF {
		return v.IntrinsicValueFCF
	}
	return v.IntrinsicValue
}
