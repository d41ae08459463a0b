package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ValuationMethod represents which valuation track a stock's effective
// intrinsic value is read from
type ValuationMethod string

const (
	MethodEPS ValuationMethod = "EPS"
	MethodFCF ValuationMethod = "FCF"
)

// Normalize maps unknown method values to EPS (the default track)
func (m ValuationMethod) Normalize() ValuationMethod {
	if m == MethodFCF {
		return MethodFCF
	}
	return MethodEPS
}

// priceStaleAfter is the age at which a stored price is considered stale.
// The boundary is strict: a price updated exactly this long ago is stale.
const priceStaleAfter = 24 * time.Hour

// Stock represents a curated stock entity in the domain layer
// It carries two independent valuation tracks (EPS-based and FCF-based),
// each with its own assumptions and live intrinsic value
type Stock struct {
	Ticker   string
	Name     string
	IsActive bool

	CurrentPrice   *decimal.Decimal
	PriceUpdatedAt *time.Time

	// EPS-based track
	CurrentEPS      *decimal.Decimal
	EPSGrowthRate   *decimal.Decimal // percentage points, e.g. 10.0 = 10%
	EPSMultiple     *decimal.Decimal
	DiscountRate    *decimal.Decimal // percentage points
	ProjectionYears int
	IntrinsicValue  *decimal.Decimal

	// FCF-based track
	CurrentFCFPerShare *decimal.Decimal
	FCFGrowthRate      *decimal.Decimal
	FCFMultiple        *decimal.Decimal
	FCFDiscountRate    *decimal.Decimal
	FCFProjectionYears int
	IntrinsicValueFCF  *decimal.Decimal

	PreferredMethod  ValuationMethod
	LastCalculatedAt *time.Time
}

// Validate ensures the stock adheres to domain rules
func (s *Stock) Validate() error {
	if s.Ticker == "" {
		return errors.New("stock ticker cannot be empty")
	}
	return nil
}

// EffectiveIntrinsicValue returns the intrinsic value of whichever track
// the preferred method selects, or nil if that track has no value yet.
// Every consumer (analytics, sensitivity, portfolio aggregation) must go
// through this selector rather than re-implementing the branch.
func (s *Stock) EffectiveIntrinsicValue() *decimal.Decimal {
	if s.PreferredMethod.Normalize() == MethodFCF {
		return s.IntrinsicValueFCF
	}
	return s.IntrinsicValue
}

// IsPriceStale reports whether the stored price is older than the
// staleness window relative to now. A stock with no recorded price
// timestamp is always stale.
func (s *Stock) IsPriceStale(now time.Time) bool {
	if s.PriceUpdatedAt == nil {
		return true
	}
	return now.Sub(*s.PriceUpdatedAt) >= priceStaleAfter
}
