package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValuationMethod_Normalize(t *testing.T) {
	assert.Equal(t, MethodEPS, MethodEPS.Normalize())
	assert.Equal(t, MethodFCF, MethodFCF.Normalize())

	// Unknown values default to EPS
	assert.Equal(t, MethodEPS, ValuationMethod("").Normalize())
	assert.Equal(t, MethodEPS, ValuationMethod("DIVIDEND").Normalize())
}

func TestStock_EffectiveIntrinsicValue_PrefersSelectedTrack(t *testing.T) {
	epsIV := decimal.NewFromFloat(101.97)
	fcfIV := decimal.NewFromFloat(88.40)

	stock := &Stock{
		Ticker:            "AAPL",
		IntrinsicValue:    &epsIV,
		IntrinsicValueFCF: &fcfIV,
		PreferredMethod:   MethodEPS,
	}

	assert.True(t, epsIV.Equal(*stock.EffectiveIntrinsicValue()))

	stock.PreferredMethod = MethodFCF
	assert.True(t, fcfIV.Equal(*stock.EffectiveIntrinsicValue()))
}

func TestStock_EffectiveIntrinsicValue_NilWhenTrackEmpty(t *testing.T) {
	epsIV := decimal.NewFromFloat(101.97)

	// FCF preferred but FCF track never calculated
	stock := &Stock{
		Ticker:          "MSFT",
		IntrinsicValue:  &epsIV,
		PreferredMethod: MethodFCF,
	}

	assert.Nil(t, stock.EffectiveIntrinsicValue())
}

func TestStock_EffectiveIntrinsicValue_UnknownMethodFallsBackToEPS(t *testing.T) {
	epsIV := decimal.NewFromFloat(50.25)

	stock := &Stock{
		Ticker:          "NVDA",
		IntrinsicValue:  &epsIV,
		PreferredMethod: ValuationMethod("bogus"),
	}

	assert.True(t, epsIV.Equal(*stock.EffectiveIntrinsicValue()))
}

func TestStock_IsPriceStale(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// No price timestamp at all
	stock := &Stock{Ticker: "AAPL"}
	assert.True(t, stock.IsPriceStale(now))

	// Updated one hour ago
	fresh := now.Add(-1 * time.Hour)
	stock.PriceUpdatedAt = &fresh
	assert.False(t, stock.IsPriceStale(now))

	// Updated exactly 24 hours ago is already stale (strict boundary)
	boundary := now.Add(-24 * time.Hour)
	stock.PriceUpdatedAt = &boundary
	assert.True(t, stock.IsPriceStale(now))

	// Just inside the window
	almostStale := now.Add(-24*time.Hour + time.Second)
	stock.PriceUpdatedAt = &almostStale
	assert.False(t, stock.IsPriceStale(now))
}

func TestSnapshot_EffectiveIntrinsicValue(t *testing.T) {
	epsIV := decimal.NewFromFloat(120.00)
	fcfIV := decimal.NewFromFloat(95.50)

	snapshot := &ValuationSnapshot{
		Ticker:            "GOOG",
		IntrinsicValue:    &epsIV,
		IntrinsicValueFCF: &fcfIV,
		PreferredMethod:   MethodFCF,
	}

	assert.True(t, fcfIV.Equal(*snapshot.EffectiveIntrinsicValue()))

	snapshot.PreferredMethod = MethodEPS
	assert.True(t, epsIV.Equal(*snapshot.EffectiveIntrinsicValue()))
}

func TestScanRecord_Validate(t *testing.T) {
	record := &ScanRecord{
		UserID:   "user-1",
		ScanType: ScanTypeIndividual,
		Ticker:   "AAPL",
	}
	assert.NoError(t, record.Validate())

	// Missing user
	record = &ScanRecord{ScanType: ScanTypeCurated}
	err := record.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "user ID")

	// Bad scan type
	record = &ScanRecord{UserID: "user-1", ScanType: ScanType("BULK")}
	err = record.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scan type")
}
