package sensitivity

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/stockval-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(zerolog.Nop())
}

// completeStock returns a stock with a fully-specified EPS track
// (the engine's reference scenario) and EPS as the preferred method
func completeStock() *domain.Stock {
	eps := decimal.NewFromFloat(5.00)
	growth := decimal.NewFromFloat(10.0)
	multiple := decimal.NewFromFloat(20.0)
	discount := decimal.NewFromFloat(15.0)

	return &domain.Stock{
		Ticker:          "AAPL",
		CurrentEPS:      &eps,
		EPSGrowthRate:   &growth,
		EPSMultiple:     &multiple,
		DiscountRate:    &discount,
		ProjectionYears: 5,
		PreferredMethod: domain.MethodEPS,
	}
}

func TestAnalyze_GrowthRateUpIncreasesIV(t *testing.T) {
	analyzer := newTestAnalyzer()

	// +2 percentage points of growth
	result := analyzer.Analyze(completeStock(), AssumptionGrowthRate, decimal.NewFromFloat(0.02))

	require.NotNil(t, result.OriginalIV)
	require.NotNil(t, result.AdjustedIV)
	require.NotNil(t, result.ChangePct)
	assert.False(t, result.Unsupported)
	assert.Empty(t, result.Message)

	assert.True(t, result.AdjustedIV.GreaterThan(*result.OriginalIV),
		"more growth must raise IV: %s vs %s", result.AdjustedIV, result.OriginalIV)
	assert.True(t, result.ChangePct.GreaterThan(decimal.Zero))
}

func TestAnalyze_DiscountRateUpDecreasesIV(t *testing.T) {
	analyzer := newTestAnalyzer()

	result := analyzer.Analyze(completeStock(), AssumptionDiscountRate, decimal.NewFromFloat(0.02))

	require.NotNil(t, result.OriginalIV)
	require.NotNil(t, result.AdjustedIV)
	require.NotNil(t, result.ChangePct)

	assert.True(t, result.AdjustedIV.LessThan(*result.OriginalIV),
		"a higher discount rate must lower IV: %s vs %s", result.AdjustedIV, result.OriginalIV)
	assert.True(t, result.ChangePct.LessThan(decimal.Zero))
}

func TestAnalyze_DeltaIsPercentagePointsNotRelative(t *testing.T) {
	analyzer := newTestAnalyzer()

	// delta 0.02 means growth goes 10.0 -> 12.0, so the adjusted IV must
	// match a fresh run of the engine at 12% growth
	result := analyzer.Analyze(completeStock(), AssumptionGrowthRate, decimal.NewFromFloat(0.02))
	require.NotNil(t, result.AdjustedIV)

	stock := completeStock()
	bumped := decimal.NewFromFloat(12.0)
	stock.EPSGrowthRate = &bumped
	direct := analyzer.Analyze(stock, AssumptionGrowthRate, decimal.Zero)
	require.NotNil(t, direct.OriginalIV)

	assert.True(t, result.AdjustedIV.Equal(*direct.OriginalIV),
		"delta 0.02 should mean +2 points: %s vs %s", result.AdjustedIV, direct.OriginalIV)
}

func TestAnalyze_TerminalGrowthRateIsUnsupported(t *testing.T) {
	analyzer := newTestAnalyzer()

	result := analyzer.Analyze(completeStock(), AssumptionTerminalGrowthRate, decimal.NewFromFloat(0.01))

	assert.True(t, result.Unsupported)
	assert.NotEmpty(t, result.Message)
	assert.Nil(t, result.OriginalIV)
	assert.Nil(t, result.AdjustedIV)
	assert.Nil(t, result.ChangePct)
}

func TestAnalyze_TerminalGrowthRateUnsupportedEvenWithBrokenStock(t *testing.T) {
	analyzer := newTestAnalyzer()

	// Entity state must not matter for the unsupported case
	result := analyzer.Analyze(&domain.Stock{Ticker: "EMPTY"}, AssumptionTerminalGrowthRate, decimal.Zero)

	assert.True(t, result.Unsupported)
	assert.Nil(t, result.OriginalIV)
}

func TestAnalyze_UnknownAssumption(t *testing.T) {
	analyzer := newTestAnalyzer()

	result := analyzer.Analyze(completeStock(), "exit_multiple", decimal.NewFromFloat(0.02))

	assert.False(t, result.Unsupported)
	assert.Contains(t, result.Message, "unknown assumption")
	require.NotNil(t, result.OriginalIV, "baseline IV must be populated for unknown assumptions")
	assert.Nil(t, result.AdjustedIV)
	assert.Nil(t, result.ChangePct)
}

func TestAnalyze_IncompleteAssumptionsNeverPanics(t *testing.T) {
	analyzer := newTestAnalyzer()

	result := analyzer.Analyze(&domain.Stock{Ticker: "BARE", PreferredMethod: domain.MethodFCF},
		AssumptionGrowthRate, decimal.NewFromFloat(0.02))

	assert.NotNil(t, result)
	assert.NotEmpty(t, result.Message)
	assert.Nil(t, result.OriginalIV)
	assert.Nil(t, result.AdjustedIV)
}

func TestAnalyze_UsesPreferredMethodTrack(t *testing.T) {
	analyzer := newTestAnalyzer()

	stock := completeStock()
	fcf := decimal.NewFromFloat(4.00)
	fcfGrowth := decimal.NewFromFloat(6.0)
	fcfMultiple := decimal.NewFromFloat(15.0)
	stock.CurrentFCFPerShare = &fcf
	stock.FCFGrowthRate = &fcfGrowth
	stock.FCFMultiple = &fcfMultiple
	stock.PreferredMethod = domain.MethodFCF

	result := analyzer.Analyze(stock, AssumptionGrowthRate, decimal.Zero)

	require.NotNil(t, result.OriginalIV)
	assert.Equal(t, domain.MethodFCF, result.Method)

	// Baseline must differ from the EPS track's 101.97
	assert.False(t, result.OriginalIV.Equal(decimal.RequireFromString("101.97")))
}
