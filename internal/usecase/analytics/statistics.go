package analytics

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// VolatilityStats describes the dispersion of a historical value series.
// Fields are nil when the series is too short (or too degenerate) to
// support them: fewer than 2 values leaves StdDev and CV nil, a zero mean
// leaves CV nil.
type VolatilityStats struct {
	Mean                   *float64
	StdDev                 *float64
	CoefficientOfVariation *float64
}

// Volatility computes mean, sample standard deviation (N-1 denominator)
// and coefficient of variation over a series of historical values.
// Nil entries are filtered out first. Results are rounded to 2 decimals.
func Volatility(values []*decimal.Decimal) VolatilityStats {
	floats := filterNonNil(values)
	if len(floats) == 0 {
		return VolatilityStats{}
	}

	mean := stat.Mean(floats, nil)
	stats := VolatilityStats{Mean: roundPtr(mean, 2)}

	if len(floats) < 2 {
		return stats
	}

	stdDev := stat.StdDev(floats, nil)
	stats.StdDev = roundPtr(stdDev, 2)

	// CV = (stdDev / mean) * 100, undefined for a zero mean
	if mean != 0 {
		stats.CoefficientOfVariation = roundPtr(stdDev/mean*100, 2)
	}

	return stats
}

// CAGR computes the compound annual growth rate between two snapshot
// values separated by a number of calendar quarters, as a percentage
// rounded to 2 decimals. Returns nil when either value is missing or
// non-positive, when fewer than 1 quarter elapsed, or when the
// computation leaves the real domain.
func CAGR(startValue, endValue *decimal.Decimal, quarters int) *float64 {
	if startValue == nil || endValue == nil || quarters < 1 {
		return nil
	}
	if startValue.LessThanOrEqual(decimal.Zero) || endValue.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	years := float64(quarters) / 4.0
	if years == 0 {
		return nil
	}

	start, _ := startValue.Float64()
	end, _ := endValue.Float64()

	growth := (math.Pow(end/start, 1.0/years) - 1) * 100
	if math.IsNaN(growth) || math.IsInf(growth, 0) {
		return nil
	}

	return roundPtr(growth, 2)
}

// Correlation computes the Pearson correlation coefficient between two
// value series, rounded to 3 decimals. Entries where either side is nil
// are dropped pairwise. Returns nil on mismatched input lengths, fewer
// than 2 valid pairs, or zero-variance input.
func Correlation(xs, ys []*decimal.Decimal) *float64 {
	if len(xs) != len(ys) {
		return nil
	}

	pairedX := make([]float64, 0, len(xs))
	pairedY := make([]float64, 0, len(ys))
	for i := range xs {
		if xs[i] == nil || ys[i] == nil {
			continue
		}
		x, _ := xs[i].Float64()
		y, _ := ys[i].Float64()
		pairedX = append(pairedX, x)
		pairedY = append(pairedY, y)
	}

	if len(pairedX) < 2 {
		return nil
	}

	r := stat.Correlation(pairedX, pairedY, nil)

	// Zero variance on either side yields NaN
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}

	return roundPtr(r, 3)
}

// filterNonNil converts a nullable decimal series into the non-nil
// float64 values, preserving order
func filterNonNil(values []*decimal.Decimal) []float64 {
	floats := make([]float64, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		f, _ := v.Float64()
		floats = append(floats, f)
	}
	return floats
}

func roundPtr(v float64, places int) *float64 {
	factor := math.Pow(10, float64(places))
	rounded := math.Round(v*factor) / factor
	return &rounded
}
