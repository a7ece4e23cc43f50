package market

import (
	"math"
	"time"

	"github.com/vega-lab/vega-trading/internal/types"
)

// minReturns is the minimum overlapping return count required before a pair
// contributes a correlation estimate. Below it the pair reads as zero.
const minReturns = 10

// computeCorrelationState builds an immutable correlation state from the
// given per-symbol return series. Series are aligned on their most recent
// observations.
func computeCorrelationState(symbols []string, series [][]float64, window int, thresholds RegimeThresholds, now time.Time) *types.CorrelationState {
	n := len(symbols)
	matrix := identityMatrix(n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := pearson(series[i], series[j])
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}

	state := &types.CorrelationState{
		Symbols:    symbols,
		Matrix:     matrix,
		Window:     window,
		ComputedAt: now,
	}

	state.Regime = classifyRegime(maxVolatility(series), state.MeanAbsCorrelation(), thresholds)

	return state
}

// pearson computes the Pearson correlation over the overlapping tail of two
// return series. Returns zero when there is not enough overlap or a series
// is degenerate (zero variance).
func pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	if n < minReturns {
		return 0
	}

	// Align on the most recent n observations.
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	var sumA, sumB float64

	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
	}

	meanA := sumA / float64(n)
	meanB := sumB / float64(n)

	var cov, varA, varB float64

	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	if varA == 0 || varB == 0 {
		return 0
	}

	return cov / math.Sqrt(varA*varB)
}

// stddev computes the sample standard deviation of a return series.
func stddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	mean := sum / float64(n)

	var acc float64

	for _, v := range values {
		d := v - mean
		acc += d * d
	}

	return math.Sqrt(acc / float64(n-1))
}

// maxVolatility returns the largest per-symbol realized volatility.
func maxVolatility(series [][]float64) float64 {
	var maxVol float64

	for _, s := range series {
		if v := stddev(s); v > maxVol {
			maxVol = v
		}
	}

	return maxVol
}

// classifyRegime maps realized volatility and mean absolute correlation onto
// a regime. Correlation spikes promote high volatility to emergency: when
// everything moves together diversification is gone and the book behaves as
// one concentrated position.
func classifyRegime(vol, meanAbsCorr float64, t RegimeThresholds) types.Regime {
	switch {
	case vol >= t.EmergencyVol:
		return types.RegimeEmergency
	case vol >= t.HighVol && meanAbsCorr >= t.EmergencyCorrelation:
		return types.RegimeEmergency
	case vol >= t.HighVol:
		return types.RegimeHighVolatility
	case vol >= t.ElevatedVol:
		return types.RegimeElevated
	default:
		return types.RegimeNormal
	}
}
