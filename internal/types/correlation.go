package types

import (
	"time"

	"github.com/vega-lab/vega-trading/pkg/errors"
)

// Regime classifies current market volatility and correlation conditions.
// The risk gate tightens or halts trading as the regime escalates.
type Regime string

const (
	RegimeNormal         Regime = "normal"
	RegimeElevated       Regime = "elevated"
	RegimeHighVolatility Regime = "high_volatility"
	RegimeEmergency      Regime = "emergency"
)

// Severity orders regimes from calm to emergency. Useful for threshold
// comparisons without string matching.
func (r Regime) Severity() int {
	switch r {
	case RegimeNormal:
		return 0
	case RegimeElevated:
		return 1
	case RegimeHighVolatility:
		return 2
	case RegimeEmergency:
		return 3
	default:
		return 0
	}
}

// CorrelationState is an immutable snapshot of pairwise correlations over a
// rolling window plus the derived regime. The market state store publishes a
// fresh instance on every recompute; consumers must treat it as read-only.
type CorrelationState struct {
	// Symbols lists the instruments in matrix order.
	Symbols []string `json:"symbols"`
	// Matrix holds pairwise Pearson correlations, Matrix[i][j] for
	// Symbols[i] vs Symbols[j]. Diagonal entries are 1.
	Matrix [][]float64 `json:"matrix"`
	// Regime is the derived volatility/correlation classification.
	Regime Regime `json:"regime"`
	// Window is the number of returns used per symbol.
	Window int `json:"window"`
	// ComputedAt is when this state was published.
	ComputedAt time.Time `json:"computed_at"`
}

// Pair returns the correlation between two symbols.
func (c *CorrelationState) Pair(a, b string) (float64, error) {
	ai, bi := -1, -1

	for i, s := range c.Symbols {
		if s == a {
			ai = i
		}

		if s == b {
			bi = i
		}
	}

	if ai < 0 || bi < 0 {
		return 0, errors.Newf(errors.ErrCodeUnknownSymbol, "no correlation entry for pair %s/%s", a, b)
	}

	return c.Matrix[ai][bi], nil
}

// MeanAbsCorrelation returns the mean absolute off-diagonal correlation.
// Returns zero when fewer than two symbols are tracked.
func (c *CorrelationState) MeanAbsCorrelation() float64 {
	n := len(c.Symbols)
	if n < 2 {
		return 0
	}

	var sum float64

	var count int

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := c.Matrix[i][j]
			if v < 0 {
				v = -v
			}

			sum += v
			count++
		}
	}

	return sum / float64(count)
}
