package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/types"
)

type CorrelationComputeTestSuite struct {
	suite.Suite
}

func TestCorrelationComputeSuite(t *testing.T) {
	suite.Run(t, new(CorrelationComputeTestSuite))
}

func series(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}

	return out
}

func (suite *CorrelationComputeTestSuite) TestPearsonPerfectPositive() {
	a := series(30, func(i int) float64 { return math.Sin(float64(i)) })
	b := series(30, func(i int) float64 { return 2 * math.Sin(float64(i)) })

	suite.InDelta(1.0, pearson(a, b), 1e-9)
}

func (suite *CorrelationComputeTestSuite) TestPearsonPerfectNegative() {
	a := series(30, func(i int) float64 { return math.Sin(float64(i)) })
	b := series(30, func(i int) float64 { return -math.Sin(float64(i)) })

	suite.InDelta(-1.0, pearson(a, b), 1e-9)
}

func (suite *CorrelationComputeTestSuite) TestPearsonInsufficientOverlap() {
	a := series(5, func(i int) float64 { return float64(i) })
	b := series(5, func(i int) float64 { return float64(i) })

	suite.Zero(pearson(a, b))
}

func (suite *CorrelationComputeTestSuite) TestPearsonZeroVariance() {
	a := series(30, func(i int) float64 { return 1.0 })
	b := series(30, func(i int) float64 { return float64(i) })

	suite.Zero(pearson(a, b))
}

func (suite *CorrelationComputeTestSuite) TestClassifyRegime() {
	t := DefaultRegimeThresholds()

	suite.Equal(types.RegimeNormal, classifyRegime(0.001, 0.2, t))
	suite.Equal(types.RegimeElevated, classifyRegime(0.003, 0.2, t))
	suite.Equal(types.RegimeHighVolatility, classifyRegime(0.006, 0.2, t))
	suite.Equal(types.RegimeEmergency, classifyRegime(0.02, 0.2, t))

	// Correlation spike promotes high volatility to emergency.
	suite.Equal(types.RegimeEmergency, classifyRegime(0.006, 0.9, t))
}

func (suite *CorrelationComputeTestSuite) TestComputeStateMatrixSymmetry() {
	a := series(40, func(i int) float64 { return math.Sin(float64(i)) * 0.001 })
	b := series(40, func(i int) float64 { return math.Cos(float64(i)) * 0.001 })
	now := time.Now()

	state := computeCorrelationState([]string{"QQQ", "SPY"}, [][]float64{a, b}, 40, DefaultRegimeThresholds(), now)

	suite.Equal([]string{"QQQ", "SPY"}, state.Symbols)
	suite.Equal(state.Matrix[0][1], state.Matrix[1][0])
	suite.Equal(1.0, state.Matrix[0][0])
	suite.Equal(1.0, state.Matrix[1][1])
	suite.Equal(now, state.ComputedAt)
}

func (suite *CorrelationComputeTestSuite) TestRecomputePublishesNewInstance() {
	symbols := []types.Symbol{
		{Ticker: "SPY", TickSize: 0.01, Multiplier: 1, Tradable: true},
		{Ticker: "QQQ", TickSize: 0.01, Multiplier: 1, Tradable: true},
	}
	store := NewStore(symbols, Config{}, logger.NewNopLogger())

	before := store.CorrelationState()

	base := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		price := 445.0 + math.Sin(float64(i))
		_ = store.Update(types.Tick{Symbol: "SPY", Price: price, Timestamp: base.Add(time.Duration(i) * time.Second)})
		_ = store.Update(types.Tick{Symbol: "QQQ", Price: 380.0 + math.Sin(float64(i)), Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	after := store.Recompute(base.Add(time.Minute))

	suite.NotSame(before, after)
	suite.Same(after, store.CorrelationState())

	corr, err := after.Pair("SPY", "QQQ")
	suite.Require().NoError(err)
	suite.Greater(corr, 0.9, "identical sine drivers should correlate strongly")
}

func (suite *CorrelationComputeTestSuite) TestEmergencyRegimeFromWildPrices() {
	symbols := []types.Symbol{{Ticker: "SPY", TickSize: 0.01, Multiplier: 1, Tradable: true}}
	store := NewStore(symbols, Config{}, logger.NewNopLogger())

	base := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	price := 445.0

	for i := 0; i < 40; i++ {
		// Alternate +5% / -5% moves: realized vol far beyond emergency.
		if i%2 == 0 {
			price *= 1.05
		} else {
			price *= 0.95
		}

		_ = store.Update(types.Tick{Symbol: "SPY", Price: price, Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	state := store.Recompute(base.Add(time.Minute))
	suite.Equal(types.RegimeEmergency, state.Regime)
}
