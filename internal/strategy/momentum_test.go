package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/vega-lab/vega-trading/internal/types"
)

type MomentumTestSuite struct {
	suite.Suite
	strategy *Momentum
	base     time.Time
}

func TestMomentumSuite(t *testing.T) {
	suite.Run(t, new(MomentumTestSuite))
}

func (suite *MomentumTestSuite) SetupTest() {
	suite.strategy = NewMomentum("momentum", MomentumConfig{
		Threshold:       0.004,
		Quantity:        10,
		TTL:             2 * time.Second,
		StopLossPct:     0.01,
		ProfitTargetPct: 0.02,
	})
	suite.base = time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
}

func (suite *MomentumTestSuite) view(price float64, at time.Time) MarketView {
	return MarketView{
		Snapshot: types.MarketSnapshot{
			Symbol:    "SPY",
			LastPrice: price,
			Bid:       price - 0.01,
			Ask:       price + 0.01,
			Timestamp: at,
		},
	}
}

func (suite *MomentumTestSuite) TestFirstTickNeverFires() {
	sig, err := suite.strategy.Evaluate(suite.view(445.00, suite.base))
	suite.Require().NoError(err)
	suite.True(sig.IsNone())
}

func (suite *MomentumTestSuite) TestSmallMoveBelowThreshold() {
	_, err := suite.strategy.Evaluate(suite.view(445.00, suite.base))
	suite.Require().NoError(err)

	// 445.00 to 445.50 is a 0.112% move, well under the 0.4% threshold.
	sig, err := suite.strategy.Evaluate(suite.view(445.50, suite.base.Add(time.Second)))
	suite.Require().NoError(err)
	suite.True(sig.IsNone())
}

func (suite *MomentumTestSuite) TestFiresOnThresholdBreach() {
	_, err := suite.strategy.Evaluate(suite.view(445.00, suite.base))
	suite.Require().NoError(err)

	at := suite.base.Add(time.Second)
	sig, err := suite.strategy.Evaluate(suite.view(447.50, at))
	suite.Require().NoError(err)
	suite.Require().True(sig.IsSome())

	got := sig.Unwrap()
	suite.Equal("SPY", got.Symbol)
	suite.Equal("momentum", got.Strategy)
	suite.Equal(at, got.GeneratedAt)
	suite.Equal(at.Add(2*time.Second), got.ExpiresAt)
	suite.Require().Len(got.Legs, 1)
	suite.Equal(types.PurchaseTypeBuy, got.Legs[0].Side)
	suite.Equal(types.OrderTypeMarket, got.Legs[0].OrderType)
	suite.InDelta(10.0, got.Legs[0].Quantity, 1e-12)
	suite.InDelta(447.50*10*0.01, got.Risk.MaxLoss, 1e-9)
	suite.InDelta(447.50*10, got.Risk.Notional, 1e-9)
	suite.InDelta(447.50*0.99, got.StopLoss.Unwrap(), 1e-9)
	suite.InDelta(447.50*1.02, got.ProfitTarget.Unwrap(), 1e-9)
	suite.NoError(got.Validate())
}

func (suite *MomentumTestSuite) TestExactThresholdMoveNeverFires() {
	_, err := suite.strategy.Evaluate(suite.view(100.00, suite.base))
	suite.Require().NoError(err)

	// 100.00 to 100.40 lands exactly on the 0.4% threshold; the trigger is
	// strictly greater-than.
	sig, err := suite.strategy.Evaluate(suite.view(100.40, suite.base.Add(time.Second)))
	suite.Require().NoError(err)
	suite.True(sig.IsNone())
}

func (suite *MomentumTestSuite) TestConfidenceScalesWithOvershoot() {
	_, err := suite.strategy.Evaluate(suite.view(100.00, suite.base))
	suite.Require().NoError(err)

	// Just past the threshold fires with confidence a shade over 0.5.
	sig, err := suite.strategy.Evaluate(suite.view(100.41, suite.base.Add(time.Second)))
	suite.Require().NoError(err)
	suite.Require().True(sig.IsSome())

	expected := ((100.41 - 100.00) / 100.00) / (2 * 0.004)
	suite.InDelta(expected, sig.Unwrap().Confidence, 1e-9)
	suite.Greater(sig.Unwrap().Confidence, 0.5)

	// A 2.5% move saturates confidence at 1.
	sig, err = suite.strategy.Evaluate(suite.view(102.93, suite.base.Add(2*time.Second)))
	suite.Require().NoError(err)
	suite.Require().True(sig.IsSome())
	suite.InDelta(1.0, sig.Unwrap().Confidence, 1e-9)
}

func (suite *MomentumTestSuite) TestDownMoveNeverFires() {
	_, err := suite.strategy.Evaluate(suite.view(445.00, suite.base))
	suite.Require().NoError(err)

	sig, err := suite.strategy.Evaluate(suite.view(440.00, suite.base.Add(time.Second)))
	suite.Require().NoError(err)
	suite.True(sig.IsNone())
}

func (suite *MomentumTestSuite) TestSymbolsTrackedIndependently() {
	_, err := suite.strategy.Evaluate(suite.view(445.00, suite.base))
	suite.Require().NoError(err)

	qqq := MarketView{
		Snapshot: types.MarketSnapshot{
			Symbol:    "QQQ",
			LastPrice: 500.00,
			Timestamp: suite.base.Add(time.Second),
		},
	}

	// First QQQ tick establishes its own baseline; the SPY history must not
	// leak across symbols.
	sig, err := suite.strategy.Evaluate(qqq)
	suite.Require().NoError(err)
	suite.True(sig.IsNone())
}

func (suite *MomentumTestSuite) TestDeterministicReplay() {
	prices := []float64{445.00, 447.50, 448.00, 450.50}

	run := func() []types.Signal {
		s := NewMomentum("momentum", MomentumConfig{
			Threshold:   0.004,
			Quantity:    10,
			TTL:         2 * time.Second,
			StopLossPct: 0.01,
		})

		var out []types.Signal

		for i, p := range prices {
			sig, err := s.Evaluate(suite.view(p, suite.base.Add(time.Duration(i)*time.Second)))
			suite.Require().NoError(err)

			if sig.IsSome() {
				out = append(out, sig.Unwrap())
			}
		}

		return out
	}

	first := run()
	second := run()

	suite.Require().Equal(len(first), len(second))

	for i := range first {
		suite.Equal(first[i].Confidence, second[i].Confidence)
		suite.Equal(first[i].GeneratedAt, second[i].GeneratedAt)
		suite.Equal(first[i].ExpiresAt, second[i].ExpiresAt)
		suite.Equal(first[i].Legs, second[i].Legs)
		suite.Equal(first[i].Risk, second[i].Risk)
	}
}
