package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type PositionTestSuite struct {
	suite.Suite
}

func TestPositionSuite(t *testing.T) {
	suite.Run(t, new(PositionTestSuite))
}

func (suite *PositionTestSuite) TestLegRealizedPnLLong() {
	leg := PositionLeg{
		Symbol:         "SPY",
		Side:           PurchaseTypeBuy,
		Multiplier:     1,
		Quantity:       100,
		FilledQuantity: 100,
		AvgEntryPrice:  445.00,
		ClosedQuantity: 100,
		AvgExitPrice:   447.50,
	}

	pnl, _ := leg.RealizedPnL().Float64()
	suite.InDelta(250.0, pnl, 1e-9)
}

func (suite *PositionTestSuite) TestLegRealizedPnLShort() {
	leg := PositionLeg{
		Symbol:         "SPY",
		Side:           PurchaseTypeSell,
		Multiplier:     100,
		Quantity:       2,
		FilledQuantity: 2,
		AvgEntryPrice:  3.20,
		ClosedQuantity: 2,
		AvgExitPrice:   1.80,
	}

	pnl, _ := leg.RealizedPnL().Float64()
	suite.InDelta(280.0, pnl, 1e-9)
}

func (suite *PositionTestSuite) TestLegRealizedPnLNoCloses() {
	leg := PositionLeg{Side: PurchaseTypeBuy, Multiplier: 1, FilledQuantity: 10, AvgEntryPrice: 100}
	suite.True(leg.RealizedPnL().IsZero())
}

func (suite *PositionTestSuite) TestUnrealizedPnL() {
	p := Position{
		Symbol: "SPY",
		Legs: []PositionLeg{
			{Side: PurchaseTypeBuy, Multiplier: 1, Quantity: 10, FilledQuantity: 10, AvgEntryPrice: 445.00},
			{Side: PurchaseTypeSell, Multiplier: 1, Quantity: 5, FilledQuantity: 5, AvgEntryPrice: 446.00},
		},
	}

	pnl, _ := p.UnrealizedPnL(446.00).Float64()
	// Long leg gains 10, short leg flat.
	suite.InDelta(10.0, pnl, 1e-9)
}

func (suite *PositionTestSuite) TestAllLegsFilled() {
	p := Position{
		Legs: []PositionLeg{
			{Quantity: 10, FilledQuantity: 10},
			{Quantity: 5, FilledQuantity: 4},
		},
	}
	suite.False(p.AllLegsFilled())

	p.Legs[1].FilledQuantity = 5
	suite.True(p.AllLegsFilled())

	empty := Position{}
	suite.False(empty.AllLegsFilled())
}

func (suite *PositionTestSuite) TestAllLegsClosed() {
	p := Position{
		Legs: []PositionLeg{
			{Quantity: 10, FilledQuantity: 10, ClosedQuantity: 10},
			{Quantity: 5, FilledQuantity: 0}, // never filled, must not block
		},
	}
	suite.True(p.AllLegsClosed())

	p.Legs[0].ClosedQuantity = 5
	suite.False(p.AllLegsClosed())
}

func (suite *PositionTestSuite) TestClone() {
	p := Position{
		ID:     "pos-1",
		Symbol: "SPY",
		Status: PositionStatusOpen,
		Legs:   []PositionLeg{{Symbol: "SPY", Quantity: 10}},
	}

	cp := p.Clone()
	cp.Legs[0].Quantity = 99
	cp.Status = PositionStatusClosed

	suite.Equal(float64(10), p.Legs[0].Quantity)
	suite.Equal(PositionStatusOpen, p.Status)
}

func (suite *PositionTestSuite) TestStatusTerminal() {
	suite.True(PositionStatusClosed.IsTerminal())
	suite.True(PositionStatusFailed.IsTerminal())
	suite.False(PositionStatusPendingOpen.IsTerminal())
	suite.False(PositionStatusOpen.IsTerminal())
	suite.False(PositionStatusAdjusting.IsTerminal())
	suite.False(PositionStatusClosing.IsTerminal())
}

func (suite *PositionTestSuite) TestOrderRemaining() {
	o := Order{Quantity: 10, FilledQuantity: 4}
	suite.Equal(6.0, o.Remaining())

	o.FilledQuantity = 12
	suite.Equal(0.0, o.Remaining())
}

func (suite *PositionTestSuite) TestRiskLimitsValidate() {
	limits := RiskLimits{
		MaxConcentration: 50000,
		MaxOpenPositions: 10,
		DailyLossLimit:   5000,
		DecisionBudget:   time.Millisecond,
	}
	suite.NoError(limits.Validate())

	limits.MaxOpenPositions = 0
	suite.Error(limits.Validate())
}
