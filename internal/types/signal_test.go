package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type SignalTestSuite struct {
	suite.Suite
}

func TestSignalSuite(t *testing.T) {
	suite.Run(t, new(SignalTestSuite))
}

func validSignal() Signal {
	now := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

	return Signal{
		ID:          uuid.New().String(),
		Symbol:      "SPY",
		Strategy:    "momentum",
		Confidence:  0.8,
		GeneratedAt: now,
		ExpiresAt:   now.Add(5 * time.Second),
		Legs: []SignalLeg{
			{
				Symbol:    "SPY",
				Side:      PurchaseTypeBuy,
				OrderType: OrderTypeMarket,
				Quantity:  10,
			},
		},
		Risk: RiskMetrics{
			MaxLoss:  500,
			Notional: 4450,
		},
		Reason: "test",
	}
}

func (suite *SignalTestSuite) TestValidateAccepts() {
	s := validSignal()
	suite.NoError(s.Validate())
}

func (suite *SignalTestSuite) TestValidateRejectsMissingID() {
	s := validSignal()
	s.ID = ""
	suite.Error(s.Validate())
}

func (suite *SignalTestSuite) TestValidateRejectsBadConfidence() {
	s := validSignal()
	s.Confidence = 1.5
	suite.Error(s.Validate())
}

func (suite *SignalTestSuite) TestValidateRejectsEmptyLegs() {
	s := validSignal()
	s.Legs = nil
	suite.Error(s.Validate())
}

func (suite *SignalTestSuite) TestValidateRejectsBadLegSide() {
	s := validSignal()
	s.Legs[0].Side = "HOLD"
	suite.Error(s.Validate())
}

func (suite *SignalTestSuite) TestValidateRejectsExpiryBeforeGeneration() {
	s := validSignal()
	s.ExpiresAt = s.GeneratedAt
	suite.Error(s.Validate())
}

func (suite *SignalTestSuite) TestExpired() {
	s := validSignal()
	suite.False(s.Expired(s.GeneratedAt))
	suite.False(s.Expired(s.ExpiresAt.Add(-time.Millisecond)))
	suite.True(s.Expired(s.ExpiresAt))
	suite.True(s.Expired(s.ExpiresAt.Add(time.Second)))
}

func (suite *SignalTestSuite) TestTimeToLive() {
	s := validSignal()
	suite.Equal(5*time.Second, s.TimeToLive(s.GeneratedAt))
	suite.Negative(s.TimeToLive(s.ExpiresAt.Add(time.Second)))
}
