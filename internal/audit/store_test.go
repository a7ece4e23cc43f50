package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/types"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
	base  time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupTest() {
	store, err := NewStore(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(store.Initialize())

	suite.store = store
	suite.base = time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
}

func (suite *StoreTestSuite) TearDownTest() {
	suite.NoError(suite.store.Close())
}

func (suite *StoreTestSuite) TestTickRoundTrip() {
	ticks := []types.Tick{
		{Symbol: "SPY", Price: 445.50, Bid: 445.49, Ask: 445.51, Volume: 100, Timestamp: suite.base.Add(time.Second)},
		{Symbol: "SPY", Price: 445.00, Bid: 444.99, Ask: 445.01, Volume: 200, Timestamp: suite.base},
	}

	for _, t := range ticks {
		suite.Require().NoError(suite.store.WriteTick(t))
	}

	count, err := suite.store.TickCount()
	suite.Require().NoError(err)
	suite.EqualValues(2, count)

	// Replay order is timestamp order, not insertion order.
	got, err := suite.store.ReadTicks()
	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.InDelta(445.00, got[0].Price, 1e-9)
	suite.InDelta(445.50, got[1].Price, 1e-9)
}

func (suite *StoreTestSuite) TestDecisionQuery() {
	for i, reason := range []types.RejectReason{
		types.RejectReasonNone,
		types.RejectReasonConcentration,
		types.RejectReasonConcentration,
		types.RejectReasonHalted,
	} {
		action := types.DecisionReject
		if reason == types.RejectReasonNone {
			action = types.DecisionAccept
		}

		suite.Require().NoError(suite.store.WriteDecision(types.RiskDecision{
			SignalID:  uuid.New().String(),
			Symbol:    "SPY",
			Strategy:  "momentum",
			Action:    action,
			Reason:    reason,
			Elapsed:   1500 * time.Microsecond,
			DecidedAt: suite.base.Add(time.Duration(i) * time.Second),
		}))
	}

	decisions, err := suite.store.Decisions(2)
	suite.Require().NoError(err)
	suite.Require().Len(decisions, 2)
	suite.Equal(types.RejectReasonHalted, decisions[0].Reason)
	suite.Equal(1500*time.Microsecond, decisions[0].Elapsed)

	counts, err := suite.store.RejectionCounts()
	suite.Require().NoError(err)
	suite.EqualValues(2, counts[string(types.RejectReasonConcentration)])
	suite.EqualValues(1, counts[string(types.RejectReasonHalted)])
}

func (suite *StoreTestSuite) TestPositionEventTrail() {
	positionID := uuid.New().String()
	signalID := uuid.New().String()

	events := []types.PositionEvent{
		{PositionID: positionID, Symbol: "SPY", Strategy: "momentum", Type: types.PositionEventOpened, OccurredAt: suite.base},
		{PositionID: positionID, Symbol: "SPY", Strategy: "momentum", Type: types.PositionEventClosing, Reason: "stop_loss", OccurredAt: suite.base.Add(time.Second)},
		{PositionID: positionID, Symbol: "SPY", Strategy: "momentum", Type: types.PositionEventClosed, RealizedPnL: -60, OccurredAt: suite.base.Add(2 * time.Second)},
	}

	for _, ev := range events {
		suite.Require().NoError(suite.store.WritePositionEvent(signalID, ev))
	}

	trail, err := suite.store.PositionEvents(positionID)
	suite.Require().NoError(err)
	suite.Require().Len(trail, 3)
	suite.Equal(types.PositionEventOpened, trail[0].Type)
	suite.Equal(types.PositionEventClosed, trail[2].Type)
	suite.InDelta(-60.0, trail[2].RealizedPnL, 1e-9)

	total, err := suite.store.RealizedPnL()
	suite.Require().NoError(err)
	suite.InDelta(-60.0, total, 1e-9)
}

func (suite *StoreTestSuite) TestSignalWrite() {
	suite.Require().NoError(suite.store.WriteSignal(types.Signal{
		ID:          uuid.New().String(),
		Symbol:      "SPY",
		Strategy:    "momentum",
		Confidence:  0.7,
		GeneratedAt: suite.base,
		ExpiresAt:   suite.base.Add(2 * time.Second),
		Legs: []types.SignalLeg{
			{Symbol: "SPY", Side: types.PurchaseTypeBuy, OrderType: types.OrderTypeMarket, Quantity: 10},
		},
		Risk:   types.RiskMetrics{MaxLoss: 44.5, Notional: 4450},
		Reason: "test",
	}))
}

func (suite *StoreTestSuite) TestEmptyQueries() {
	decisions, err := suite.store.Decisions(10)
	suite.Require().NoError(err)
	suite.Empty(decisions)

	total, err := suite.store.RealizedPnL()
	suite.Require().NoError(err)
	suite.InDelta(0.0, total, 1e-9)
}
