package position

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/vega-lab/vega-trading/internal/gateway"
	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/market"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

type ManagerTestSuite struct {
	suite.Suite
	store   *market.Store
	gw      *gateway.SimGateway
	manager *Manager
	base    time.Time
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (suite *ManagerTestSuite) SetupTest() {
	suite.base = time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	suite.store = market.NewStore([]types.Symbol{
		{Ticker: "SPY", TickSize: 0.01, Multiplier: 1, Tradable: true},
	}, market.Config{}, logger.NewNopLogger())

	suite.gw = gateway.NewSimGateway(gateway.SimConfig{}, logger.NewNopLogger())
	suite.gw.SetReferencePrice("SPY", 445.00)

	suite.manager = NewManager(Config{FillTimeout: time.Minute}, suite.store, suite.gw, logger.NewNopLogger())
	suite.manager.Start(context.Background())
}

func (suite *ManagerTestSuite) TearDownTest() {
	suite.manager.Stop()
	suite.gw.Close()
}

func (suite *ManagerTestSuite) decision(stop, target optional.Option[float64]) types.RiskDecision {
	sig := types.Signal{
		ID:          uuid.New().String(),
		Symbol:      "SPY",
		Strategy:    "momentum",
		Confidence:  0.8,
		GeneratedAt: suite.base,
		ExpiresAt:   suite.base.Add(time.Hour),
		Legs: []types.SignalLeg{
			{
				Symbol:    "SPY",
				Side:      types.PurchaseTypeBuy,
				OrderType: types.OrderTypeMarket,
				Quantity:  10,
			},
		},
		Risk:         types.RiskMetrics{MaxLoss: 44.5, Notional: 4450},
		Reason:       "test",
		StopLoss:     stop,
		ProfitTarget: target,
	}

	return types.RiskDecision{
		SignalID: sig.ID,
		Symbol:   sig.Symbol,
		Strategy: sig.Strategy,
		Action:   types.DecisionAccept,
		Signal:   sig,
	}
}

func (suite *ManagerTestSuite) waitEvent(want types.PositionEventType) Event {
	timeout := time.After(2 * time.Second)

	for {
		select {
		case ev := <-suite.manager.Events():
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			suite.FailNowf("timeout", "no %s event", want)

			return Event{}
		}
	}
}

func (suite *ManagerTestSuite) waitStatus(id string, want types.PositionStatus) types.Position {
	var pos types.Position

	suite.Eventually(func() bool {
		p, err := suite.manager.Position(id)
		if err != nil {
			return false
		}

		pos = p

		return p.Status == want
	}, 2*time.Second, 5*time.Millisecond)

	return pos
}

func (suite *ManagerTestSuite) TestRejectedDecisionRefused() {
	d := suite.decision(optional.None[float64](), optional.None[float64]())
	d.Action = types.DecisionReject

	_, err := suite.manager.OpenFromSignal(context.Background(), d)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSignal))
}

func (suite *ManagerTestSuite) TestOpenAndFill() {
	id, err := suite.manager.OpenFromSignal(context.Background(), suite.decision(optional.None[float64](), optional.None[float64]()))
	suite.Require().NoError(err)

	pos := suite.waitStatus(id, types.PositionStatusOpen)
	suite.InDelta(10.0, pos.Legs[0].FilledQuantity, 1e-9)
	suite.InDelta(445.00, pos.Legs[0].AvgEntryPrice, 1e-9)
	suite.False(pos.OpenedAt.IsZero())

	ev := suite.waitEvent(types.PositionEventOpened)
	suite.Equal(id, ev.PositionID)
	suite.NotEmpty(ev.SignalID)
	suite.Equal(1, suite.manager.OpenCount())
}

func (suite *ManagerTestSuite) TestStopLossClosesPosition() {
	id, err := suite.manager.OpenFromSignal(context.Background(),
		suite.decision(optional.Some(440.00), optional.None[float64]()))
	suite.Require().NoError(err)

	suite.waitStatus(id, types.PositionStatusOpen)

	// Price through the stop triggers a market close of the open quantity.
	suite.gw.SetReferencePrice("SPY", 439.00)
	suite.Require().NoError(suite.store.Update(types.Tick{
		Symbol:    "SPY",
		Price:     439.00,
		Timestamp: suite.base.Add(time.Second),
	}))

	pos := suite.waitStatus(id, types.PositionStatusClosed)
	suite.InDelta(439.00, pos.Legs[0].AvgExitPrice, 1e-9)

	ev := suite.waitEvent(types.PositionEventClosed)
	suite.Equal(types.OrderReasonStopLoss, ev.Reason)
	suite.InDelta(-60.0, ev.RealizedPnL, 1e-9)
	suite.Equal(0, suite.manager.OpenCount())
}

func (suite *ManagerTestSuite) TestProfitTargetClosesPosition() {
	id, err := suite.manager.OpenFromSignal(context.Background(),
		suite.decision(optional.None[float64](), optional.Some(450.00)))
	suite.Require().NoError(err)

	suite.waitStatus(id, types.PositionStatusOpen)

	suite.gw.SetReferencePrice("SPY", 451.00)
	suite.Require().NoError(suite.store.Update(types.Tick{
		Symbol:    "SPY",
		Price:     451.00,
		Timestamp: suite.base.Add(time.Second),
	}))

	suite.waitStatus(id, types.PositionStatusClosed)

	ev := suite.waitEvent(types.PositionEventClosed)
	suite.Equal(types.OrderReasonTakeProfit, ev.Reason)
	suite.InDelta(60.0, ev.RealizedPnL, 1e-9)
}

func (suite *ManagerTestSuite) TestAdjustProtection() {
	id, err := suite.manager.OpenFromSignal(context.Background(),
		suite.decision(optional.Some(440.00), optional.None[float64]()))
	suite.Require().NoError(err)

	suite.waitStatus(id, types.PositionStatusOpen)

	suite.Require().NoError(suite.manager.AdjustProtection(id,
		optional.Some(443.00), optional.Some(448.00)))

	pos, err := suite.manager.Position(id)
	suite.Require().NoError(err)
	suite.Equal(types.PositionStatusOpen, pos.Status)
	suite.InDelta(443.00, pos.StopLoss.Unwrap(), 1e-9)
	suite.InDelta(448.00, pos.ProfitTarget.Unwrap(), 1e-9)

	// The tightened stop now fires where the original would not have.
	suite.gw.SetReferencePrice("SPY", 442.00)
	suite.Require().NoError(suite.store.Update(types.Tick{
		Symbol:    "SPY",
		Price:     442.00,
		Timestamp: suite.base.Add(time.Second),
	}))

	suite.waitStatus(id, types.PositionStatusClosed)
}

func (suite *ManagerTestSuite) TestAdjustRejectedWhilePendingOpen() {
	// A never-filling gateway keeps the position in PendingOpen.
	gw := gateway.NewSimGateway(gateway.SimConfig{FillDelay: time.Minute}, logger.NewNopLogger())
	manager := NewManager(Config{FillTimeout: time.Minute}, suite.store, gw, logger.NewNopLogger())
	manager.Start(context.Background())

	defer manager.Stop()

	id, err := manager.OpenFromSignal(context.Background(), suite.decision(optional.None[float64](), optional.None[float64]()))
	suite.Require().NoError(err)

	err = manager.AdjustProtection(id, optional.Some(400.00), optional.None[float64]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTransition))
}

func (suite *ManagerTestSuite) TestManualClose() {
	id, err := suite.manager.OpenFromSignal(context.Background(), suite.decision(optional.None[float64](), optional.None[float64]()))
	suite.Require().NoError(err)

	suite.waitStatus(id, types.PositionStatusOpen)
	suite.Require().NoError(suite.manager.Close(id, types.OrderReasonLiquidation))
	suite.waitStatus(id, types.PositionStatusClosed)
}

func (suite *ManagerTestSuite) TestLiquidateAll() {
	var ids []string

	for i := 0; i < 3; i++ {
		id, err := suite.manager.OpenFromSignal(context.Background(), suite.decision(optional.None[float64](), optional.None[float64]()))
		suite.Require().NoError(err)

		ids = append(ids, id)
	}

	for _, id := range ids {
		suite.waitStatus(id, types.PositionStatusOpen)
	}

	suite.manager.LiquidateAll(types.OrderReasonLiquidation)

	for _, id := range ids {
		suite.waitStatus(id, types.PositionStatusClosed)
	}

	suite.Equal(0, suite.manager.OpenCount())
}

func (suite *ManagerTestSuite) TestLiquidationUnwindsPendingPosition() {
	// A never-filling gateway keeps the position in PendingOpen when the
	// liquidation arrives.
	gw := gateway.NewSimGateway(gateway.SimConfig{FillDelay: time.Minute}, logger.NewNopLogger())
	manager := NewManager(Config{FillTimeout: time.Minute}, suite.store, gw, logger.NewNopLogger())
	manager.Start(context.Background())

	defer manager.Stop()

	id, err := manager.OpenFromSignal(context.Background(), suite.decision(optional.None[float64](), optional.None[float64]()))
	suite.Require().NoError(err)

	manager.LiquidateAll(types.OrderReasonLiquidation)

	// Nothing filled, so the unwind cancels the working order and fails the
	// position instead of leaving it to fill after the liquidation.
	var pos types.Position

	suite.Eventually(func() bool {
		p, perr := manager.Position(id)
		if perr != nil {
			return false
		}

		pos = p

		return p.Status == types.PositionStatusFailed
	}, 2*time.Second, 5*time.Millisecond)

	suite.InDelta(0.0, pos.Legs[0].FilledQuantity, 1e-9)
	suite.Equal(0, manager.OpenCount())
}

func (suite *ManagerTestSuite) TestFillTimeoutUnwindsPartialFill() {
	// Half the order fills, the rest never arrives; the short timeout then
	// unwinds the filled half and fails the position.
	gw := gateway.NewSimGateway(gateway.SimConfig{PartialFills: 2, PartialOnly: true}, logger.NewNopLogger())
	gw.SetReferencePrice("SPY", 445.00)

	manager := NewManager(Config{FillTimeout: 200 * time.Millisecond}, suite.store, gw, logger.NewNopLogger())
	manager.Start(context.Background())

	defer func() {
		manager.Stop()
		gw.Close()
	}()

	id, err := manager.OpenFromSignal(context.Background(), suite.decision(optional.None[float64](), optional.None[float64]()))
	suite.Require().NoError(err)

	var pos types.Position

	suite.Eventually(func() bool {
		p, perr := manager.Position(id)
		if perr != nil {
			return false
		}

		pos = p

		return p.Status == types.PositionStatusFailed
	}, 3*time.Second, 10*time.Millisecond)

	suite.InDelta(5.0, pos.Legs[0].FilledQuantity, 1e-9)
	suite.InDelta(5.0, pos.Legs[0].ClosedQuantity, 1e-9)
	suite.Equal(0, manager.OpenCount())
}

func (suite *ManagerTestSuite) TestTerminalEventsSurviveFullBuffer() {
	// A one-slot event buffer forces terminal sends to wait for the
	// consumer; every close must still be delivered.
	manager := NewManager(Config{FillTimeout: time.Minute, EventBuffer: 1}, suite.store, suite.gw, logger.NewNopLogger())
	manager.Start(context.Background())

	defer manager.Stop()

	var ids []string

	for i := 0; i < 3; i++ {
		id, err := manager.OpenFromSignal(context.Background(), suite.decision(optional.None[float64](), optional.None[float64]()))
		suite.Require().NoError(err)

		ids = append(ids, id)
	}

	for _, id := range ids {
		suite.Eventually(func() bool {
			p, err := manager.Position(id)

			return err == nil && p.Status == types.PositionStatusOpen
		}, 2*time.Second, 5*time.Millisecond)
		suite.Require().NoError(manager.Close(id, types.OrderReasonLiquidation))
	}

	closed := map[string]bool{}
	timeout := time.After(3 * time.Second)

	for len(closed) < 3 {
		select {
		case ev := <-manager.Events():
			if ev.Type == types.PositionEventClosed {
				closed[ev.PositionID] = true
			}
		case <-timeout:
			suite.FailNowf("timeout", "only %d of 3 closed events delivered", len(closed))
		}
	}

	for _, id := range ids {
		suite.True(closed[id])
	}
}

func (suite *ManagerTestSuite) TestImmediateFillsRaceFillTimer() {
	// Fills and the fill timer race each other; every position must still
	// settle into a coherent state with its timer accounted for.
	manager := NewManager(Config{FillTimeout: time.Millisecond}, suite.store, suite.gw, logger.NewNopLogger())
	manager.Start(context.Background())

	defer manager.Stop()

	var ids []string

	for i := 0; i < 10; i++ {
		id, err := manager.OpenFromSignal(context.Background(), suite.decision(optional.None[float64](), optional.None[float64]()))
		suite.Require().NoError(err)

		ids = append(ids, id)
	}

	for _, id := range ids {
		suite.Eventually(func() bool {
			p, err := manager.Position(id)
			if err != nil {
				return false
			}

			return p.Status == types.PositionStatusOpen || p.Status.IsTerminal()
		}, 3*time.Second, 5*time.Millisecond)
	}
}

func (suite *ManagerTestSuite) TestRejectedOpenFailsPosition() {
	gw := gateway.NewSimGateway(gateway.SimConfig{RejectAll: true}, logger.NewNopLogger())
	manager := NewManager(Config{FillTimeout: time.Minute}, suite.store, gw, logger.NewNopLogger())
	manager.Start(context.Background())

	defer func() {
		manager.Stop()
		gw.Close()
	}()

	id, err := manager.OpenFromSignal(context.Background(), suite.decision(optional.None[float64](), optional.None[float64]()))
	suite.Require().NoError(err)

	suite.Eventually(func() bool {
		p, perr := manager.Position(id)

		return perr == nil && p.Status == types.PositionStatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func (suite *ManagerTestSuite) TestCloseTerminalPositionRejected() {
	id, err := suite.manager.OpenFromSignal(context.Background(), suite.decision(optional.None[float64](), optional.None[float64]()))
	suite.Require().NoError(err)

	suite.waitStatus(id, types.PositionStatusOpen)
	suite.Require().NoError(suite.manager.Close(id, types.OrderReasonLiquidation))
	suite.waitStatus(id, types.PositionStatusClosed)

	err = suite.manager.Close(id, types.OrderReasonLiquidation)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTransition))
}
