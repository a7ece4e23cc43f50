package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

type SimGatewayTestSuite struct {
	suite.Suite
}

func TestSimGatewaySuite(t *testing.T) {
	suite.Run(t, new(SimGatewayTestSuite))
}

func (suite *SimGatewayTestSuite) order(qty float64) types.Order {
	return types.Order{
		ID:         uuid.New().String(),
		PositionID: uuid.New().String(),
		Action:     types.OrderActionOpen,
		Symbol:     "SPY",
		Side:       types.PurchaseTypeBuy,
		OrderType:  types.OrderTypeMarket,
		Quantity:   qty,
		Status:     types.OrderStatusPending,
		Reason:     types.Reason{Reason: types.OrderReasonSignal},
	}
}

func collectFills(gw *SimGateway, want int) (chan types.Fill, func() []types.Fill) {
	ch := make(chan types.Fill, want*2)
	gw.OnFill(func(f types.Fill) { ch <- f })

	return ch, func() []types.Fill {
		var out []types.Fill

		timeout := time.After(2 * time.Second)

		for len(out) < want {
			select {
			case f := <-ch:
				out = append(out, f)
			case <-timeout:
				return out
			}
		}

		return out
	}
}

func (suite *SimGatewayTestSuite) TestSingleFullFill() {
	gw := NewSimGateway(SimConfig{}, logger.NewNopLogger())
	defer gw.Close()

	gw.SetReferencePrice("SPY", 445.00)

	_, wait := collectFills(gw, 1)

	ord := suite.order(10)
	brokerID, err := gw.SubmitOrder(context.Background(), ord)
	suite.Require().NoError(err)
	suite.NotEmpty(brokerID)

	fills := wait()
	suite.Require().Len(fills, 1)
	suite.Equal(ord.ID, fills[0].OrderID)
	suite.Equal(brokerID, fills[0].BrokerID)
	suite.InDelta(445.00, fills[0].Price, 1e-9)
	suite.InDelta(10.0, fills[0].Quantity, 1e-9)
}

func (suite *SimGatewayTestSuite) TestPartialFillsSumToQuantity() {
	gw := NewSimGateway(SimConfig{PartialFills: 3}, logger.NewNopLogger())
	defer gw.Close()

	gw.SetReferencePrice("SPY", 445.00)

	_, wait := collectFills(gw, 3)

	_, err := gw.SubmitOrder(context.Background(), suite.order(10))
	suite.Require().NoError(err)

	fills := wait()
	suite.Require().Len(fills, 3)

	var total float64
	for _, f := range fills {
		total += f.Quantity
	}

	suite.InDelta(10.0, total, 1e-9)
}

func (suite *SimGatewayTestSuite) TestPartialOnlyWithholdsFinalSlice() {
	gw := NewSimGateway(SimConfig{PartialFills: 2, PartialOnly: true}, logger.NewNopLogger())
	defer gw.Close()

	gw.SetReferencePrice("SPY", 445.00)

	ch, _ := collectFills(gw, 1)

	_, err := gw.SubmitOrder(context.Background(), suite.order(10))
	suite.Require().NoError(err)

	select {
	case f := <-ch:
		suite.InDelta(5.0, f.Quantity, 1e-9)
	case <-time.After(2 * time.Second):
		suite.FailNow("expected one partial fill")
	}

	select {
	case <-ch:
		suite.FailNow("final slice should be withheld")
	case <-time.After(100 * time.Millisecond):
	}
}

func (suite *SimGatewayTestSuite) TestLimitOrderFillsAtLimit() {
	gw := NewSimGateway(SimConfig{}, logger.NewNopLogger())
	defer gw.Close()

	_, wait := collectFills(gw, 1)

	ord := suite.order(5)
	ord.OrderType = types.OrderTypeLimit
	ord.LimitPrice = 440.00

	_, err := gw.SubmitOrder(context.Background(), ord)
	suite.Require().NoError(err)

	fills := wait()
	suite.Require().Len(fills, 1)
	suite.InDelta(440.00, fills[0].Price, 1e-9)
}

func (suite *SimGatewayTestSuite) TestSlippageMovesAgainstSide() {
	gw := NewSimGateway(SimConfig{Slippage: 0.001}, logger.NewNopLogger())
	defer gw.Close()

	gw.SetReferencePrice("SPY", 100.00)

	_, wait := collectFills(gw, 2)

	buy := suite.order(1)
	_, err := gw.SubmitOrder(context.Background(), buy)
	suite.Require().NoError(err)

	sell := suite.order(1)
	sell.Side = types.PurchaseTypeSell
	_, err = gw.SubmitOrder(context.Background(), sell)
	suite.Require().NoError(err)

	fills := wait()
	suite.Require().Len(fills, 2)

	byOrder := map[string]float64{}
	for _, f := range fills {
		byOrder[f.OrderID] = f.Price
	}

	suite.InDelta(100.10, byOrder[buy.ID], 1e-9)
	suite.InDelta(99.90, byOrder[sell.ID], 1e-9)
}

func (suite *SimGatewayTestSuite) TestRejectAll() {
	gw := NewSimGateway(SimConfig{RejectAll: true}, logger.NewNopLogger())
	defer gw.Close()

	var (
		mu       sync.Mutex
		rejected []string
	)

	gw.OnStatus(func(orderID string, status types.OrderStatus, reason string) {
		mu.Lock()
		defer mu.Unlock()

		if status == types.OrderStatusRejected {
			rejected = append(rejected, orderID)
		}
	})

	ord := suite.order(1)
	_, err := gw.SubmitOrder(context.Background(), ord)
	suite.Require().NoError(err)

	suite.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(rejected) == 1 && rejected[0] == ord.ID
	}, 2*time.Second, 10*time.Millisecond)
}

func (suite *SimGatewayTestSuite) TestCancelWorkingOrder() {
	// A long fill delay keeps the order working while we cancel it.
	gw := NewSimGateway(SimConfig{FillDelay: time.Minute}, logger.NewNopLogger())

	var (
		mu        sync.Mutex
		cancelled string
	)

	gw.OnStatus(func(orderID string, status types.OrderStatus, reason string) {
		mu.Lock()
		defer mu.Unlock()

		if status == types.OrderStatusCancelled {
			cancelled = orderID
		}
	})
	gw.OnFill(func(types.Fill) {})

	ord := suite.order(1)
	brokerID, err := gw.SubmitOrder(context.Background(), ord)
	suite.Require().NoError(err)

	suite.Require().NoError(gw.CancelOrder(context.Background(), brokerID))

	mu.Lock()
	suite.Equal(ord.ID, cancelled)
	mu.Unlock()

	err = gw.CancelOrder(context.Background(), brokerID)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeOrderNotFound))
}

func (suite *SimGatewayTestSuite) TestSubmitAfterClose() {
	gw := NewSimGateway(SimConfig{}, logger.NewNopLogger())
	gw.Close()

	_, err := gw.SubmitOrder(context.Background(), suite.order(1))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBrokerUnavailable))
}
