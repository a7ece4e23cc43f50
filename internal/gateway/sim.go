package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

// SimConfig controls the simulated broker's behavior.
type SimConfig struct {
	// FillDelay is the latency between submission and the first fill.
	FillDelay time.Duration `yaml:"fill_delay" json:"fill_delay"`
	// PartialFills splits every order into this many fills. Zero or one
	// means a single full fill.
	PartialFills int `yaml:"partial_fills" json:"partial_fills"`
	// PartialOnly delivers all but the final fill slice of opening orders,
	// leaving them stuck partially filled. Closing and unwind orders still
	// fill completely. Used to exercise fill-timeout handling.
	PartialOnly bool `yaml:"partial_only" json:"partial_only"`
	// RejectAll rejects every submission.
	RejectAll bool `yaml:"reject_all" json:"reject_all"`
	// Slippage shifts fills against the order side by this fraction of the
	// reference price.
	Slippage float64 `yaml:"slippage" json:"slippage"`
}

// SimGateway is an in-process broker used by tests, replay, and the
// simulated trading mode. Fill prices derive from the order's limit price or,
// for market orders, the configured reference price per symbol.
type SimGateway struct {
	log *logger.Logger
	cfg SimConfig

	mu       sync.Mutex
	refPrice map[string]float64
	working  map[string]types.Order
	onFill   FillHandler
	onStatus StatusHandler

	wg     sync.WaitGroup
	closed bool
}

// NewSimGateway creates a simulated gateway.
func NewSimGateway(cfg SimConfig, log *logger.Logger) *SimGateway {
	return &SimGateway{
		log:      log,
		cfg:      cfg,
		refPrice: make(map[string]float64),
		working:  make(map[string]types.Order),
	}
}

// SetReferencePrice sets the fill price used for market orders on a symbol.
func (g *SimGateway) SetReferencePrice(symbol string, price float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.refPrice[symbol] = price
}

// OnFill registers the fill handler.
func (g *SimGateway) OnFill(handler FillHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.onFill = handler
}

// OnStatus registers the terminal-status handler.
func (g *SimGateway) OnStatus(handler StatusHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.onStatus = handler
}

// SubmitOrder accepts the order and schedules its fills.
func (g *SimGateway) SubmitOrder(ctx context.Context, order types.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeBrokerUnavailable, "submit cancelled", err)
	}

	g.mu.Lock()

	if g.closed {
		g.mu.Unlock()

		return "", errors.New(errors.ErrCodeBrokerUnavailable, "gateway closed")
	}

	brokerID := uuid.New().String()

	if g.cfg.RejectAll {
		onStatus := g.onStatus
		g.mu.Unlock()

		if onStatus != nil {
			g.wg.Add(1)

			go func() {
				defer g.wg.Done()

				onStatus(order.ID, types.OrderStatusRejected, "rejected by simulation")
			}()
		}

		return brokerID, nil
	}

	price := g.fillPrice(order)
	g.working[brokerID] = order
	onFill := g.onFill
	g.mu.Unlock()

	g.log.Debug("sim order accepted",
		zap.String("order_id", order.ID),
		zap.String("broker_id", brokerID),
		zap.String("symbol", order.Symbol),
		zap.Float64("quantity", order.Quantity))

	if onFill != nil {
		g.wg.Add(1)

		go g.deliverFills(order, brokerID, price, onFill)
	}

	return brokerID, nil
}

// fillPrice resolves the execution price for an order. Caller holds the lock.
func (g *SimGateway) fillPrice(order types.Order) float64 {
	price := order.LimitPrice
	if order.OrderType == types.OrderTypeMarket {
		price = g.refPrice[order.Symbol]
	}

	if g.cfg.Slippage > 0 {
		if order.Side == types.PurchaseTypeBuy {
			price *= 1 + g.cfg.Slippage
		} else {
			price *= 1 - g.cfg.Slippage
		}
	}

	return price
}

func (g *SimGateway) deliverFills(order types.Order, brokerID string, price float64, onFill FillHandler) {
	defer g.wg.Done()

	if g.cfg.FillDelay > 0 {
		time.Sleep(g.cfg.FillDelay)
	}

	slices := g.cfg.PartialFills
	if slices <= 1 {
		slices = 1
	}

	deliver := slices
	if g.cfg.PartialOnly && slices > 1 && order.Action == types.OrderActionOpen {
		deliver = slices - 1
	}

	per := order.Quantity / float64(slices)

	for i := 0; i < deliver; i++ {
		qty := per
		if i == slices-1 {
			// Absorb rounding on the final slice.
			qty = order.Quantity - per*float64(slices-1)
		}

		g.mu.Lock()
		closed := g.closed
		g.mu.Unlock()

		if closed {
			return
		}

		onFill(types.Fill{
			OrderID:   order.ID,
			BrokerID:  brokerID,
			Price:     price,
			Quantity:  qty,
			Timestamp: time.Now(),
		})
	}
}

// CancelOrder cancels a working order and reports the cancellation.
func (g *SimGateway) CancelOrder(ctx context.Context, brokerID string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeBrokerUnavailable, "cancel aborted", err)
	}

	g.mu.Lock()

	order, ok := g.working[brokerID]
	if !ok {
		g.mu.Unlock()

		return errors.Newf(errors.ErrCodeOrderNotFound, "unknown broker order %s", brokerID)
	}

	delete(g.working, brokerID)
	onStatus := g.onStatus
	g.mu.Unlock()

	if onStatus != nil {
		onStatus(order.ID, types.OrderStatusCancelled, "cancelled")
	}

	return nil
}

// Close stops fill delivery and waits for in-flight deliveries to drain.
func (g *SimGateway) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()
}
