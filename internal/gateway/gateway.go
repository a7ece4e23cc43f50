// Package gateway defines the execution boundary. The position manager talks
// to brokers exclusively through the ExecutionGateway interface; fills and
// terminal order updates flow back through a registered handler.
package gateway

import (
	"context"

	"github.com/vega-lab/vega-trading/internal/types"
)

// FillHandler receives execution reports. The gateway may invoke it from its
// own goroutines; implementations route the fill to the owning position's
// worker rather than mutating state inline.
type FillHandler func(fill types.Fill)

// StatusHandler receives terminal order updates that carry no fill, such as
// rejections and cancellations.
type StatusHandler func(orderID string, status types.OrderStatus, reason string)

// ExecutionGateway is the broker-facing surface. SubmitOrder returns the
// broker-assigned identifier; delivery of fills is asynchronous.
type ExecutionGateway interface {
	// SubmitOrder places an order and returns the broker order id.
	SubmitOrder(ctx context.Context, order types.Order) (string, error)
	// CancelOrder cancels a working order by broker id.
	CancelOrder(ctx context.Context, brokerID string) error
	// OnFill registers the fill handler. Must be called before SubmitOrder.
	OnFill(handler FillHandler)
	// OnStatus registers the terminal-status handler.
	OnStatus(handler StatusHandler)
}
