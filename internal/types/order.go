package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vega-lab/vega-trading/pkg/errors"
)

type OrderStatus string

type OrderAction string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusSubmitted       OrderStatus = "SUBMITTED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusFailed          OrderStatus = "FAILED"
)

const (
	// OrderActionOpen establishes a position leg.
	OrderActionOpen OrderAction = "OPEN"
	// OrderActionAdjust resizes an existing leg or moves its protection levels.
	OrderActionAdjust OrderAction = "ADJUST"
	// OrderActionClose unwinds a leg as part of a normal close.
	OrderActionClose OrderAction = "CLOSE"
	// OrderActionUnwind closes filled legs after a partial-fill timeout.
	OrderActionUnwind OrderAction = "UNWIND"
)

const (
	OrderReasonSignal      string = "signal"
	OrderReasonStopLoss    string = "stop_loss"
	OrderReasonTakeProfit  string = "take_profit"
	OrderReasonLiquidation string = "liquidation"
	OrderReasonUnwind      string = "partial_fill_unwind"
	OrderReasonAdjustment  string = "adjustment"
)

// Reason records why an order was created, for the audit trail.
type Reason struct {
	Reason  string `yaml:"reason" json:"reason" validate:"required"`
	Message string `yaml:"message" json:"message"`
}

// Order is a child of exactly one position. Orders are created and cancelled
// only by the position manager; status is advanced only by execution gateway
// callbacks routed through the position's state machine.
type Order struct {
	ID         string      `yaml:"id" json:"id" validate:"required,uuid"`
	PositionID string      `yaml:"position_id" json:"position_id" validate:"required,uuid"`
	// LegIndex references the position leg this order works.
	LegIndex  int          `yaml:"leg_index" json:"leg_index" validate:"gte=0"`
	Action    OrderAction  `yaml:"action" json:"action" validate:"required,oneof=OPEN ADJUST CLOSE UNWIND"`
	Symbol    string       `yaml:"symbol" json:"symbol" validate:"required"`
	Side      PurchaseType `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	OrderType OrderType    `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET LIMIT"`
	Quantity  float64      `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	LimitPrice float64     `yaml:"limit_price" json:"limit_price" validate:"gte=0"`
	Status    OrderStatus  `yaml:"status" json:"status"`
	// BrokerID is the gateway-assigned identifier, set after submission.
	BrokerID       string    `yaml:"broker_id" json:"broker_id"`
	FilledQuantity float64   `yaml:"filled_quantity" json:"filled_quantity"`
	AvgFillPrice   float64   `yaml:"avg_fill_price" json:"avg_fill_price"`
	SubmittedAt    time.Time `yaml:"submitted_at" json:"submitted_at"`
	Reason         Reason    `yaml:"reason" json:"reason" validate:"required"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() float64 {
	rem := o.Quantity - o.FilledQuantity
	if rem < 0 {
		return 0
	}

	return rem
}

// IsTerminal reports whether the order can no longer change state.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusFailed:
		return true
	default:
		return false
	}
}

// Fill is an execution report delivered by the gateway for one order.
type Fill struct {
	OrderID   string    `json:"order_id"`
	BrokerID  string    `json:"broker_id"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}
