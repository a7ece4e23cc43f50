package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/vega-lab/vega-trading/pkg/errors"
)

type PurchaseType string

type OrderType string

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// SignalLeg is one component order of a signal's execution plan. Legs are
// executed in slice order.
type SignalLeg struct {
	Symbol    string       `yaml:"symbol" json:"symbol" validate:"required"`
	Side      PurchaseType `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	OrderType OrderType    `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET LIMIT"`
	Quantity  float64      `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	// LimitPrice is required for LIMIT legs and ignored for MARKET legs.
	LimitPrice float64 `yaml:"limit_price" json:"limit_price" validate:"required_if=OrderType LIMIT,gte=0"`
}

// RiskMetrics carries the strategy's own risk assessment of a signal. The
// risk gate reserves capacity against MaxLoss and Notional on acceptance.
type RiskMetrics struct {
	// MaxLoss is the strategy's stated worst-case loss for the plan.
	MaxLoss float64 `yaml:"max_loss" json:"max_loss" validate:"gte=0"`
	// Notional is the total notional exposure the plan adds.
	Notional float64 `yaml:"notional" json:"notional" validate:"gte=0"`
}

// Signal is an immutable, time-bounded trade proposal emitted by a strategy.
// A signal is consumed exactly once by the risk gate: accepted, rejected, or
// expired. It is never mutated after creation and never retried.
type Signal struct {
	ID         string    `yaml:"id" json:"id" validate:"required,uuid"`
	Symbol     string    `yaml:"symbol" json:"symbol" validate:"required"`
	Strategy   string    `yaml:"strategy" json:"strategy" validate:"required"`
	Confidence float64   `yaml:"confidence" json:"confidence" validate:"gte=0,lte=1"`
	GeneratedAt time.Time `yaml:"generated_at" json:"generated_at" validate:"required"`
	ExpiresAt   time.Time `yaml:"expires_at" json:"expires_at" validate:"required"`
	// Legs is the ordered execution plan.
	Legs []SignalLeg `yaml:"legs" json:"legs" validate:"required,min=1,dive"`
	Risk RiskMetrics `yaml:"risk" json:"risk"`
	// Reason is a free-form explanation recorded in the audit trail.
	Reason string `yaml:"reason" json:"reason"`
	// StopLoss is the underlying price at which the resulting position should
	// be unwound. Unset when the strategy does not manage a stop.
	StopLoss optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	// ProfitTarget is the underlying price at which the resulting position
	// should take profit. Unset when the strategy does not manage a target.
	ProfitTarget optional.Option[float64] `yaml:"profit_target" json:"profit_target"`
}

// Validate validates the Signal struct.
func (s *Signal) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSignal, "invalid signal", err)
	}

	if !s.ExpiresAt.After(s.GeneratedAt) {
		return errors.Newf(errors.ErrCodeInvalidSignal, "signal %s expires at or before generation", s.ID)
	}

	return nil
}

// Expired reports whether the signal's deadline has passed at the given time.
func (s *Signal) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TimeToLive returns the remaining lifetime of the signal at the given time.
// Negative when already expired.
func (s *Signal) TimeToLive(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}
