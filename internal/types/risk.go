package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vega-lab/vega-trading/pkg/errors"
)

// RiskLimits configures the risk gate. Limits may be replaced at runtime
// through the administrative surface; the gate applies the newest limits to
// every subsequent signal.
type RiskLimits struct {
	// MaxConcentration caps post-trade notional exposure per symbol.
	MaxConcentration float64 `yaml:"max_concentration" json:"max_concentration" validate:"required,gt=0"`
	// MaxOpenPositions caps post-trade non-terminal position count.
	MaxOpenPositions int `yaml:"max_open_positions" json:"max_open_positions" validate:"required,gt=0"`
	// DailyLossLimit is the maximum tolerated session loss, as a positive number.
	DailyLossLimit float64 `yaml:"daily_loss_limit" json:"daily_loss_limit" validate:"required,gt=0"`
	// DecisionBudget bounds per-signal gating latency; exceeding it rejects.
	DecisionBudget time.Duration `yaml:"decision_budget" json:"decision_budget" validate:"required,gt=0"`
	// LiquidateOnHalt instructs the position manager to unwind open positions
	// when an emergency halt engages.
	LiquidateOnHalt bool `yaml:"liquidate_on_halt" json:"liquidate_on_halt"`
}

// Validate validates the RiskLimits struct.
func (l *RiskLimits) Validate() error {
	validate := validator.New()
	if err := validate.Struct(l); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidLimits, "invalid risk limits", err)
	}

	return nil
}

type DecisionAction string

const (
	DecisionAccept DecisionAction = "accept"
	DecisionReject DecisionAction = "reject"
)

// RejectReason identifies which check failed first. Checks run in a fixed
// order so the reason is deterministic for a given state.
type RejectReason string

const (
	RejectReasonNone          RejectReason = ""
	RejectReasonHalted        RejectReason = "halted"
	RejectReasonExpired       RejectReason = "expired"
	RejectReasonConcentration RejectReason = "concentration_limit"
	RejectReasonPositionLimit RejectReason = "position_limit"
	RejectReasonDailyLoss     RejectReason = "daily_loss_limit"
	RejectReasonBudget        RejectReason = "budget_exceeded"
)

// ErrorCode maps the rejection reason onto the error taxonomy.
func (r RejectReason) ErrorCode() errors.ErrorCode {
	switch r {
	case RejectReasonHalted:
		return errors.ErrCodeRiskHalted
	case RejectReasonExpired:
		return errors.ErrCodeSignalExpired
	case RejectReasonConcentration:
		return errors.ErrCodeRiskConcentration
	case RejectReasonPositionLimit:
		return errors.ErrCodeRiskPositionLimit
	case RejectReasonDailyLoss:
		return errors.ErrCodeRiskDailyLoss
	case RejectReasonBudget:
		return errors.ErrCodeRiskBudget
	default:
		return errors.ErrCodeUnknown
	}
}

// RiskDecision is the gate's terminal verdict on a signal.
type RiskDecision struct {
	SignalID  string         `json:"signal_id"`
	Symbol    string         `json:"symbol"`
	Strategy  string         `json:"strategy"`
	Action    DecisionAction `json:"action"`
	Reason    RejectReason   `json:"reason"`
	Elapsed   time.Duration  `json:"elapsed"`
	DecidedAt time.Time      `json:"decided_at"`
	// Signal carries the accepted signal forward to the position manager.
	Signal Signal `json:"signal"`
}

// Accepted reports whether the signal passed the gate.
func (d RiskDecision) Accepted() bool {
	return d.Action == DecisionAccept
}

// HaltReason records what triggered an emergency halt.
type HaltReason string

const (
	HaltReasonAdmin     HaltReason = "administrative"
	HaltReasonRegime    HaltReason = "emergency_regime"
	HaltReasonDailyLoss HaltReason = "daily_loss_breach"
)

// RiskStateSnapshot is a read-only copy of the gate's internal bookkeeping,
// exposed on the query surface.
type RiskStateSnapshot struct {
	SessionDate string `json:"session_date"`
	// DailyPnL is the realized session P&L across closed positions.
	DailyPnL float64 `json:"daily_pnl"`
	// ReservedLoss is the summed max-loss of accepted, still-open positions.
	ReservedLoss float64 `json:"reserved_loss"`
	OpenPositions int `json:"open_positions"`
	// Concentration maps symbol to reserved notional exposure.
	Concentration map[string]float64 `json:"concentration"`
	Halted        bool               `json:"halted"`
	HaltReason    HaltReason         `json:"halt_reason"`
	HaltedAt      time.Time          `json:"halted_at"`
}
