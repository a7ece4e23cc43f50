package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

type PositionStatus string

const (
	PositionStatusPendingOpen PositionStatus = "PENDING_OPEN"
	PositionStatusOpen        PositionStatus = "OPEN"
	PositionStatusAdjusting   PositionStatus = "ADJUSTING"
	PositionStatusClosing     PositionStatus = "CLOSING"
	PositionStatusClosed      PositionStatus = "CLOSED"
	PositionStatusFailed      PositionStatus = "FAILED"
)

// IsTerminal reports whether the position has reached a final state.
func (s PositionStatus) IsTerminal() bool {
	return s == PositionStatusClosed || s == PositionStatusFailed
}

// PositionLeg tracks one component of a multi-leg position.
type PositionLeg struct {
	Symbol string       `yaml:"symbol" json:"symbol"`
	Side   PurchaseType `yaml:"side" json:"side"`
	// Multiplier is the contract multiplier copied from symbol metadata.
	Multiplier int `yaml:"multiplier" json:"multiplier"`
	// Quantity is the target quantity from the execution plan.
	Quantity float64 `yaml:"quantity" json:"quantity"`
	// FilledQuantity is the opened quantity confirmed by fills.
	FilledQuantity float64 `yaml:"filled_quantity" json:"filled_quantity"`
	AvgEntryPrice  float64 `yaml:"avg_entry_price" json:"avg_entry_price"`
	// ClosedQuantity is the quantity unwound by close/unwind fills.
	ClosedQuantity float64 `yaml:"closed_quantity" json:"closed_quantity"`
	AvgExitPrice   float64 `yaml:"avg_exit_price" json:"avg_exit_price"`
}

// FullyFilled reports whether the leg's open orders are completely filled.
func (l *PositionLeg) FullyFilled() bool {
	return l.FilledQuantity >= l.Quantity
}

// FullyClosed reports whether everything that was filled has been unwound.
func (l *PositionLeg) FullyClosed() bool {
	return l.FilledQuantity > 0 && l.ClosedQuantity >= l.FilledQuantity
}

// RealizedPnL computes the leg's realized profit over its closed quantity.
// Long legs profit when exit exceeds entry; short legs the opposite.
func (l *PositionLeg) RealizedPnL() decimal.Decimal {
	if l.ClosedQuantity == 0 {
		return decimal.Zero
	}

	entry := decimal.NewFromFloat(l.AvgEntryPrice)
	exit := decimal.NewFromFloat(l.AvgExitPrice)
	qty := decimal.NewFromFloat(l.ClosedQuantity)
	mult := decimal.NewFromInt(int64(l.Multiplier))

	diff := exit.Sub(entry)
	if l.Side == PurchaseTypeSell {
		diff = entry.Sub(exit)
	}

	return diff.Mul(qty).Mul(mult)
}

// Position represents a live or historical multi-leg holding. It is owned
// exclusively by the position manager and mutated only through the lifecycle
// state machine; other components receive copies.
type Position struct {
	ID       string         `yaml:"id" json:"id"`
	Symbol   string         `yaml:"symbol" json:"symbol"`
	Strategy string         `yaml:"strategy" json:"strategy"`
	Legs     []PositionLeg  `yaml:"legs" json:"legs"`
	Status   PositionStatus `yaml:"status" json:"status"`
	OpenedAt time.Time      `yaml:"opened_at" json:"opened_at"`
	ClosedAt time.Time      `yaml:"closed_at" json:"closed_at"`
	Risk     RiskMetrics    `yaml:"risk" json:"risk"`
	StopLoss     optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	ProfitTarget optional.Option[float64] `yaml:"profit_target" json:"profit_target"`
}

// AllLegsFilled reports whether every leg's open orders are fully filled.
func (p *Position) AllLegsFilled() bool {
	for i := range p.Legs {
		if !p.Legs[i].FullyFilled() {
			return false
		}
	}

	return len(p.Legs) > 0
}

// AllLegsClosed reports whether every filled leg has been fully unwound.
// Legs that never filled do not block closure.
func (p *Position) AllLegsClosed() bool {
	for i := range p.Legs {
		if p.Legs[i].FilledQuantity > 0 && !p.Legs[i].FullyClosed() {
			return false
		}
	}

	return true
}

// RealizedPnL sums realized profit across all legs.
func (p *Position) RealizedPnL() decimal.Decimal {
	total := decimal.Zero
	for i := range p.Legs {
		total = total.Add(p.Legs[i].RealizedPnL())
	}

	return total
}

// UnrealizedPnL marks open leg quantity against the given underlying price.
func (p *Position) UnrealizedPnL(markPrice float64) decimal.Decimal {
	total := decimal.Zero
	mark := decimal.NewFromFloat(markPrice)

	for i := range p.Legs {
		leg := &p.Legs[i]

		openQty := leg.FilledQuantity - leg.ClosedQuantity
		if openQty <= 0 {
			continue
		}

		entry := decimal.NewFromFloat(leg.AvgEntryPrice)
		qty := decimal.NewFromFloat(openQty)
		mult := decimal.NewFromInt(int64(leg.Multiplier))

		diff := mark.Sub(entry)
		if leg.Side == PurchaseTypeSell {
			diff = entry.Sub(mark)
		}

		total = total.Add(diff.Mul(qty).Mul(mult))
	}

	return total
}

// Clone returns a deep copy safe to hand outside the position manager.
func (p *Position) Clone() Position {
	cp := *p
	cp.Legs = make([]PositionLeg, len(p.Legs))
	copy(cp.Legs, p.Legs)

	return cp
}

type PositionEventType string

const (
	PositionEventOpened    PositionEventType = "opened"
	PositionEventAdjusting PositionEventType = "adjusting"
	PositionEventAdjusted  PositionEventType = "adjusted"
	PositionEventClosing   PositionEventType = "closing"
	PositionEventClosed    PositionEventType = "closed"
	PositionEventFailed    PositionEventType = "failed"
)

// PositionEvent is emitted on every lifecycle transition and consumed by the
// risk gate to keep reserved capacity consistent with live positions.
type PositionEvent struct {
	PositionID  string            `json:"position_id"`
	Symbol      string            `json:"symbol"`
	Strategy    string            `json:"strategy"`
	Type        PositionEventType `json:"type"`
	Risk        RiskMetrics       `json:"risk"`
	RealizedPnL float64           `json:"realized_pnl"`
	Reason      string            `json:"reason"`
	OccurredAt  time.Time         `json:"occurred_at"`
}
