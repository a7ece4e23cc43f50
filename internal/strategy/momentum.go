package strategy

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/internal/version"
)

// MomentumConfig configures the single-tick momentum strategy.
type MomentumConfig struct {
	// Threshold is the fractional single-tick up-move a signal must strictly
	// exceed (0.004 = 0.4%).
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"required,gt=0"`
	// Quantity is the number of units per signal leg.
	Quantity float64 `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	// TTL bounds signal lifetime; measured from the snapshot timestamp.
	TTL time.Duration `yaml:"ttl" json:"ttl" validate:"required,gt=0"`
	// StopLossPct places the stop below the entry price (0.01 = 1%).
	StopLossPct float64 `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"gte=0,lt=1"`
	// ProfitTargetPct places the target above the entry price.
	ProfitTargetPct float64 `yaml:"profit_target_pct" json:"profit_target_pct" validate:"gte=0"`
}

// Momentum fires a long signal when a symbol moves up more than the
// configured threshold in a single tick. Its only working state is the
// previous observed price per symbol.
type Momentum struct {
	name      string
	cfg       MomentumConfig
	lastPrice map[string]float64
}

// NewMomentum creates a momentum strategy from a validated config.
func NewMomentum(name string, cfg MomentumConfig) *Momentum {
	return &Momentum{
		name:      name,
		cfg:       cfg,
		lastPrice: make(map[string]float64),
	}
}

// Name returns the unique strategy name.
func (s *Momentum) Name() string {
	return s.name
}

// APIVersion returns the strategy API version the implementation targets.
func (s *Momentum) APIVersion() string {
	return version.StrategyAPIVersion
}

// Evaluate fires on an up-move exceeding the threshold relative to the
// previous tick. Confidence scales with the overshoot and saturates at 2x
// the threshold.
func (s *Momentum) Evaluate(view MarketView) (optional.Option[types.Signal], error) {
	snap := view.Snapshot

	prev, seen := s.lastPrice[snap.Symbol]
	s.lastPrice[snap.Symbol] = snap.LastPrice

	if !seen || prev <= 0 || snap.LastPrice <= 0 {
		return optional.None[types.Signal](), nil
	}

	// The trigger is strict: a move landing exactly on the threshold does
	// not fire.
	move := (snap.LastPrice - prev) / prev
	if move <= s.cfg.Threshold {
		return optional.None[types.Signal](), nil
	}

	confidence := clampConfidence(move / (2 * s.cfg.Threshold))

	sig := types.Signal{
		ID:          uuid.New().String(),
		Symbol:      snap.Symbol,
		Strategy:    s.name,
		Confidence:  confidence,
		GeneratedAt: snap.Timestamp,
		ExpiresAt:   snap.Timestamp.Add(s.cfg.TTL),
		Legs: []types.SignalLeg{
			{
				Symbol:    snap.Symbol,
				Side:      types.PurchaseTypeBuy,
				OrderType: types.OrderTypeMarket,
				Quantity:  s.cfg.Quantity,
			},
		},
		Risk: types.RiskMetrics{
			MaxLoss:  snap.LastPrice * s.cfg.Quantity * s.cfg.StopLossPct,
			Notional: snap.LastPrice * s.cfg.Quantity,
		},
		Reason: fmt.Sprintf("up-move %.4f over threshold %.4f", move, s.cfg.Threshold),
	}

	if s.cfg.StopLossPct > 0 {
		sig.StopLoss = optional.Some(snap.LastPrice * (1 - s.cfg.StopLossPct))
	}

	if s.cfg.ProfitTargetPct > 0 {
		sig.ProfitTarget = optional.Some(snap.LastPrice * (1 + s.cfg.ProfitTargetPct))
	}

	return optional.Some(sig), nil
}
