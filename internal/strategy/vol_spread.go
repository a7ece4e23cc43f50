package strategy

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"github.com/vega-lab/vega-trading/internal/indicator"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/internal/version"
)

// VolSpreadConfig configures the volatility spread strategy.
type VolSpreadConfig struct {
	// Window is the realized-volatility return window.
	Window int `yaml:"window" json:"window" validate:"required,gt=1"`
	// EMAPeriod smooths the reference price used for spread placement.
	EMAPeriod int `yaml:"ema_period" json:"ema_period" validate:"required,gt=0"`
	// VolEntry is the realized volatility (per-tick stddev of log returns)
	// above which the strategy sells premium.
	VolEntry float64 `yaml:"vol_entry" json:"vol_entry" validate:"required,gt=0"`
	// Width is the fractional distance between the short and long legs.
	Width float64 `yaml:"width" json:"width" validate:"required,gt=0,lt=1"`
	// Quantity is the number of spreads per signal.
	Quantity float64 `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	// TTL bounds signal lifetime; measured from the snapshot timestamp.
	TTL time.Duration `yaml:"ttl" json:"ttl" validate:"required,gt=0"`
	// CooldownTicks is the minimum number of evaluations between two signals
	// for the same symbol.
	CooldownTicks int `yaml:"cooldown_ticks" json:"cooldown_ticks" validate:"gte=0"`
}

type volSpreadSymbolState struct {
	vol           *indicator.RealizedVol
	ema           *indicator.EMA
	sinceLastFire int
	fired         bool
}

// VolSpread sells a defined-risk two-leg spread when realized volatility is
// rich but the regime has not escalated beyond elevated. The long leg caps
// the loss at the spread width.
type VolSpread struct {
	name     string
	cfg      VolSpreadConfig
	registry indicator.Registry
	state    map[string]*volSpreadSymbolState
}

// NewVolSpread creates a volatility spread strategy from a validated config.
func NewVolSpread(name string, cfg VolSpreadConfig, registry indicator.Registry) *VolSpread {
	return &VolSpread{
		name:     name,
		cfg:      cfg,
		registry: registry,
		state:    make(map[string]*volSpreadSymbolState),
	}
}

// Name returns the unique strategy name.
func (s *VolSpread) Name() string {
	return s.name
}

// APIVersion returns the strategy API version the implementation targets.
func (s *VolSpread) APIVersion() string {
	return version.StrategyAPIVersion
}

func (s *VolSpread) symbolState(symbol string) (*volSpreadSymbolState, error) {
	st, ok := s.state[symbol]
	if ok {
		return st, nil
	}

	vol, err := s.registry.New(indicator.IndicatorTypeRealizedVol, s.cfg.Window)
	if err != nil {
		return nil, err
	}

	ema, err := s.registry.New(indicator.IndicatorTypeEMA, s.cfg.EMAPeriod)
	if err != nil {
		return nil, err
	}

	st = &volSpreadSymbolState{
		vol: vol.(*indicator.RealizedVol),
		ema: ema.(*indicator.EMA),
	}
	s.state[symbol] = st

	return st, nil
}

// Evaluate updates the per-symbol indicators and emits a two-leg spread when
// realized volatility clears the entry level in a calm-enough regime.
func (s *VolSpread) Evaluate(view MarketView) (optional.Option[types.Signal], error) {
	snap := view.Snapshot

	st, err := s.symbolState(snap.Symbol)
	if err != nil {
		return optional.None[types.Signal](), err
	}

	st.vol.Update(snap.LastPrice)
	st.ema.Update(snap.LastPrice)

	if st.fired {
		st.sinceLastFire++
	}

	if !st.vol.Ready() || !st.ema.Ready() {
		return optional.None[types.Signal](), nil
	}

	if view.Correlation != nil && view.Correlation.Regime.Severity() > types.RegimeElevated.Severity() {
		return optional.None[types.Signal](), nil
	}

	if st.fired && st.sinceLastFire < s.cfg.CooldownTicks {
		return optional.None[types.Signal](), nil
	}

	vol, err := st.vol.Value()
	if err != nil {
		return optional.None[types.Signal](), err
	}

	if vol < s.cfg.VolEntry {
		return optional.None[types.Signal](), nil
	}

	ref, err := st.ema.Value()
	if err != nil {
		return optional.None[types.Signal](), err
	}

	st.fired = true
	st.sinceLastFire = 0

	shortStrike := ref * (1 + s.cfg.Width)
	longStrike := ref * (1 + 2*s.cfg.Width)
	maxLoss := (longStrike - shortStrike) * s.cfg.Quantity

	sig := types.Signal{
		ID:          uuid.New().String(),
		Symbol:      snap.Symbol,
		Strategy:    s.name,
		Confidence:  clampConfidence(0.5 + (vol-s.cfg.VolEntry)/s.cfg.VolEntry),
		GeneratedAt: snap.Timestamp,
		ExpiresAt:   snap.Timestamp.Add(s.cfg.TTL),
		Legs: []types.SignalLeg{
			{
				Symbol:     snap.Symbol,
				Side:       types.PurchaseTypeSell,
				OrderType:  types.OrderTypeLimit,
				Quantity:   s.cfg.Quantity,
				LimitPrice: shortStrike,
			},
			{
				Symbol:     snap.Symbol,
				Side:       types.PurchaseTypeBuy,
				OrderType:  types.OrderTypeLimit,
				Quantity:   s.cfg.Quantity,
				LimitPrice: longStrike,
			},
		},
		Risk: types.RiskMetrics{
			MaxLoss:  maxLoss,
			Notional: shortStrike * s.cfg.Quantity,
		},
		Reason: fmt.Sprintf("realized vol %.5f over entry %.5f", vol, s.cfg.VolEntry),
	}

	return optional.Some(sig), nil
}
