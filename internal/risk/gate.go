// Package risk implements the synchronous gate between signal generation and
// order placement. Every accepted signal reserves capacity inside the gate's
// critical section, so two concurrent signals can never both pass against the
// same remaining headroom.
package risk

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

// clock abstracts time for deterministic latency-budget tests.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Gate applies the ordered risk checks to each signal: halt, expiry,
// concentration, open-position count, daily loss. The first failing check
// rejects and its reason is recorded; checks after the first failure do not
// run.
type Gate struct {
	log *logger.Logger

	mu     sync.Mutex
	limits types.RiskLimits
	clock  clock

	// marketTime maps a symbol to the latest observed market timestamp.
	// Expiry is judged against market time so replayed and simulated
	// sessions gate exactly like live ones.
	marketTime func(symbol string) time.Time

	sessionDate   string
	dailyPnL      float64
	reservedLoss  float64
	openPositions int
	concentration map[string]float64
	reservations  map[string]reservation

	halted     bool
	haltReason types.HaltReason
	haltedAt   time.Time

	onHalt func(reason types.HaltReason)
}

// reservation tracks the capacity held by one accepted signal until its
// position reaches a terminal state.
type reservation struct {
	symbol   string
	maxLoss  float64
	notional float64
}

// NewGate creates a gate with the given limits. The limits must already be
// validated.
func NewGate(limits types.RiskLimits, log *logger.Logger) *Gate {
	return &Gate{
		log:           log,
		limits:        limits,
		clock:         realClock{},
		concentration: make(map[string]float64),
		reservations:  make(map[string]reservation),
	}
}

// SetMarketTimeSource wires the logical clock used for signal expiry. When
// unset, the wall clock is used.
func (g *Gate) SetMarketTimeSource(fn func(symbol string) time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.marketTime = fn
}

// SetHaltHandler registers a callback invoked outside the gate lock whenever
// a halt engages. The position manager uses it to start liquidation when
// configured.
func (g *Gate) SetHaltHandler(fn func(reason types.HaltReason)) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.onHalt = fn
}

// Process gates one signal. The whole check-and-reserve sequence runs under
// the gate lock; callers from multiple goroutines serialize here.
func (g *Gate) Process(sig types.Signal) types.RiskDecision {
	start := g.clock.Now()

	g.mu.Lock()

	decision := types.RiskDecision{
		SignalID: sig.ID,
		Symbol:   sig.Symbol,
		Strategy: sig.Strategy,
		Action:   types.DecisionAccept,
		Signal:   sig,
	}

	reason := g.evaluate(sig, start)
	if reason == types.RejectReasonNone {
		g.reserve(sig)
	}

	now := g.clock.Now()
	elapsed := now.Sub(start)

	// The budget check runs last: a decision that took too long is rejected
	// even if every other check passed, and any reservation just taken is
	// rolled back.
	if elapsed > g.limits.DecisionBudget {
		if reason == types.RejectReasonNone {
			g.release(sig.ID)
		}

		reason = types.RejectReasonBudget
	}

	if reason != types.RejectReasonNone {
		decision.Action = types.DecisionReject
		decision.Reason = reason
	}

	decision.Elapsed = elapsed
	decision.DecidedAt = now

	g.mu.Unlock()

	if decision.Accepted() {
		g.log.Debug("signal accepted",
			zap.String("signal_id", sig.ID),
			zap.String("symbol", sig.Symbol),
			zap.Duration("elapsed", elapsed))
	} else {
		g.log.Info("signal rejected",
			zap.String("signal_id", sig.ID),
			zap.String("symbol", sig.Symbol),
			zap.String("reason", string(decision.Reason)),
			zap.Duration("elapsed", elapsed))
	}

	return decision
}

// evaluate runs the ordered checks and returns the first failure. Caller
// holds the lock.
func (g *Gate) evaluate(sig types.Signal, now time.Time) types.RejectReason {
	if g.halted {
		return types.RejectReasonHalted
	}

	expiryRef := now
	if g.marketTime != nil {
		if t := g.marketTime(sig.Symbol); !t.IsZero() {
			expiryRef = t
		}
	}

	if sig.Expired(expiryRef) {
		return types.RejectReasonExpired
	}

	if g.concentration[sig.Symbol]+sig.Risk.Notional > g.limits.MaxConcentration {
		return types.RejectReasonConcentration
	}

	if g.openPositions+1 > g.limits.MaxOpenPositions {
		return types.RejectReasonPositionLimit
	}

	if -g.dailyPnL+g.reservedLoss+sig.Risk.MaxLoss > g.limits.DailyLossLimit {
		return types.RejectReasonDailyLoss
	}

	return types.RejectReasonNone
}

// reserve holds capacity for an accepted signal. Caller holds the lock.
func (g *Gate) reserve(sig types.Signal) {
	g.reservations[sig.ID] = reservation{
		symbol:   sig.Symbol,
		maxLoss:  sig.Risk.MaxLoss,
		notional: sig.Risk.Notional,
	}
	g.concentration[sig.Symbol] += sig.Risk.Notional
	g.reservedLoss += sig.Risk.MaxLoss
	g.openPositions++
}

// release returns the capacity held by a signal. Caller holds the lock.
func (g *Gate) release(signalID string) {
	res, ok := g.reservations[signalID]
	if !ok {
		return
	}

	delete(g.reservations, signalID)

	g.concentration[res.symbol] -= res.notional
	if g.concentration[res.symbol] <= 0 {
		delete(g.concentration, res.symbol)
	}

	g.reservedLoss -= res.maxLoss
	g.openPositions--
}

// ObservePositionEvent feeds lifecycle transitions back into the gate's
// bookkeeping. Terminal events release the originating signal's reservation;
// closed events additionally settle realized P&L against the daily loss
// limit.
func (g *Gate) ObservePositionEvent(signalID string, event types.PositionEvent) {
	var haltFired types.HaltReason

	g.mu.Lock()

	switch event.Type {
	case types.PositionEventClosed, types.PositionEventFailed:
		g.release(signalID)
		g.dailyPnL += event.RealizedPnL

		// A failed unwind realizes losses too; the breach check runs on
		// every terminal event.
		if -g.dailyPnL > g.limits.DailyLossLimit && !g.halted {
			g.haltLocked(types.HaltReasonDailyLoss)
			haltFired = types.HaltReasonDailyLoss
		}
	}

	onHalt := g.onHalt
	g.mu.Unlock()

	if haltFired != "" && onHalt != nil {
		onHalt(haltFired)
	}
}

// ObserveRegime engages an emergency halt when the correlation regime
// escalates to emergency. Lower regimes never clear a halt; recovery is an
// explicit administrative action.
func (g *Gate) ObserveRegime(state *types.CorrelationState) {
	if state == nil || state.Regime != types.RegimeEmergency {
		return
	}

	g.mu.Lock()

	fired := false
	if !g.halted {
		g.haltLocked(types.HaltReasonRegime)
		fired = true
	}

	onHalt := g.onHalt
	g.mu.Unlock()

	if fired && onHalt != nil {
		onHalt(types.HaltReasonRegime)
	}
}

// TriggerHalt engages an administrative halt.
func (g *Gate) TriggerHalt() {
	g.mu.Lock()

	fired := false
	if !g.halted {
		g.haltLocked(types.HaltReasonAdmin)
		fired = true
	}

	onHalt := g.onHalt
	g.mu.Unlock()

	if fired && onHalt != nil {
		onHalt(types.HaltReasonAdmin)
	}
}

// haltLocked flips the gate into the halted state. Caller holds the lock.
func (g *Gate) haltLocked(reason types.HaltReason) {
	g.halted = true
	g.haltReason = reason
	g.haltedAt = g.clock.Now()

	g.log.Warn("risk halt engaged", zap.String("reason", string(reason)))
}

// ClearHalt lifts a halt. Only an operator calls this.
func (g *Gate) ClearHalt() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.halted {
		return
	}

	g.halted = false
	g.haltReason = ""
	g.haltedAt = time.Time{}

	g.log.Info("risk halt cleared")
}

// Halted reports the current halt state.
func (g *Gate) Halted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.halted
}

// UpdateLimits replaces the active limits. Existing reservations are kept;
// the new limits apply to every subsequent signal.
func (g *Gate) UpdateLimits(limits types.RiskLimits) error {
	if err := limits.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.limits = limits

	return nil
}

// Limits returns a copy of the active limits.
func (g *Gate) Limits() types.RiskLimits {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.limits
}

// ResetSession rolls the bookkeeping into a new trading session. Open
// reservations survive the roll; realized P&L starts from zero.
func (g *Gate) ResetSession(date string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sessionDate = date
	g.dailyPnL = 0
}

// StateSnapshot returns a copy of the gate's bookkeeping for the query
// surface.
func (g *Gate) StateSnapshot() types.RiskStateSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	conc := make(map[string]float64, len(g.concentration))
	for k, v := range g.concentration {
		conc[k] = v
	}

	return types.RiskStateSnapshot{
		SessionDate:   g.sessionDate,
		DailyPnL:      g.dailyPnL,
		ReservedLoss:  g.reservedLoss,
		OpenPositions: g.openPositions,
		Concentration: conc,
		Halted:        g.halted,
		HaltReason:    g.haltReason,
		HaltedAt:      g.haltedAt,
	}
}

// DecisionError converts a rejection into a typed error for callers that
// want error semantics instead of a decision struct.
func DecisionError(d types.RiskDecision) error {
	if d.Accepted() {
		return nil
	}

	return errors.Newf(d.Reason.ErrorCode(), "signal %s rejected: %s", d.SignalID, d.Reason)
}
