// Package signal evaluates registered strategies against market updates and
// aggregates the emitted signals into a single ordered stream for the risk
// gate.
package signal

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/market"
	"github.com/vega-lab/vega-trading/internal/strategy"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

const defaultOutputBuffer = 256

// Engine drives strategy evaluation. Each market snapshot is offered to all
// registered strategies in registration order; resulting signals are ordered
// by generation time with registration index as the tie break, so an
// identical snapshot stream always yields an identical signal stream.
type Engine struct {
	log      *logger.Logger
	store    *market.Store
	registry *strategy.Registry
	out      chan types.Signal
}

// NewEngine creates a signal engine over the given store and strategy
// registry.
func NewEngine(log *logger.Logger, store *market.Store, registry *strategy.Registry) *Engine {
	return &Engine{
		log:      log,
		store:    store,
		registry: registry,
		out:      make(chan types.Signal, defaultOutputBuffer),
	}
}

// Signals returns the ordered output stream. The channel is closed when Run
// returns.
func (e *Engine) Signals() <-chan types.Signal {
	return e.out
}

// Run subscribes to market updates and evaluates strategies until the
// context is cancelled. It is the only goroutine that touches strategy
// working state, so strategies never need their own locking.
func (e *Engine) Run(ctx context.Context) error {
	if e.registry.Len() == 0 {
		return errors.New(errors.ErrCodeEngineNoStrategies, "no strategies registered")
	}

	updates, cancel := e.store.Subscribe(defaultOutputBuffer)
	defer cancel()
	defer close(e.out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}

			for _, sig := range e.Evaluate(snap) {
				select {
				case e.out <- sig:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// Evaluate offers one snapshot to every strategy and returns the emitted
// signals ordered by generation time, then registration index. Signals that
// are already expired relative to the snapshot time and signals that fail
// validation are dropped with a log line.
func (e *Engine) Evaluate(snap types.MarketSnapshot) []types.Signal {
	view := strategy.MarketView{
		Snapshot:    snap,
		Correlation: e.store.CorrelationState(),
	}

	type ranked struct {
		sig   types.Signal
		index int
	}

	var emitted []ranked

	for idx, s := range e.registry.Strategies() {
		opt, err := s.Evaluate(view)
		if err != nil {
			e.log.Error("strategy evaluation failed",
				zap.String("strategy", s.Name()),
				zap.String("symbol", snap.Symbol),
				zap.Error(err))

			continue
		}

		if opt.IsNone() {
			continue
		}

		sig := opt.Unwrap()

		if err := sig.Validate(); err != nil {
			e.log.Error("strategy emitted invalid signal",
				zap.String("strategy", s.Name()),
				zap.String("signal_id", sig.ID),
				zap.Error(err))

			continue
		}

		if sig.Expired(snap.Timestamp) {
			e.log.Warn("dropping expired signal",
				zap.String("strategy", s.Name()),
				zap.String("signal_id", sig.ID),
				zap.Time("expires_at", sig.ExpiresAt))

			continue
		}

		emitted = append(emitted, ranked{sig: sig, index: idx})
	}

	sort.SliceStable(emitted, func(i, j int) bool {
		if !emitted[i].sig.GeneratedAt.Equal(emitted[j].sig.GeneratedAt) {
			return emitted[i].sig.GeneratedAt.Before(emitted[j].sig.GeneratedAt)
		}

		return emitted[i].index < emitted[j].index
	})

	out := make([]types.Signal, len(emitted))
	for i, r := range emitted {
		out[i] = r.sig
	}

	return out
}
