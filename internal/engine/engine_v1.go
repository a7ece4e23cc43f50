package engine

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vega-lab/vega-trading/internal/audit"
	"github.com/vega-lab/vega-trading/internal/gateway"
	"github.com/vega-lab/vega-trading/internal/indicator"
	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/market"
	"github.com/vega-lab/vega-trading/internal/metrics"
	"github.com/vega-lab/vega-trading/internal/position"
	"github.com/vega-lab/vega-trading/internal/risk"
	"github.com/vega-lab/vega-trading/internal/server"
	"github.com/vega-lab/vega-trading/internal/signal"
	"github.com/vega-lab/vega-trading/internal/strategy"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
	"github.com/vega-lab/vega-trading/pkg/feed"
)

// EngineV1 is the production pipeline. One goroutine per stage; stages hand
// off through channels and the engine owns their lifetimes.
type EngineV1 struct {
	cfg Config
	log *logger.Logger

	store    *market.Store
	registry *strategy.Registry
	signals  *signal.Engine
	gate     *risk.Gate
	manager  *position.Manager
	gw       gateway.ExecutionGateway
	feed     feed.Feed
	audit    *audit.Store
	metrics  *metrics.Metrics
	promReg  *prometheus.Registry
	server   *server.Server

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngineV1 assembles the pipeline from config. The execution gateway and
// feed can be replaced before Start via SetGateway and SetFeed; by default
// the engine trades against the simulated gateway.
func NewEngineV1(cfg Config, log *logger.Logger) (*EngineV1, error) {
	e := &EngineV1{
		cfg: cfg,
		log: log,
	}

	e.store = market.NewStore(cfg.Symbols, cfg.Market, log)

	e.registry = strategy.NewRegistry()
	if err := e.registerStrategies(); err != nil {
		return nil, err
	}

	e.signals = signal.NewEngine(log, e.store, e.registry)
	e.gate = risk.NewGate(cfg.Risk, log)
	e.gate.SetMarketTimeSource(func(symbol string) time.Time {
		snap, serr := e.store.Snapshot(symbol)
		if serr != nil {
			return time.Time{}
		}

		return snap.Timestamp
	})
	e.gw = gateway.NewSimGateway(gateway.SimConfig{}, log)
	e.metrics = metrics.New()
	e.promReg = prometheus.NewRegistry()

	if err := e.metrics.Register(e.promReg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to register metrics", err)
	}

	auditStore, err := audit.NewStore(cfg.Audit.Path, log)
	if err != nil {
		return nil, err
	}

	if err := auditStore.Initialize(); err != nil {
		return nil, err
	}

	e.audit = auditStore

	defaultFeed, err := feed.New(cfg.Feed)
	if err != nil && cfg.Feed.Type != feed.FeedReplay {
		return nil, err
	}

	if cfg.Feed.Type == feed.FeedReplay {
		replaySource, rerr := audit.NewStore(cfg.Feed.ReplayPath, log)
		if rerr != nil {
			return nil, rerr
		}

		defaultFeed = feed.NewReplayFeed(replaySource, 0)
	}

	e.feed = defaultFeed

	return e, nil
}

func (e *EngineV1) registerStrategies() error {
	indicators := indicator.NewRegistry()

	for _, sc := range e.cfg.Strategies {
		raw, err := RawStrategyConfig(sc.Config)
		if err != nil {
			return err
		}

		var s strategy.Strategy

		switch sc.Type {
		case "momentum":
			var cfg strategy.MomentumConfig
			if err := strategy.UnmarshalConfig(raw, &cfg); err != nil {
				return err
			}

			s = strategy.NewMomentum(sc.Name, cfg)
		case "vol_spread":
			var cfg strategy.VolSpreadConfig
			if err := strategy.UnmarshalConfig(raw, &cfg); err != nil {
				return err
			}

			s = strategy.NewVolSpread(sc.Name, cfg, indicators)
		default:
			return errors.Newf(errors.ErrCodeStrategyNotFound, "unknown strategy type %s", sc.Type)
		}

		if err := e.registry.Register(s); err != nil {
			return err
		}
	}

	return nil
}

// SetGateway replaces the execution gateway. Must be called before Start.
func (e *EngineV1) SetGateway(gw gateway.ExecutionGateway) {
	e.gw = gw
}

// SetFeed replaces the market data feed. Must be called before Start.
func (e *EngineV1) SetFeed(f feed.Feed) {
	e.feed = f
}

// Gate exposes the risk gate for the administrative surface.
func (e *EngineV1) Gate() *risk.Gate {
	return e.gate
}

// Store exposes the market state store.
func (e *EngineV1) Store() *market.Store {
	return e.store
}

// Manager exposes the position manager.
func (e *EngineV1) Manager() *position.Manager {
	return e.manager
}

// Audit exposes the audit store.
func (e *EngineV1) Audit() *audit.Store {
	return e.audit
}

// Start launches every pipeline stage and returns once they are running.
func (e *EngineV1) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return errors.New(errors.ErrCodeEngineAlreadyRunning, "engine already running")
	}

	if e.feed == nil {
		return errors.New(errors.ErrCodeEngineNoFeed, "no market data feed configured")
	}

	if e.gw == nil {
		return errors.New(errors.ErrCodeEngineNoGateway, "no execution gateway configured")
	}

	if e.registry.Len() == 0 {
		return errors.New(errors.ErrCodeEngineNoStrategies, "no strategies configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true

	e.gate.ResetSession(time.Now().UTC().Format("2006-01-02"))

	e.manager = position.NewManager(e.cfg.Position, e.store, e.gw, e.log)
	e.manager.Start(runCtx)

	e.gate.SetHaltHandler(func(reason types.HaltReason) {
		e.metrics.SetHalted(true)

		if e.cfg.Risk.LiquidateOnHalt {
			e.log.Warn("halt liquidation engaged", zap.String("reason", string(reason)))
			go e.manager.LiquidateAll(types.OrderReasonLiquidation)
		}
	})

	symbols := make([]string, len(e.cfg.Symbols))
	for i, s := range e.cfg.Symbols {
		symbols[i] = s.Ticker
	}

	// Feed intake.
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()

		e.runIntake(runCtx, symbols)
	}()

	// Correlation recompute and regime monitoring.
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()

		e.runRegimeMonitor(runCtx)
	}()

	// Strategy evaluation.
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()

		if err := e.signals.Run(runCtx); err != nil && runCtx.Err() == nil {
			e.log.Error("signal engine stopped", zap.Error(err))
		}
	}()

	// Risk gating, the single consumer of the signal stream.
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()

		e.runGating(runCtx)
	}()

	// Position event fan-in.
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()

		e.runEventLoop(runCtx)
	}()

	if e.cfg.Server.Enabled {
		e.server = server.New(e.cfg.Server.Addr, e.store, e.gate, e.manager, e.audit, e.promReg, e.log)

		e.wg.Add(1)

		go func() {
			defer e.wg.Done()

			if err := e.server.Start(); err != nil {
				e.log.Error("server stopped", zap.Error(err))
			}
		}()
	}

	e.log.Info("engine started",
		zap.Strings("symbols", symbols),
		zap.Int("strategies", e.registry.Len()),
		zap.String("feed", string(e.cfg.Feed.Type)))

	return nil
}

// runIntake pumps feed ticks into the market store and the audit trail.
func (e *EngineV1) runIntake(ctx context.Context, symbols []string) {
	// The in-process broker fills market orders at the reference price, so it
	// is marked to the tape as ticks arrive.
	sim, isSim := e.gw.(*gateway.SimGateway)

	for tick, err := range e.feed.Stream(ctx, symbols) {
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			e.log.Error("feed error", zap.Error(err))

			continue
		}

		if uerr := e.store.Update(tick); uerr != nil {
			cause := "unknown"

			switch {
			case errors.HasCode(uerr, errors.ErrCodeStaleTick):
				cause = "stale"
			case errors.HasCode(uerr, errors.ErrCodeUnknownSymbol):
				cause = "unknown_symbol"
			}

			e.metrics.TicksRejected.WithLabelValues(cause).Inc()

			continue
		}

		if isSim {
			sim.SetReferencePrice(tick.Symbol, tick.Price)
		}

		e.metrics.TicksIngested.WithLabelValues(tick.Symbol).Inc()

		if aerr := e.audit.WriteTick(tick); aerr != nil {
			e.log.Error("audit tick write failed", zap.Error(aerr))
		}
	}
}

// runRegimeMonitor recomputes correlation state on the configured cadence
// and feeds regime escalation into the risk gate.
func (e *EngineV1) runRegimeMonitor(ctx context.Context) {
	interval := e.cfg.Market.RecomputeInterval
	if interval <= 0 {
		interval = market.DefaultRecomputeInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			state := e.store.Recompute(now.UTC())
			e.metrics.RegimeSeverity.Set(float64(state.Regime.Severity()))
			e.gate.ObserveRegime(state)
		}
	}
}

// runGating consumes the ordered signal stream one signal at a time, so gate
// decisions are strictly sequential.
func (e *EngineV1) runGating(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-e.signals.Signals():
			if !ok {
				return
			}

			e.metrics.SignalsEmitted.WithLabelValues(sig.Strategy).Inc()

			if err := e.audit.WriteSignal(sig); err != nil {
				e.log.Error("audit signal write failed", zap.Error(err))
			}

			decision := e.gate.Process(sig)
			e.metrics.ObserveDecision(decision)

			if err := e.audit.WriteDecision(decision); err != nil {
				e.log.Error("audit decision write failed", zap.Error(err))
			}

			if !decision.Accepted() {
				continue
			}

			if _, err := e.manager.OpenFromSignal(ctx, decision); err != nil {
				e.log.Error("position open failed",
					zap.String("signal_id", decision.SignalID),
					zap.Error(err))
			}
		}
	}
}

// runEventLoop feeds position lifecycle events back into the risk gate and
// the audit trail.
func (e *EngineV1) runEventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-e.manager.Events():
			if !ok {
				return
			}

			e.gate.ObservePositionEvent(ev.SignalID, ev.PositionEvent)

			if err := e.audit.WritePositionEvent(ev.SignalID, ev.PositionEvent); err != nil {
				e.log.Error("audit event write failed", zap.Error(err))
			}

			e.metrics.OpenPositions.Set(float64(e.manager.OpenCount()))
			e.metrics.SetHalted(e.gate.Halted())

			if ev.Type == types.PositionEventClosed || ev.Type == types.PositionEventFailed {
				e.metrics.RealizedPnL.Set(e.gate.StateSnapshot().DailyPnL)
			}
		}
	}
}

// Stop cancels every stage and closes the audit store.
func (e *EngineV1) Stop() error {
	e.mu.Lock()

	if !e.running {
		e.mu.Unlock()

		return errors.New(errors.ErrCodeEngineNotInitialized, "engine not running")
	}

	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()

	if e.server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := e.server.Shutdown(shutdownCtx); err != nil {
			e.log.Error("server shutdown failed", zap.Error(err))
		}
	}

	e.wg.Wait()

	if e.manager != nil {
		e.manager.Stop()
	}

	if sim, ok := e.gw.(*gateway.SimGateway); ok {
		sim.Close()
	}

	err := e.audit.Close()

	e.log.Info("engine stopped")

	return err
}
