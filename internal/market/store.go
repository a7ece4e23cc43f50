// Package market implements the market state store: the single source of
// truth for per-symbol snapshots and the rolling correlation/regime estimate.
//
// Writers (feed ingestion) and the correlation recompute loop never block each
// other: snapshots are replaced under a short lock and handed out as copies,
// and the correlation state is published as a fresh immutable instance via an
// atomic pointer swap.
package market

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

// Default configuration values.
const (
	DefaultReturnWindow      = 120
	DefaultRecomputeInterval = 5 * time.Second
)

// RegimeThresholds configures regime classification from realized volatility
// (standard deviation of per-tick log returns) and mean absolute correlation.
type RegimeThresholds struct {
	ElevatedVol  float64 `yaml:"elevated_vol" json:"elevated_vol"`
	HighVol      float64 `yaml:"high_vol" json:"high_vol"`
	EmergencyVol float64 `yaml:"emergency_vol" json:"emergency_vol"`
	// EmergencyCorrelation promotes high-volatility to emergency when mean
	// absolute pairwise correlation reaches this level.
	EmergencyCorrelation float64 `yaml:"emergency_correlation" json:"emergency_correlation"`
}

// DefaultRegimeThresholds returns the thresholds used when none are configured.
func DefaultRegimeThresholds() RegimeThresholds {
	return RegimeThresholds{
		ElevatedVol:          0.002,
		HighVol:              0.005,
		EmergencyVol:         0.010,
		EmergencyCorrelation: 0.85,
	}
}

// Config configures the market state store.
type Config struct {
	// ReturnWindow is the number of log returns kept per symbol for the
	// correlation estimate.
	ReturnWindow int `yaml:"return_window" json:"return_window"`
	// RecomputeInterval is the cadence of the correlation recompute loop.
	RecomputeInterval time.Duration `yaml:"recompute_interval" json:"recompute_interval"`
	// Thresholds configures regime classification.
	Thresholds RegimeThresholds `yaml:"thresholds" json:"thresholds"`
}

// Store holds the latest snapshot per symbol and the atomically published
// correlation state. Ingestion is safe from multiple concurrent producers.
type Store struct {
	log *logger.Logger
	cfg Config

	mu        sync.RWMutex
	symbols   map[string]types.Symbol
	snapshots map[string]types.MarketSnapshot
	returns   map[string]*returnWindow

	corr atomic.Pointer[types.CorrelationState]

	subMu   sync.Mutex
	subs    map[int]chan types.MarketSnapshot
	nextSub int
}

// NewStore creates a store for the given registered symbols.
func NewStore(symbols []types.Symbol, cfg Config, log *logger.Logger) *Store {
	if cfg.ReturnWindow <= 0 {
		cfg.ReturnWindow = DefaultReturnWindow
	}

	if cfg.RecomputeInterval <= 0 {
		cfg.RecomputeInterval = DefaultRecomputeInterval
	}

	if cfg.Thresholds == (RegimeThresholds{}) {
		cfg.Thresholds = DefaultRegimeThresholds()
	}

	s := &Store{
		log:       log,
		cfg:       cfg,
		symbols:   make(map[string]types.Symbol, len(symbols)),
		snapshots: make(map[string]types.MarketSnapshot, len(symbols)),
		returns:   make(map[string]*returnWindow, len(symbols)),
		subs:      make(map[int]chan types.MarketSnapshot),
	}

	names := make([]string, 0, len(symbols))

	for _, sym := range symbols {
		s.symbols[sym.Ticker] = sym
		s.returns[sym.Ticker] = newReturnWindow(cfg.ReturnWindow)
		names = append(names, sym.Ticker)
	}

	sort.Strings(names)

	// Publish an initial normal-regime state so readers never observe nil.
	s.corr.Store(&types.CorrelationState{
		Symbols:    names,
		Matrix:     identityMatrix(len(names)),
		Regime:     types.RegimeNormal,
		Window:     0,
		ComputedAt: time.Time{},
	})

	return s
}

// Symbol returns the static metadata for a registered symbol.
func (s *Store) Symbol(ticker string) (types.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sym, ok := s.symbols[ticker]
	if !ok {
		return types.Symbol{}, errors.Newf(errors.ErrCodeUnknownSymbol, "symbol %s not registered", ticker)
	}

	return sym, nil
}

// Update applies a tick to the per-symbol snapshot. Ticks older than the
// currently held snapshot are rejected with ErrCodeStaleTick; equal timestamps
// are accepted so multiple producers with coarse clocks do not starve.
func (s *Store) Update(tick types.Tick) error {
	s.mu.Lock()

	sym, ok := s.symbols[tick.Symbol]
	if !ok {
		s.mu.Unlock()

		return errors.Newf(errors.ErrCodeUnknownSymbol, "symbol %s not registered", tick.Symbol)
	}

	prev, exists := s.snapshots[tick.Symbol]
	if exists && tick.Timestamp.Before(prev.Timestamp) {
		s.mu.Unlock()

		return errors.Newf(errors.ErrCodeStaleTick,
			"tick for %s at %s older than stored snapshot at %s",
			tick.Symbol, tick.Timestamp.Format(time.RFC3339Nano), prev.Timestamp.Format(time.RFC3339Nano))
	}

	snap := types.MarketSnapshot{
		Symbol:    tick.Symbol,
		LastPrice: tick.Price,
		Bid:       tick.Bid,
		Ask:       tick.Ask,
		Volume:    prev.Volume + tick.Volume,
		Timestamp: tick.Timestamp,
		ChainRef:  sym.ChainRef,
	}

	s.snapshots[tick.Symbol] = snap

	if tick.Price > 0 {
		s.returns[tick.Symbol].Append(tick.Price)
	}

	s.mu.Unlock()

	s.publish(snap)

	return nil
}

// Snapshot returns a copy of the latest snapshot for the symbol.
func (s *Store) Snapshot(symbol string) (types.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[symbol]
	if !ok {
		return types.MarketSnapshot{}, errors.Newf(errors.ErrCodeSnapshotNotFound, "no snapshot for symbol %s", symbol)
	}

	return snap, nil
}

// Snapshots returns copies of all current snapshots, ordered by symbol.
func (s *Store) Snapshots() []types.MarketSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.MarketSnapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })

	return out
}

// CorrelationState returns the latest atomically published correlation state.
// The returned instance is immutable and must not be modified.
func (s *Store) CorrelationState() *types.CorrelationState {
	return s.corr.Load()
}

// Subscribe registers a snapshot subscriber with the given channel buffer.
// Delivery is best-effort: updates are dropped when the buffer is full so a
// slow subscriber can never block ingestion. The returned function cancels
// the subscription.
func (s *Store) Subscribe(buffer int) (<-chan types.MarketSnapshot, func()) {
	if buffer <= 0 {
		buffer = 1
	}

	ch := make(chan types.MarketSnapshot, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()

		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

func (s *Store) publish(snap types.MarketSnapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			s.log.Warn("dropping snapshot update for slow subscriber",
				zap.String("symbol", snap.Symbol),
			)
		}
	}
}

// Recompute rebuilds the correlation matrix and regime from the current
// return windows and publishes a fresh immutable state. Exposed so tests and
// replay drivers can recompute on demand.
func (s *Store) Recompute(now time.Time) *types.CorrelationState {
	s.mu.RLock()

	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}

	sort.Strings(names)

	series := make([][]float64, len(names))
	for i, name := range names {
		series[i] = s.returns[name].Values()
	}

	s.mu.RUnlock()

	state := computeCorrelationState(names, series, s.cfg.ReturnWindow, s.cfg.Thresholds, now)
	s.corr.Store(state)

	if state.Regime != types.RegimeNormal {
		s.log.Warn("market regime escalated",
			zap.String("regime", string(state.Regime)),
			zap.Float64("mean_abs_correlation", state.MeanAbsCorrelation()),
		)
	}

	return state
}

// RunRecompute runs the correlation recompute loop until the context is
// cancelled. It never blocks tick ingestion.
func (s *Store) RunRecompute(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RecomputeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Recompute(now)
		}
	}
}

// returnWindow is a fixed-capacity ring of log returns.
type returnWindow struct {
	capacity  int
	values    []float64
	lastPrice float64
}

func newReturnWindow(capacity int) *returnWindow {
	return &returnWindow{
		capacity: capacity,
		values:   make([]float64, 0, capacity),
	}
}

// Append records the log return from the previous price to the given one.
// The first price only seeds the window.
func (w *returnWindow) Append(price float64) {
	if w.lastPrice > 0 {
		r := math.Log(price / w.lastPrice)

		if len(w.values) == w.capacity {
			copy(w.values, w.values[1:])
			w.values[w.capacity-1] = r
		} else {
			w.values = append(w.values, r)
		}
	}

	w.lastPrice = price
}

// Values returns a chronological copy of the recorded returns.
func (w *returnWindow) Values() []float64 {
	out := make([]float64, len(w.values))
	copy(out, w.values)

	return out
}

func identityMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}

	return m
}
