package feed

import (
	"context"
	"iter"
	"math/rand"
	"time"

	"github.com/vega-lab/vega-trading/internal/types"
)

// SimFeedConfig configures the deterministic simulated feed. The same seed
// and parameters always produce the same tick sequence.
type SimFeedConfig struct {
	// Seed drives the random walk.
	Seed int64 `yaml:"seed" json:"seed"`
	// StartPrices maps symbol to initial price. Symbols streamed without an
	// entry start at DefaultPrice.
	StartPrices map[string]float64 `yaml:"start_prices" json:"start_prices"`
	// DefaultPrice is the fallback initial price.
	DefaultPrice float64 `yaml:"default_price" json:"default_price"`
	// Volatility is the per-tick return standard deviation.
	Volatility float64 `yaml:"volatility" json:"volatility"`
	// Drift is the per-tick expected return.
	Drift float64 `yaml:"drift" json:"drift"`
	// Interval is the simulated time between consecutive ticks per symbol.
	Interval time.Duration `yaml:"interval" json:"interval"`
	// Count bounds the number of ticks per symbol; zero streams until the
	// context is cancelled.
	Count int `yaml:"count" json:"count"`
	// Start anchors the simulated timeline.
	Start time.Time `yaml:"start" json:"start"`
}

// SimFeed generates a seeded geometric random walk per symbol. Timestamps
// come from the simulated timeline, never the wall clock.
type SimFeed struct {
	cfg SimFeedConfig
}

// NewSimFeed creates a simulated feed.
func NewSimFeed(cfg SimFeedConfig) *SimFeed {
	if cfg.DefaultPrice <= 0 {
		cfg.DefaultPrice = 100.0
	}

	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.0005
	}

	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}

	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)
	}

	return &SimFeed{cfg: cfg}
}

// Stream yields ticks round-robin across the symbols.
func (f *SimFeed) Stream(ctx context.Context, symbols []string) iter.Seq2[types.Tick, error] {
	return func(yield func(types.Tick, error) bool) {
		rng := rand.New(rand.NewSource(f.cfg.Seed))

		prices := make(map[string]float64, len(symbols))
		for _, sym := range symbols {
			if p, ok := f.cfg.StartPrices[sym]; ok {
				prices[sym] = p
			} else {
				prices[sym] = f.cfg.DefaultPrice
			}
		}

		for i := 0; f.cfg.Count <= 0 || i < f.cfg.Count; i++ {
			at := f.cfg.Start.Add(time.Duration(i) * f.cfg.Interval)

			for _, sym := range symbols {
				if ctx.Err() != nil {
					return
				}

				move := f.cfg.Drift + f.cfg.Volatility*rng.NormFloat64()
				prices[sym] *= 1 + move

				tick := types.Tick{
					Symbol:    sym,
					Price:     prices[sym],
					Bid:       prices[sym] * 0.9999,
					Ask:       prices[sym] * 1.0001,
					Volume:    float64(100 + rng.Intn(900)),
					Timestamp: at,
				}

				if !yield(tick, nil) {
					return
				}
			}
		}
	}
}
