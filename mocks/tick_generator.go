package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/vega-lab/vega-trading/internal/types"
)

// TickGenerator produces realistic tick streams for tests and benchmarks.
type TickGenerator struct {
	rng *rand.Rand
}

// NewTickGenerator creates a TickGenerator with the given seed. Use a fixed
// seed for reproducible results in tests.
func NewTickGenerator(seed int64) *TickGenerator {
	return &TickGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how ticks are generated.
type GeneratorConfig struct {
	// Symbol is the trading symbol (e.g. "SPY", "QQQ")
	Symbol string
	// StartTime is the timestamp of the first tick
	StartTime time.Time
	// Interval is the duration between consecutive ticks
	Interval time.Duration
	// Count is the number of ticks to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement per tick (0.002 = 0.2%)
	Volatility float64
	// Trend is the total drift across the series (-0.01 to 0.01)
	Trend float64
	// SpreadBps is the half-spread applied to bid and ask, in basis points
	SpreadBps float64
	// VolumeBase is the average volume per tick
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		StartTime:      time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC),
		Interval:       time.Second,
		Count:          10000,
		InitialPrice:   100.0,
		Volatility:     0.002,
		Trend:          0.0,
		SpreadBps:      1.0,
		VolumeBase:     1000,
		VolumeVariance: 0.3,
	}
}

// Generate creates a slice of ticks following a geometric Brownian motion
// model, so the series looks like a real intraday price path.
func (g *TickGenerator) Generate(config GeneratorConfig) []types.Tick {
	ticks := make([]types.Tick, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		// Box-Muller transform for normally distributed returns.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		price := currentPrice * (1 + config.Volatility*z + drift)
		if price <= 0 {
			price = currentPrice * 0.99 // Prevent negative prices
		}

		halfSpread := price * config.SpreadBps / 10_000

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		ticks[i] = types.Tick{
			Symbol:    config.Symbol,
			Price:     roundToDecimals(price, 4),
			Bid:       roundToDecimals(price-halfSpread, 4),
			Ask:       roundToDecimals(price+halfSpread, 4),
			Volume:    roundToDecimals(volume, 2),
			Timestamp: currentTime,
		}

		currentPrice = price
		currentTime = currentTime.Add(config.Interval)
	}

	return ticks
}

// GenerateMultiSymbol generates ticks for multiple symbols, interleaved in
// timestamp order the way a real feed delivers them.
func (g *TickGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) []types.Tick {
	series := make([][]types.Tick, len(symbols))

	for i, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		// Vary initial price and volatility slightly per symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		series[i] = g.Generate(config)
	}

	interleaved := make([]types.Tick, 0, len(symbols)*baseConfig.Count)
	for i := 0; i < baseConfig.Count; i++ {
		for s := range symbols {
			interleaved = append(interleaved, series[s][i])
		}
	}

	return interleaved
}

// Generate10K is a convenience function that generates 10,000 ticks with
// default settings for benchmarking.
func Generate10K(symbol string) []types.Tick {
	gen := NewTickGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Symbol = symbol
	config.Count = 10000

	return gen.Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
