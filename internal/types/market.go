package types

import "time"

// Tick is a single market data update delivered by a feed provider.
type Tick struct {
	Symbol    string    `yaml:"symbol" json:"symbol"`
	Price     float64   `yaml:"price" json:"price"`
	Bid       float64   `yaml:"bid" json:"bid"`
	Ask       float64   `yaml:"ask" json:"ask"`
	Volume    float64   `yaml:"volume" json:"volume"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
}

// MarketSnapshot is the latest per-symbol market state held by the market
// state store. Snapshots handed to downstream components are always copies;
// the store never exposes a live reference.
type MarketSnapshot struct {
	Symbol    string    `yaml:"symbol" json:"symbol"`
	LastPrice float64   `yaml:"last_price" json:"last_price"`
	Bid       float64   `yaml:"bid" json:"bid"`
	Ask       float64   `yaml:"ask" json:"ask"`
	// Volume is the cumulative session volume observed through Timestamp.
	Volume    float64   `yaml:"volume" json:"volume"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// ChainRef carries the options-chain reference of the symbol, if any.
	ChainRef string `yaml:"chain_ref" json:"chain_ref"`
}

// Mid returns the bid/ask midpoint, falling back to the last trade price when
// one side of the book is missing.
func (s MarketSnapshot) Mid() float64 {
	if s.Bid > 0 && s.Ask > 0 {
		return (s.Bid + s.Ask) / 2
	}

	return s.LastPrice
}

// Spread returns the bid/ask spread, or zero when either side is missing.
func (s MarketSnapshot) Spread() float64 {
	if s.Bid > 0 && s.Ask > 0 {
		return s.Ask - s.Bid
	}

	return 0
}
