// Package feed provides market data sources for the engine: the Polygon
// websocket for live trading, a deterministic simulator, and audit-log
// replay. Every source yields ticks through the same iterator shape.
package feed

import (
	"context"
	"iter"

	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

// FeedType selects a market data source.
type FeedType string

const (
	FeedPolygon FeedType = "polygon"
	FeedSim     FeedType = "sim"
	FeedReplay  FeedType = "replay"
)

// Feed streams ticks until the context is cancelled or the source is
// exhausted. The iterator yields tick and error pairs; a non-nil error does
// not necessarily end the stream.
type Feed interface {
	Stream(ctx context.Context, symbols []string) iter.Seq2[types.Tick, error]
}

// Config selects and configures a feed.
type Config struct {
	Type FeedType `yaml:"type" json:"type" validate:"required,oneof=polygon sim replay"`
	// APIKey authenticates the polygon feed.
	APIKey string `yaml:"api_key" json:"api_key"`
	// Sim configures the simulated feed.
	Sim SimFeedConfig `yaml:"sim" json:"sim"`
	// ReplayPath is the audit database file to replay.
	ReplayPath string `yaml:"replay_path" json:"replay_path"`
}

// New builds a feed from config. Replay feeds are constructed separately
// because they borrow an open audit store.
func New(cfg Config) (Feed, error) {
	switch cfg.Type {
	case FeedPolygon:
		return NewPolygonFeed(cfg.APIKey)
	case FeedSim:
		return NewSimFeed(cfg.Sim), nil
	default:
		return nil, errors.Newf(errors.ErrCodeFeedUnavailable, "unsupported feed type %s", cfg.Type)
	}
}
