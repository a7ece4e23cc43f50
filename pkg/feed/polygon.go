package feed

import (
	"context"
	"iter"
	"time"

	polygonws "github.com/polygon-io/client-go/websocket"
	"github.com/polygon-io/client-go/websocket/models"

	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

// PolygonWebSocketService abstracts the polygon websocket client so tests
// can inject a scripted connection.
type PolygonWebSocketService interface {
	Connect() error
	Subscribe(topic polygonws.Topic, tickers ...string) error
	Unsubscribe(topic polygonws.Topic, tickers ...string) error
	Output() <-chan any
	Error() <-chan error
	Close()
}

// PolygonFeed streams per-second equity aggregates from the Polygon
// websocket.
type PolygonFeed struct {
	ws PolygonWebSocketService
}

// NewPolygonFeed creates a live polygon feed.
func NewPolygonFeed(apiKey string) (*PolygonFeed, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon feed requires an api key")
	}

	ws, err := polygonws.New(polygonws.Config{
		APIKey: apiKey,
		Feed:   polygonws.RealTime,
		Market: polygonws.Stocks,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedUnavailable, "failed to create polygon websocket client", err)
	}

	return &PolygonFeed{ws: ws}, nil
}

// NewPolygonFeedWithWebSocket creates a polygon feed over an injected
// websocket service.
func NewPolygonFeedWithWebSocket(ws PolygonWebSocketService) *PolygonFeed {
	return &PolygonFeed{ws: ws}
}

// Stream connects, subscribes to second aggregates for the symbols, and
// yields one tick per aggregate close.
func (f *PolygonFeed) Stream(ctx context.Context, symbols []string) iter.Seq2[types.Tick, error] {
	return func(yield func(types.Tick, error) bool) {
		if len(symbols) == 0 {
			yield(types.Tick{}, errors.New(errors.ErrCodeInvalidConfiguration, "no symbols to stream"))

			return
		}

		if err := f.ws.Connect(); err != nil {
			yield(types.Tick{}, errors.Wrap(errors.ErrCodeFeedUnavailable, "polygon connect failed", err))

			return
		}

		defer f.ws.Close()

		if err := f.ws.Subscribe(polygonws.StocksSecAggs, symbols...); err != nil {
			yield(types.Tick{}, errors.Wrap(errors.ErrCodeFeedUnavailable, "polygon subscribe failed", err))

			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-f.ws.Error():
				if !ok {
					return
				}

				if !yield(types.Tick{}, errors.Wrap(errors.ErrCodeFeedUnavailable, "polygon websocket error", err)) {
					return
				}
			case event, ok := <-f.ws.Output():
				if !ok {
					return
				}

				agg, ok := event.(models.EquityAgg)
				if !ok {
					continue
				}

				tick, err := tickFromAgg(agg)
				if err != nil {
					if !yield(types.Tick{}, err) {
						return
					}

					continue
				}

				if !yield(tick, nil) {
					return
				}
			}
		}
	}
}

func tickFromAgg(agg models.EquityAgg) (types.Tick, error) {
	if agg.Symbol == "" {
		return types.Tick{}, errors.New(errors.ErrCodeFeedParseFailed, "aggregate missing symbol")
	}

	return types.Tick{
		Symbol:    agg.Symbol,
		Price:     agg.Close,
		Volume:    agg.Volume,
		Timestamp: time.UnixMilli(agg.StartTimestamp).UTC(),
	}, nil
}
