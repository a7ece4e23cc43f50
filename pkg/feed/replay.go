package feed

import (
	"context"
	"iter"
	"time"

	"github.com/vega-lab/vega-trading/internal/audit"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

// ReplayFeed re-streams a recorded session from the audit log in original
// timestamp order. Replaying the same log always produces the same tick
// sequence.
type ReplayFeed struct {
	store *audit.Store
	// speed scales pacing: 1 replays in real time, 2 at double speed, 0
	// streams without pacing.
	speed float64
}

// NewReplayFeed creates a replay feed over an open audit store.
func NewReplayFeed(store *audit.Store, speed float64) *ReplayFeed {
	return &ReplayFeed{store: store, speed: speed}
}

// Stream yields the recorded ticks for the requested symbols. An empty
// symbol list replays everything.
func (f *ReplayFeed) Stream(ctx context.Context, symbols []string) iter.Seq2[types.Tick, error] {
	return func(yield func(types.Tick, error) bool) {
		ticks, err := f.store.ReadTicks()
		if err != nil {
			yield(types.Tick{}, errors.Wrap(errors.ErrCodeFeedUnavailable, "failed to read recorded ticks", err))

			return
		}

		wanted := make(map[string]bool, len(symbols))
		for _, s := range symbols {
			wanted[s] = true
		}

		var prev time.Time

		for _, tick := range ticks {
			if ctx.Err() != nil {
				return
			}

			if len(wanted) > 0 && !wanted[tick.Symbol] {
				continue
			}

			if f.speed > 0 && !prev.IsZero() {
				gap := tick.Timestamp.Sub(prev)
				if gap > 0 {
					select {
					case <-ctx.Done():
						return
					case <-time.After(time.Duration(float64(gap) / f.speed)):
					}
				}
			}

			prev = tick.Timestamp

			if !yield(tick, nil) {
				return
			}
		}
	}
}
