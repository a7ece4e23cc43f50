package main

import (
	"context"
	"fmt"
	"iter"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/vega-lab/vega-trading/internal/audit"
	"github.com/vega-lab/vega-trading/internal/engine"
	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/feed"
)

// progressFeed wraps a feed with a progress bar and signals completion when
// the underlying stream is exhausted.
type progressFeed struct {
	inner feed.Feed
	bar   *progressbar.ProgressBar
	done  chan struct{}
}

func (f *progressFeed) Stream(ctx context.Context, symbols []string) iter.Seq2[types.Tick, error] {
	return func(yield func(types.Tick, error) bool) {
		defer close(f.done)

		for tick, err := range f.inner.Stream(ctx, symbols) {
			if !yield(tick, err) {
				return
			}

			if err == nil {
				f.bar.Add(1) //nolint:errcheck
			}
		}
	}
}

// replayAction replays a recorded tick database through the full decision
// pipeline and prints a session summary.
func replayAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	speed := cmd.Float("speed")

	logInstance := logger.NewNopLogger()

	cfg, err := engine.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	source, err := audit.NewStore(dataPath, logInstance)
	if err != nil {
		return fmt.Errorf("failed to open tick database: %w", err)
	}
	defer source.Close() //nolint:errcheck

	total, err := source.TickCount()
	if err != nil {
		return fmt.Errorf("failed to count ticks: %w", err)
	}

	if total == 0 {
		return fmt.Errorf("no ticks recorded in %s", dataPath)
	}

	eng, err := engine.NewEngineV1(cfg, logInstance)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	wrapped := &progressFeed{
		inner: feed.NewReplayFeed(source, speed),
		bar:   progressbar.New64(total),
		done:  make(chan struct{}),
	}
	eng.SetFeed(wrapped)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(runCtx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	select {
	case <-wrapped.done:
	case <-runCtx.Done():
	}

	summary(eng)

	return eng.Stop()
}

// summary prints the session outcome from the engine's audit trail.
func summary(eng *engine.EngineV1) {
	fmt.Println()

	pnl, err := eng.Audit().RealizedPnL()
	if err == nil {
		fmt.Printf("Realized P&L: %.2f\n", pnl)
	}

	rejections, err := eng.Audit().RejectionCounts()
	if err == nil && len(rejections) > 0 {
		fmt.Println("Rejections:")

		for reason, count := range rejections {
			fmt.Printf("  %s: %d\n", reason, count)
		}
	}

	state := eng.Gate().StateSnapshot()
	fmt.Printf("Open positions at end: %d\n", state.OpenPositions)

	if state.Halted {
		fmt.Printf("Session halted: %s\n", state.HaltReason)
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "vega-replay",
		Usage: "Replay a recorded tick session through the decision pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the engine configuration YAML file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the recorded tick database",
				Required: true,
			},
			&cli.FloatFlag{
				Name:     "speed",
				Aliases:  []string{"s"},
				Usage:    "Playback speed multiplier; 0 replays as fast as possible",
				Value:    0,
				Required: false,
			},
		},
		Action: replayAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
