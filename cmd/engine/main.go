package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"

	"github.com/vega-lab/vega-trading/internal/engine"
	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/version"
)

// runAction loads the configuration, wires the engine, and runs it until an
// interrupt arrives.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	logLevel := cmd.String("log-level")

	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	logInstance, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logInstance.Sync() //nolint:errcheck

	cfg, err := engine.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	eng, err := engine.NewEngineV1(cfg, logInstance)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(runCtx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	log.Printf("engine %s running, press Ctrl+C to stop", version.EngineVersion)

	<-runCtx.Done()

	if err := eng.Stop(); err != nil {
		return fmt.Errorf("failed to stop engine: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "vega-engine",
		Usage:   "Run the trading engine against a configured market data feed",
		Version: version.EngineVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the engine configuration YAML file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Usage:    "Minimum log level (debug, info, warn, error)",
				Value:    "info",
				Required: false,
			},
		},
		Action: runAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
