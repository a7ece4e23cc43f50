package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/vega-lab/vega-trading/internal/engine"
	"github.com/vega-lab/vega-trading/internal/logger"
)

// simSessionConfig runs a bounded simulated session hot enough that the
// momentum strategy trades: 1% per-tick volatility against a 0.4% entry
// threshold.
const simSessionConfig = `
symbols:
  - ticker: SPY
    tick_size: 0.01
    multiplier: 1
    tradable: true
  - ticker: QQQ
    tick_size: 0.01
    multiplier: 1
    tradable: true
market:
  return_window: 60
  recompute_interval: 50ms
risk:
  max_concentration: 1000000
  max_open_positions: 10
  daily_loss_limit: 1000000
  decision_budget: 1s
position:
  fill_timeout: 5s
feed:
  type: sim
  sim:
    seed: 7
    default_price: 440
    volatility: 0.01
    count: 500
strategies:
  - name: momentum
    type: momentum
    config:
      threshold: 0.004
      quantity: 1
      ttl: 30s
      stop_loss_pct: 0.01
server:
  enabled: false
audit:
  path: ":memory:"
`

// EngineE2ETestSuite drives a full simulated session through the real wiring:
// sim feed, store, strategies, gate, manager, in-process broker, audit.
type EngineE2ETestSuite struct {
	suite.Suite
}

func TestEngineE2ESuite(t *testing.T) {
	suite.Run(t, new(EngineE2ETestSuite))
}

func (suite *EngineE2ETestSuite) run(configYAML string) *engine.EngineV1 {
	cfg, err := engine.ParseConfig(configYAML)
	suite.Require().NoError(err)

	eng, err := engine.NewEngineV1(cfg, logger.NewNopLogger())
	suite.Require().NoError(err)

	suite.Require().NoError(eng.Start(context.Background()))

	return eng
}

// waitForTape blocks until all 500 ticks per symbol have been ingested and
// recorded.
func (suite *EngineE2ETestSuite) waitForTape(eng *engine.EngineV1) {
	suite.Eventually(func() bool {
		count, err := eng.Audit().TickCount()

		return err == nil && count == 1000
	}, 15*time.Second, 20*time.Millisecond)
}

func (suite *EngineE2ETestSuite) TestSimulatedSessionTrades() {
	eng := suite.run(simSessionConfig)

	defer func() {
		suite.Require().NoError(eng.Stop())
	}()

	suite.waitForTape(eng)

	// A 1% volatility walk crosses the 0.4% threshold many times, so the
	// session gates signals and carries positions through their lifecycle.
	suite.Eventually(func() bool {
		decisions, err := eng.Audit().Decisions(1)

		return err == nil && len(decisions) > 0
	}, 5*time.Second, 20*time.Millisecond)

	suite.Eventually(func() bool {
		return len(eng.Manager().Positions()) > 0
	}, 5*time.Second, 20*time.Millisecond)

	decisions, err := eng.Audit().Decisions(1000)
	suite.Require().NoError(err)

	for _, d := range decisions {
		suite.NotEmpty(d.SignalID)
		suite.GreaterOrEqual(d.Elapsed, time.Duration(0))
	}

	// Every position came out of the momentum strategy's gated signals.
	for _, pos := range eng.Manager().Positions() {
		suite.Equal("momentum", pos.Strategy)
		suite.NotEmpty(pos.Legs)
	}
}

// TestSameSeedProducesSameTape replays the seeded session twice and compares
// the recorded tapes tick for tick.
func (suite *EngineE2ETestSuite) TestSameSeedProducesSameTape() {
	first := suite.run(simSessionConfig)
	suite.waitForTape(first)

	firstTape, err := first.Audit().ReadTicks()
	suite.Require().NoError(err)
	suite.Require().NoError(first.Stop())

	second := suite.run(simSessionConfig)
	suite.waitForTape(second)

	secondTape, err := second.Audit().ReadTicks()
	suite.Require().NoError(err)
	suite.Require().NoError(second.Stop())

	suite.Require().Len(secondTape, len(firstTape))

	for i := range firstTape {
		suite.Equal(firstTape[i].Symbol, secondTape[i].Symbol)
		suite.Equal(firstTape[i].Timestamp, secondTape[i].Timestamp)
		suite.InDelta(firstTape[i].Price, secondTape[i].Price, 1e-9)
	}
}
