package mocks

//go:generate mockgen -destination=./mock_gateway.go -package=mocks github.com/vega-lab/vega-trading/internal/gateway ExecutionGateway
//go:generate mockgen -destination=./mock_feed.go -package=mocks github.com/vega-lab/vega-trading/pkg/feed Feed
//go:generate mockgen -destination=./mock_indicator.go -package=mocks github.com/vega-lab/vega-trading/internal/indicator Indicator
//go:generate mockgen -destination=./mock_indicator_registry.go -package=mocks github.com/vega-lab/vega-trading/internal/indicator Registry
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/vega-lab/vega-trading/internal/strategy Strategy
