// Package strategy defines the pluggable strategy capability and the
// registry hosting strategy instances. Strategies are evaluated independently
// per market update and own whatever bounded working history they need;
// nothing is shared between instances.
package strategy

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/internal/version"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

// MarketView is the read-only market state handed to a strategy for one
// evaluation. Snapshot is a copy and Correlation an immutable published
// instance, so strategies can never race the store.
type MarketView struct {
	Snapshot    types.MarketSnapshot
	Correlation *types.CorrelationState
}

// Strategy is the capability interface all signal generators implement.
// Evaluate must be deterministic given identical inputs and prior history:
// identical tick sequences produce identical signals (confidence, legs,
// timestamps). Strategies derive all times from the snapshot, never from the
// wall clock.
type Strategy interface {
	// Name returns the unique strategy name.
	Name() string
	// APIVersion returns the strategy API version the implementation targets.
	APIVersion() string
	// Evaluate inspects the view and optionally emits a signal.
	Evaluate(view MarketView) (optional.Option[types.Signal], error)
}

// Registry holds strategies in registration order. Registration order is the
// tie-break priority when multiple strategies emit signals at the same
// generation time: lower index wins.
type Registry struct {
	mu      sync.RWMutex
	ordered []Strategy
	byName  map[string]int
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]int),
	}
}

// Register adds a strategy. Duplicate names and incompatible API versions
// are rejected.
func (r *Registry) Register(s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[s.Name()]; exists {
		return errors.Newf(errors.ErrCodeStrategyDuplicate, "strategy %s already registered", s.Name())
	}

	if err := version.CheckStrategyCompatibility(s.APIVersion()); err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyVersion, err, "strategy %s is incompatible", s.Name())
	}

	r.byName[s.Name()] = len(r.ordered)
	r.ordered = append(r.ordered, s)

	return nil
}

// Strategies returns all registered strategies in registration order.
func (r *Registry) Strategies() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Strategy, len(r.ordered))
	copy(out, r.ordered)

	return out
}

// Priority returns the registration index of the named strategy.
func (r *Registry) Priority(name string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byName[name]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %s not registered", name)
	}

	return idx, nil
}

// Len returns the number of registered strategies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.ordered)
}

// UnmarshalConfig parses a YAML strategy configuration into out and
// validates it with struct tags.
func UnmarshalConfig(raw string, out any) error {
	if err := yaml.Unmarshal([]byte(raw), out); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfig, "failed to parse strategy config", err)
	}

	validate := validator.New()
	if err := validate.Struct(out); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfig, "invalid strategy config", err)
	}

	return nil
}

func clampConfidence(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
