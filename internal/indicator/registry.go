package indicator

import (
	"sync"

	"github.com/vega-lab/vega-trading/pkg/errors"
)

// Factory constructs a fresh indicator instance. Registered factories let
// strategies build private indicator state by type name from configuration.
type Factory func(param int) Indicator

// Registry manages available indicator factories.
type Registry interface {
	Register(name IndicatorType, factory Factory) error
	New(name IndicatorType, param int) (Indicator, error)
	List() []IndicatorType
}

// RegistryV1 is the default registry implementation.
type RegistryV1 struct {
	factories map[IndicatorType]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a registry pre-populated with the standard indicators.
func NewRegistry() Registry {
	r := &RegistryV1{
		factories: make(map[IndicatorType]Factory),
	}

	_ = r.Register(IndicatorTypeEMA, func(param int) Indicator { return NewEMA(param) })
	_ = r.Register(IndicatorTypeRealizedVol, func(param int) Indicator { return NewRealizedVol(param) })

	return r
}

// Register adds an indicator factory to the registry.
func (r *RegistryV1) Register(name IndicatorType, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "indicator %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// New constructs a fresh instance of the named indicator.
func (r *RegistryV1) New(name IndicatorType, param int) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "indicator %s not found", name)
	}

	return factory(param), nil
}

// List returns all registered indicator names.
func (r *RegistryV1) List() []IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]IndicatorType, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	return names
}
