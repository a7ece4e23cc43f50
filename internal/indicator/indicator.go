// Package indicator provides streaming technical indicators fed one price at
// a time. Strategies own their indicator instances; no indicator state is
// shared across strategies.
package indicator

import "github.com/vega-lab/vega-trading/pkg/errors"

// IndicatorType identifies an indicator implementation.
type IndicatorType string

const (
	IndicatorTypeEMA         IndicatorType = "ema"
	IndicatorTypeRealizedVol IndicatorType = "realized_vol"
)

// Indicator is a streaming indicator updated tick by tick. Value returns an
// error until the indicator has seen enough observations to be meaningful.
type Indicator interface {
	// Name returns the indicator type.
	Name() IndicatorType
	// Update feeds the next observed price.
	Update(price float64)
	// Value returns the current indicator value.
	Value() (float64, error)
	// Ready reports whether Value will succeed.
	Ready() bool
	// Reset clears all accumulated state.
	Reset()
}

func notReadyError(name IndicatorType, required, actual int) error {
	return errors.Newf(errors.ErrCodeCorrelationWindow,
		"%s requires %d observations, have %d", name, required, actual)
}
