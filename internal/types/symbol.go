package types

import (
	"github.com/go-playground/validator/v10"

	"github.com/vega-lab/vega-trading/pkg/errors"
)

// Symbol describes an instrument with its static metadata. Symbols are
// registered once at engine startup and never mutated afterwards.
type Symbol struct {
	Ticker string `yaml:"ticker" json:"ticker" validate:"required"`
	// TickSize is the minimum price increment for the instrument.
	TickSize float64 `yaml:"tick_size" json:"tick_size" validate:"required,gt=0"`
	// Multiplier is the contract multiplier (100 for standard equity options).
	Multiplier int `yaml:"multiplier" json:"multiplier" validate:"required,gte=1"`
	// Tradable indicates whether new positions may be opened on this symbol.
	Tradable bool `yaml:"tradable" json:"tradable"`
	// ChainRef references the options chain for options-bearing underlyings.
	// Empty for instruments without a chain.
	ChainRef string `yaml:"chain_ref" json:"chain_ref"`
}

// Validate validates the Symbol struct.
func (s *Symbol) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSymbol, "invalid symbol", err)
	}

	return nil
}
