package strategy

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/vega-lab/vega-trading/pkg/errors"
)

// ConfigSchema generates the JSON schema for a strategy configuration
// struct. Operational tooling uses the schema to validate config files before
// they reach a live engine.
func ConfigSchema(config any) (string, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	schema := reflector.Reflect(config)

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStrategyConfig, "failed to marshal config schema", err)
	}

	return string(out), nil
}
