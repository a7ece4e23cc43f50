package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckStrategyCompatibility checks whether a strategy targeting the given
// API version can run against this engine's strategy API.
//
// Compatibility rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The strategy's minor version must not exceed the engine's
//   - Patch versions can differ freely
func CheckStrategyCompatibility(strategyAPIVersion string) error {
	engineVersion := strings.TrimPrefix(StrategyAPIVersion, "v")
	strategyVersion := strings.TrimPrefix(strategyAPIVersion, "v")

	if engineVersion == "main" || strategyVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine strategy API version '%s': %w", engineVersion, err)
	}

	strategySemver, err := semver.NewVersion(strategyVersion)
	if err != nil {
		return fmt.Errorf("invalid strategy API version '%s': %w", strategyVersion, err)
	}

	if engineSemver.Major() != strategySemver.Major() {
		return fmt.Errorf("major version mismatch: engine API is %d.x.x but strategy targets %d.x.x",
			engineSemver.Major(), strategySemver.Major())
	}

	if strategySemver.Minor() > engineSemver.Minor() {
		return fmt.Errorf("strategy targets API %d.%d.x but engine only provides %d.%d.x",
			strategySemver.Major(), strategySemver.Minor(),
			engineSemver.Major(), engineSemver.Minor())
	}

	return nil
}
