package version

// EngineVersion is the engine release version. Overridden at build time via
// -ldflags for tagged releases.
var EngineVersion = "main"

// StrategyAPIVersion is the version of the strategy capability interface the
// engine exposes. Strategies declare the API version they target and the
// registry rejects incompatible ones at registration time.
const StrategyAPIVersion = "1.0.0"
