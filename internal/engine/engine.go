// Package engine assembles the full decision pipeline: feed intake, market
// state, strategy evaluation, risk gating, position management, execution,
// and the audit trail.
package engine

import "context"

// Engine is the top-level lifecycle surface.
type Engine interface {
	// Start runs the pipeline until the context is cancelled or the feed is
	// exhausted.
	Start(ctx context.Context) error
	// Stop shuts the pipeline down and flushes the audit trail.
	Stop() error
}
