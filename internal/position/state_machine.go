// Package position owns the lifecycle of every position. Each position is
// driven by a single worker goroutine, so all mutations of one position are
// serialized; other components only ever see copies.
package position

import (
	"time"

	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

// transitions is the full lifecycle graph. Terminal states have no outgoing
// edges; Failed is reachable from every non-terminal state.
var transitions = map[types.PositionStatus][]types.PositionStatus{
	types.PositionStatusPendingOpen: {
		types.PositionStatusOpen,
		types.PositionStatusClosing,
		types.PositionStatusFailed,
	},
	types.PositionStatusOpen: {
		types.PositionStatusAdjusting,
		types.PositionStatusClosing,
		types.PositionStatusFailed,
	},
	types.PositionStatusAdjusting: {
		types.PositionStatusOpen,
		types.PositionStatusClosing,
		types.PositionStatusFailed,
	},
	types.PositionStatusClosing: {
		types.PositionStatusClosed,
		types.PositionStatusFailed,
	},
}

// CanTransition reports whether the edge from one status to another exists.
func CanTransition(from, to types.PositionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// Transition moves a position along a lifecycle edge, enforcing the graph
// and the per-state guards. It sets lifecycle timestamps as a side effect.
func Transition(p *types.Position, to types.PositionStatus, now time.Time) error {
	if p.Status.IsTerminal() {
		return errors.Newf(errors.ErrCodeInvalidTransition,
			"position %s is terminal (%s)", p.ID, p.Status)
	}

	if !CanTransition(p.Status, to) {
		return errors.Newf(errors.ErrCodeInvalidTransition,
			"position %s cannot move %s -> %s", p.ID, p.Status, to)
	}

	switch to {
	case types.PositionStatusOpen:
		if p.Status == types.PositionStatusPendingOpen && !p.AllLegsFilled() {
			return errors.Newf(errors.ErrCodeInvalidTransition,
				"position %s has unfilled legs", p.ID)
		}
	case types.PositionStatusClosed:
		if !p.AllLegsClosed() {
			return errors.Newf(errors.ErrCodeInvalidTransition,
				"position %s has open quantity remaining", p.ID)
		}
	}

	prev := p.Status
	p.Status = to

	switch {
	case prev == types.PositionStatusPendingOpen && to == types.PositionStatusOpen:
		p.OpenedAt = now
	case to.IsTerminal():
		p.ClosedAt = now
	}

	return nil
}

// eventFor maps a completed transition onto the event type published to the
// rest of the engine.
func eventFor(from, to types.PositionStatus) types.PositionEventType {
	switch to {
	case types.PositionStatusOpen:
		if from == types.PositionStatusAdjusting {
			return types.PositionEventAdjusted
		}

		return types.PositionEventOpened
	case types.PositionStatusAdjusting:
		return types.PositionEventAdjusting
	case types.PositionStatusClosing:
		return types.PositionEventClosing
	case types.PositionStatusClosed:
		return types.PositionEventClosed
	case types.PositionStatusFailed:
		return types.PositionEventFailed
	default:
		return types.PositionEventFailed
	}
}
