// Package audit persists the engine's decision trail: every tick, signal,
// risk decision, and position event lands in DuckDB so a session can be
// queried after the fact or replayed through the engine.
package audit

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

// Store is the audit log. All writes go through a single *sql.DB; DuckDB
// serializes them internally.
type Store struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewStore opens an audit database. Path is a DuckDB file or ":memory:".
func NewStore(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuditInitFailed, "failed to open audit database", err)
	}

	return &Store{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the audit tables.
func (s *Store) Initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ticks (
			symbol TEXT,
			price DOUBLE,
			bid DOUBLE,
			ask DOUBLE,
			volume DOUBLE,
			timestamp TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS signals (
			signal_id TEXT PRIMARY KEY,
			symbol TEXT,
			strategy TEXT,
			confidence DOUBLE,
			generated_at TIMESTAMP,
			expires_at TIMESTAMP,
			legs INTEGER,
			max_loss DOUBLE,
			notional DOUBLE,
			reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS decisions (
			signal_id TEXT,
			symbol TEXT,
			strategy TEXT,
			action TEXT,
			reject_reason TEXT,
			elapsed_us BIGINT,
			decided_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS position_events (
			position_id TEXT,
			signal_id TEXT,
			symbol TEXT,
			strategy TEXT,
			event_type TEXT,
			realized_pnl DOUBLE,
			reason TEXT,
			occurred_at TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeAuditInitFailed, "failed to create audit tables", err)
		}
	}

	return nil
}

// WriteTick records one market tick.
func (s *Store) WriteTick(tick types.Tick) error {
	_, err := s.sq.
		Insert("ticks").
		Columns("symbol", "price", "bid", "ask", "volume", "timestamp").
		Values(tick.Symbol, tick.Price, tick.Bid, tick.Ask, tick.Volume, tick.Timestamp).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeAuditWriteFailed, "failed to write tick", err)
	}

	return nil
}

// WriteSignal records one emitted signal.
func (s *Store) WriteSignal(sig types.Signal) error {
	_, err := s.sq.
		Insert("signals").
		Columns(
			"signal_id", "symbol", "strategy", "confidence", "generated_at",
			"expires_at", "legs", "max_loss", "notional", "reason",
		).
		Values(
			sig.ID, sig.Symbol, sig.Strategy, sig.Confidence, sig.GeneratedAt,
			sig.ExpiresAt, len(sig.Legs), sig.Risk.MaxLoss, sig.Risk.Notional, sig.Reason,
		).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeAuditWriteFailed, "failed to write signal", err)
	}

	return nil
}

// WriteDecision records one risk gate verdict.
func (s *Store) WriteDecision(d types.RiskDecision) error {
	_, err := s.sq.
		Insert("decisions").
		Columns("signal_id", "symbol", "strategy", "action", "reject_reason", "elapsed_us", "decided_at").
		Values(d.SignalID, d.Symbol, d.Strategy, string(d.Action), string(d.Reason), d.Elapsed.Microseconds(), d.DecidedAt).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeAuditWriteFailed, "failed to write decision", err)
	}

	return nil
}

// WritePositionEvent records one lifecycle transition.
func (s *Store) WritePositionEvent(signalID string, ev types.PositionEvent) error {
	_, err := s.sq.
		Insert("position_events").
		Columns("position_id", "signal_id", "symbol", "strategy", "event_type", "realized_pnl", "reason", "occurred_at").
		Values(ev.PositionID, signalID, ev.Symbol, ev.Strategy, string(ev.Type), ev.RealizedPnL, ev.Reason, ev.OccurredAt).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeAuditWriteFailed, "failed to write position event", err)
	}

	return nil
}

// Decisions returns the most recent gate verdicts, newest first.
func (s *Store) Decisions(limit int) ([]types.RiskDecision, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.sq.
		Select("signal_id", "symbol", "strategy", "action", "reject_reason", "elapsed_us", "decided_at").
		From("decisions").
		OrderBy("decided_at DESC").
		Limit(uint64(limit)).
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuditQueryFailed, "failed to query decisions", err)
	}

	defer rows.Close()

	var out []types.RiskDecision

	for rows.Next() {
		var (
			d         types.RiskDecision
			action    string
			reason    string
			elapsedUS int64
		)

		if err := rows.Scan(&d.SignalID, &d.Symbol, &d.Strategy, &action, &reason, &elapsedUS, &d.DecidedAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAuditQueryFailed, "failed to scan decision", err)
		}

		d.Action = types.DecisionAction(action)
		d.Reason = types.RejectReason(reason)
		d.Elapsed = microseconds(elapsedUS)

		out = append(out, d)
	}

	return out, rows.Err()
}

// PositionEvents returns the lifecycle trail of one position in occurrence
// order.
func (s *Store) PositionEvents(positionID string) ([]types.PositionEvent, error) {
	rows, err := s.sq.
		Select("position_id", "symbol", "strategy", "event_type", "realized_pnl", "reason", "occurred_at").
		From("position_events").
		Where(squirrel.Eq{"position_id": positionID}).
		OrderBy("occurred_at ASC").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuditQueryFailed, "failed to query position events", err)
	}

	defer rows.Close()

	var out []types.PositionEvent

	for rows.Next() {
		var (
			ev        types.PositionEvent
			eventType string
		)

		if err := rows.Scan(&ev.PositionID, &ev.Symbol, &ev.Strategy, &eventType, &ev.RealizedPnL, &ev.Reason, &ev.OccurredAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAuditQueryFailed, "failed to scan position event", err)
		}

		ev.Type = types.PositionEventType(eventType)

		out = append(out, ev)
	}

	return out, rows.Err()
}

// RejectionCounts aggregates rejected decisions by reason.
func (s *Store) RejectionCounts() (map[string]int64, error) {
	rows, err := s.sq.
		Select("reject_reason", "COUNT(*)").
		From("decisions").
		Where(squirrel.Eq{"action": string(types.DecisionReject)}).
		GroupBy("reject_reason").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuditQueryFailed, "failed to query rejections", err)
	}

	defer rows.Close()

	out := make(map[string]int64)

	for rows.Next() {
		var (
			reason string
			count  int64
		)

		if err := rows.Scan(&reason, &count); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAuditQueryFailed, "failed to scan rejection count", err)
		}

		out[reason] = count
	}

	return out, rows.Err()
}

// RealizedPnL sums realized P&L over closed position events.
func (s *Store) RealizedPnL() (float64, error) {
	row := s.sq.
		Select("COALESCE(SUM(realized_pnl), 0)").
		From("position_events").
		Where(squirrel.Eq{"event_type": string(types.PositionEventClosed)}).
		RunWith(s.db).
		QueryRow()

	var total float64
	if err := row.Scan(&total); err != nil {
		return 0, errors.Wrap(errors.ErrCodeAuditQueryFailed, "failed to sum realized pnl", err)
	}

	return total, nil
}

// ReadTicks streams the recorded ticks in timestamp order for replay.
func (s *Store) ReadTicks() ([]types.Tick, error) {
	rows, err := s.sq.
		Select("symbol", "price", "bid", "ask", "volume", "timestamp").
		From("ticks").
		OrderBy("timestamp ASC", "symbol ASC").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuditQueryFailed, "failed to query ticks", err)
	}

	defer rows.Close()

	var out []types.Tick

	for rows.Next() {
		var t types.Tick
		if err := rows.Scan(&t.Symbol, &t.Price, &t.Bid, &t.Ask, &t.Volume, &t.Timestamp); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAuditQueryFailed, "failed to scan tick", err)
		}

		out = append(out, t)
	}

	return out, rows.Err()
}

// TickCount returns the number of recorded ticks.
func (s *Store) TickCount() (int64, error) {
	var count int64

	row := s.sq.Select("COUNT(*)").From("ticks").RunWith(s.db).QueryRow()
	if err := row.Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeAuditQueryFailed, "failed to count ticks", err)
	}

	return count, nil
}

func microseconds(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		s.log.Error("failed to close audit database", zap.Error(err))

		return err
	}

	return nil
}
