package position

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/vega-lab/vega-trading/internal/gateway"
	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/market"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
)

const (
	defaultFillTimeout = 30 * time.Second
	defaultEventBuffer = 256
	workerQueueSize    = 64
)

// Config configures the position manager.
type Config struct {
	// FillTimeout bounds how long an opening position may sit partially
	// filled before its filled legs are unwound.
	FillTimeout time.Duration `yaml:"fill_timeout" json:"fill_timeout"`
	// EventBuffer sizes the lifecycle event channel.
	EventBuffer int `yaml:"event_buffer" json:"event_buffer"`
}

// Event pairs a lifecycle event with the signal that originated the
// position, so the risk gate can release the matching reservation.
type Event struct {
	SignalID string
	types.PositionEvent
}

type cmdKind int

const (
	cmdFill cmdKind = iota
	cmdStatus
	cmdTick
	cmdAdjust
	cmdClose
	cmdFillTimeout
)

type command struct {
	kind   cmdKind
	fill   types.Fill
	status types.OrderStatus
	reason string

	orderID string
	price   float64
	at      time.Time

	stopLoss     optional.Option[float64]
	profitTarget optional.Option[float64]

	done chan error
}

// positionState is mutated only by its worker goroutine; mu lets the query
// surface take consistent copies while the worker runs.
type positionState struct {
	mu       sync.Mutex
	pos      *types.Position
	signalID string
	orders   map[string]*types.Order
	cmds     chan command
	timeout  *time.Timer
}

func (st *positionState) snapshot() types.Position {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.pos.Clone()
}

func (st *positionState) status() types.PositionStatus {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.pos.Status
}

// Manager tracks every position and serializes all mutations through
// per-position workers. Fills, ticks, and administrative operations are all
// commands on the owning worker's queue.
type Manager struct {
	log   *logger.Logger
	store *market.Store
	gw    gateway.ExecutionGateway
	cfg   Config

	mu        sync.RWMutex
	positions map[string]*positionState
	byOrder   map[string]string
	bySymbol  map[string]map[string]struct{}

	events chan Event
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a position manager wired to the gateway and market
// store.
func NewManager(cfg Config, store *market.Store, gw gateway.ExecutionGateway, log *logger.Logger) *Manager {
	if cfg.FillTimeout <= 0 {
		cfg.FillTimeout = defaultFillTimeout
	}

	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}

	m := &Manager{
		log:       log,
		store:     store,
		gw:        gw,
		cfg:       cfg,
		positions: make(map[string]*positionState),
		byOrder:   make(map[string]string),
		bySymbol:  make(map[string]map[string]struct{}),
		events:    make(chan Event, cfg.EventBuffer),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())

	gw.OnFill(m.routeFill)
	gw.OnStatus(m.routeStatus)

	return m
}

// Events returns the lifecycle event stream.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Start launches the market subscription that drives stop-loss and
// profit-target monitoring. It returns immediately.
func (m *Manager) Start(ctx context.Context) {
	updates, unsubscribe := m.store.Subscribe(workerQueueSize)

	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.ctx.Done():
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}

				m.routeTick(snap)
			}
		}
	}()
}

// Stop cancels monitoring and waits for all workers to drain.
func (m *Manager) Stop() {
	m.cancel()

	m.mu.Lock()
	for _, st := range m.positions {
		if st.timeout != nil {
			st.timeout.Stop()
		}
	}
	m.mu.Unlock()

	m.wg.Wait()
}

// OpenFromSignal creates a PendingOpen position from an accepted decision
// and submits one opening order per leg. The position id is returned
// immediately; fills arrive asynchronously.
func (m *Manager) OpenFromSignal(ctx context.Context, decision types.RiskDecision) (string, error) {
	if !decision.Accepted() {
		return "", errors.Newf(errors.ErrCodeInvalidSignal,
			"signal %s was not accepted", decision.SignalID)
	}

	sig := decision.Signal

	pos := &types.Position{
		ID:           uuid.New().String(),
		Symbol:       sig.Symbol,
		Strategy:     sig.Strategy,
		Status:       types.PositionStatusPendingOpen,
		Risk:         sig.Risk,
		StopLoss:     sig.StopLoss,
		ProfitTarget: sig.ProfitTarget,
		Legs:         make([]types.PositionLeg, len(sig.Legs)),
	}

	for i, leg := range sig.Legs {
		multiplier := 1
		if sym, err := m.store.Symbol(leg.Symbol); err == nil {
			multiplier = sym.Multiplier
		}

		pos.Legs[i] = types.PositionLeg{
			Symbol:     leg.Symbol,
			Side:       leg.Side,
			Multiplier: multiplier,
			Quantity:   leg.Quantity,
		}
	}

	st := &positionState{
		pos:      pos,
		signalID: sig.ID,
		orders:   make(map[string]*types.Order),
		cmds:     make(chan command, workerQueueSize),
	}

	orders := make([]*types.Order, len(sig.Legs))

	for i, leg := range sig.Legs {
		orders[i] = &types.Order{
			ID:         uuid.New().String(),
			PositionID: pos.ID,
			LegIndex:   i,
			Action:     types.OrderActionOpen,
			Symbol:     leg.Symbol,
			Side:       leg.Side,
			OrderType:  leg.OrderType,
			Quantity:   leg.Quantity,
			LimitPrice: leg.LimitPrice,
			Status:     types.OrderStatusPending,
			Reason:     types.Reason{Reason: types.OrderReasonSignal, Message: sig.Reason},
		}
		st.orders[orders[i].ID] = orders[i]
	}

	m.mu.Lock()
	m.positions[pos.ID] = st

	for _, ord := range orders {
		m.byOrder[ord.ID] = pos.ID
	}

	if m.bySymbol[pos.Symbol] == nil {
		m.bySymbol[pos.Symbol] = make(map[string]struct{})
	}

	m.bySymbol[pos.Symbol][pos.ID] = struct{}{}
	m.mu.Unlock()

	// Orders are submitted before the worker starts; fills arriving during
	// submission queue on the command channel until the worker drains them.
	for _, ord := range orders {
		brokerID, err := m.gw.SubmitOrder(ctx, *ord)
		if err != nil {
			m.log.Error("order submission failed",
				zap.String("position_id", pos.ID),
				zap.String("order_id", ord.ID),
				zap.Error(err))

			m.enqueue(pos.ID, command{
				kind:    cmdStatus,
				orderID: ord.ID,
				status:  types.OrderStatusFailed,
				reason:  err.Error(),
				at:      time.Now(),
			})

			continue
		}

		ord.BrokerID = brokerID
		ord.Status = types.OrderStatusSubmitted
		ord.SubmittedAt = time.Now()
	}

	// The timer field is set before the worker starts so that retire and
	// Stop never race the assignment; an early expiry just queues on the
	// command channel like any fill.
	st.timeout = time.AfterFunc(m.cfg.FillTimeout, func() {
		_ = m.enqueue(pos.ID, command{kind: cmdFillTimeout, at: time.Now()})
	})

	m.wg.Add(1)

	go m.runWorker(st)

	m.log.Info("position opening",
		zap.String("position_id", pos.ID),
		zap.String("symbol", pos.Symbol),
		zap.String("strategy", pos.Strategy),
		zap.Int("legs", len(pos.Legs)))

	return pos.ID, nil
}

// AdjustProtection moves a position's stop-loss and profit-target levels.
// The position passes through Adjusting and returns to Open.
func (m *Manager) AdjustProtection(positionID string, stopLoss, profitTarget optional.Option[float64]) error {
	done := make(chan error, 1)

	if err := m.enqueue(positionID, command{
		kind:         cmdAdjust,
		stopLoss:     stopLoss,
		profitTarget: profitTarget,
		at:           time.Now(),
		done:         done,
	}); err != nil {
		return err
	}

	return <-done
}

// Close unwinds a position's open quantity with the given reason.
func (m *Manager) Close(positionID, reason string) error {
	done := make(chan error, 1)

	if err := m.enqueue(positionID, command{
		kind:   cmdClose,
		reason: reason,
		at:     time.Now(),
		done:   done,
	}); err != nil {
		return err
	}

	return <-done
}

// LiquidateAll closes every non-terminal position. Positions that are
// already closing are left alone.
func (m *Manager) LiquidateAll(reason string) {
	m.mu.RLock()
	states := make([]*positionState, 0, len(m.positions))

	for _, st := range m.positions {
		states = append(states, st)
	}
	m.mu.RUnlock()

	ids := make([]string, 0, len(states))

	for _, st := range states {
		if !st.status().IsTerminal() {
			ids = append(ids, st.pos.ID)
		}
	}

	for _, id := range ids {
		if err := m.Close(id, reason); err != nil && !errors.HasCode(err, errors.ErrCodeInvalidTransition) {
			m.log.Error("liquidation close failed",
				zap.String("position_id", id),
				zap.Error(err))
		}
	}
}

// Position returns a copy of one position.
func (m *Manager) Position(id string) (types.Position, error) {
	m.mu.RLock()
	st, ok := m.positions[id]
	m.mu.RUnlock()

	if !ok {
		return types.Position{}, errors.Newf(errors.ErrCodePositionNotFound, "position %s not found", id)
	}

	return st.snapshot(), nil
}

// Positions returns copies of all tracked positions.
func (m *Manager) Positions() []types.Position {
	m.mu.RLock()
	states := make([]*positionState, 0, len(m.positions))

	for _, st := range m.positions {
		states = append(states, st)
	}
	m.mu.RUnlock()

	out := make([]types.Position, 0, len(states))
	for _, st := range states {
		out = append(out, st.snapshot())
	}

	return out
}

// OpenCount returns the number of non-terminal positions. The risk gate's
// own count must always match this value.
func (m *Manager) OpenCount() int {
	m.mu.RLock()
	states := make([]*positionState, 0, len(m.positions))

	for _, st := range m.positions {
		states = append(states, st)
	}
	m.mu.RUnlock()

	count := 0

	for _, st := range states {
		if !st.status().IsTerminal() {
			count++
		}
	}

	return count
}

func (m *Manager) enqueue(positionID string, cmd command) error {
	m.mu.RLock()
	st, ok := m.positions[positionID]
	m.mu.RUnlock()

	if !ok {
		return errors.Newf(errors.ErrCodePositionNotFound, "position %s not found", positionID)
	}

	st.cmds <- cmd

	return nil
}

// routeFill finds the owning position for a fill and hands it to the worker.
func (m *Manager) routeFill(fill types.Fill) {
	m.mu.RLock()
	positionID, ok := m.byOrder[fill.OrderID]
	m.mu.RUnlock()

	if !ok {
		m.log.Warn("fill for unknown order", zap.String("order_id", fill.OrderID))

		return
	}

	_ = m.enqueue(positionID, command{kind: cmdFill, fill: fill, at: fill.Timestamp})
}

func (m *Manager) routeStatus(orderID string, status types.OrderStatus, reason string) {
	m.mu.RLock()
	positionID, ok := m.byOrder[orderID]
	m.mu.RUnlock()

	if !ok {
		return
	}

	_ = m.enqueue(positionID, command{
		kind:    cmdStatus,
		orderID: orderID,
		status:  status,
		reason:  reason,
		at:      time.Now(),
	})
}

// routeTick fans a snapshot out to every position on the symbol.
func (m *Manager) routeTick(snap types.MarketSnapshot) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.bySymbol[snap.Symbol]))

	for id := range m.bySymbol[snap.Symbol] {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.enqueue(id, command{kind: cmdTick, price: snap.LastPrice, at: snap.Timestamp})
	}
}

// runWorker serializes all mutations of one position. The worker stays alive
// after the position reaches a terminal state so pending callers never block;
// commands against a terminal position fail inside handle.
func (m *Manager) runWorker(st *positionState) {
	defer m.wg.Done()

	retired := false

	for {
		select {
		case <-m.ctx.Done():
			return
		case cmd := <-st.cmds:
			st.mu.Lock()
			m.handle(st, cmd)
			terminal := st.pos.Status.IsTerminal()
			st.mu.Unlock()

			if terminal && !retired {
				m.retire(st)

				retired = true
			}
		}
	}
}

// retire drains routing for a terminal position. The state is kept for the
// query surface; only the routing entries are removed.
func (m *Manager) retire(st *positionState) {
	if st.timeout != nil {
		st.timeout.Stop()
	}

	m.mu.Lock()
	for orderID := range st.orders {
		delete(m.byOrder, orderID)
	}

	delete(m.bySymbol[st.pos.Symbol], st.pos.ID)
	m.mu.Unlock()
}

func (m *Manager) handle(st *positionState, cmd command) {
	var err error

	switch cmd.kind {
	case cmdFill:
		m.applyFill(st, cmd.fill)
	case cmdStatus:
		m.applyStatus(st, cmd.orderID, cmd.status, cmd.reason, cmd.at)
	case cmdTick:
		m.checkProtection(st, cmd.price, cmd.at)
	case cmdAdjust:
		err = m.applyAdjust(st, cmd)
	case cmdClose:
		err = m.beginClose(st, cmd.reason, cmd.at)
	case cmdFillTimeout:
		m.handleFillTimeout(st, cmd.at)
	}

	if cmd.done != nil {
		cmd.done <- err
	}
}

// applyFill folds an execution report into the order and its leg, then
// advances the lifecycle if the fill completed the current phase.
func (m *Manager) applyFill(st *positionState, fill types.Fill) {
	ord, ok := st.orders[fill.OrderID]
	if !ok || ord.Status.IsTerminal() {
		m.log.Warn("duplicate or late fill dropped",
			zap.String("position_id", st.pos.ID),
			zap.String("order_id", fill.OrderID))

		return
	}

	prevFilled := ord.FilledQuantity
	ord.FilledQuantity += fill.Quantity

	if ord.FilledQuantity > 0 {
		ord.AvgFillPrice = (ord.AvgFillPrice*prevFilled + fill.Price*fill.Quantity) / ord.FilledQuantity
	}

	if ord.FilledQuantity >= ord.Quantity {
		ord.Status = types.OrderStatusFilled
	} else {
		ord.Status = types.OrderStatusPartiallyFilled
	}

	leg := &st.pos.Legs[ord.LegIndex]

	switch ord.Action {
	case types.OrderActionOpen, types.OrderActionAdjust:
		prev := leg.FilledQuantity
		leg.FilledQuantity += fill.Quantity

		if leg.FilledQuantity > 0 {
			leg.AvgEntryPrice = (leg.AvgEntryPrice*prev + fill.Price*fill.Quantity) / leg.FilledQuantity
		}
	case types.OrderActionClose, types.OrderActionUnwind:
		prev := leg.ClosedQuantity
		leg.ClosedQuantity += fill.Quantity

		if leg.ClosedQuantity > 0 {
			leg.AvgExitPrice = (leg.AvgExitPrice*prev + fill.Price*fill.Quantity) / leg.ClosedQuantity
		}
	}

	m.advanceAfterFill(st, ord, fill.Timestamp)
}

// advanceAfterFill moves the lifecycle forward when the latest fill
// completed the phase the position was waiting on.
func (m *Manager) advanceAfterFill(st *positionState, ord *types.Order, at time.Time) {
	pos := st.pos

	switch pos.Status {
	case types.PositionStatusPendingOpen:
		if pos.AllLegsFilled() {
			if st.timeout != nil {
				st.timeout.Stop()
			}

			m.transition(st, types.PositionStatusOpen, "all legs filled", at)
		}
	case types.PositionStatusClosing:
		if pos.AllLegsClosed() {
			if ord.Action == types.OrderActionUnwind {
				m.transition(st, types.PositionStatusFailed, "partial fill unwound", at)
			} else {
				m.transition(st, types.PositionStatusClosed, string(ord.Reason.Reason), at)
			}
		}
	}
}

// applyStatus handles terminal order updates without fills.
func (m *Manager) applyStatus(st *positionState, orderID string, status types.OrderStatus, reason string, at time.Time) {
	ord, ok := st.orders[orderID]
	if !ok || ord.Status.IsTerminal() {
		return
	}

	ord.Status = status

	switch st.pos.Status {
	case types.PositionStatusPendingOpen:
		// A rejected or failed opening order dooms the position. Anything
		// already filled on other legs is unwound first.
		if status == types.OrderStatusRejected || status == types.OrderStatusFailed {
			m.unwindOrFail(st, reason, at)
		}
	case types.PositionStatusClosing:
		if status == types.OrderStatusRejected || status == types.OrderStatusFailed {
			m.log.Error("close order failed",
				zap.String("position_id", st.pos.ID),
				zap.String("order_id", orderID),
				zap.String("reason", reason))
			m.transition(st, types.PositionStatusFailed, "unwind failed: "+reason, at)
		}
	}
}

// checkProtection compares the latest price against the stop and target.
func (m *Manager) checkProtection(st *positionState, price float64, at time.Time) {
	if st.pos.Status != types.PositionStatusOpen {
		return
	}

	if stop, err := st.pos.StopLoss.Take(); err == nil && price <= stop {
		m.log.Info("stop loss breached",
			zap.String("position_id", st.pos.ID),
			zap.Float64("price", price),
			zap.Float64("stop", stop))

		_ = m.beginClose(st, types.OrderReasonStopLoss, at)

		return
	}

	if target, err := st.pos.ProfitTarget.Take(); err == nil && price >= target {
		m.log.Info("profit target reached",
			zap.String("position_id", st.pos.ID),
			zap.Float64("price", price),
			zap.Float64("target", target))

		_ = m.beginClose(st, types.OrderReasonTakeProfit, at)
	}
}

// applyAdjust moves protection levels through the Adjusting state.
func (m *Manager) applyAdjust(st *positionState, cmd command) error {
	if st.pos.Status != types.PositionStatusOpen {
		return errors.Newf(errors.ErrCodeInvalidTransition,
			"position %s cannot adjust while %s", st.pos.ID, st.pos.Status)
	}

	m.transition(st, types.PositionStatusAdjusting, types.OrderReasonAdjustment, cmd.at)

	if cmd.stopLoss.IsSome() {
		st.pos.StopLoss = cmd.stopLoss
	}

	if cmd.profitTarget.IsSome() {
		st.pos.ProfitTarget = cmd.profitTarget
	}

	m.transition(st, types.PositionStatusOpen, types.OrderReasonAdjustment, cmd.at)

	return nil
}

// beginClose submits closing orders for every leg's open quantity and moves
// the position to Closing. A position still waiting on its opening fills is
// unwound instead, so a liquidation never strands a pending position that
// fills moments later.
func (m *Manager) beginClose(st *positionState, reason string, at time.Time) error {
	pos := st.pos

	if pos.Status == types.PositionStatusPendingOpen {
		m.unwindOrFail(st, reason, at)

		return nil
	}

	if pos.Status != types.PositionStatusOpen && pos.Status != types.PositionStatusAdjusting {
		return errors.Newf(errors.ErrCodeInvalidTransition,
			"position %s cannot close while %s", pos.ID, pos.Status)
	}

	m.transition(st, types.PositionStatusClosing, reason, at)

	if pos.AllLegsClosed() {
		// Nothing was ever filled; close completes immediately.
		m.transition(st, types.PositionStatusClosed, reason, at)

		return nil
	}

	m.submitClosingOrders(st, types.OrderActionClose, reason)

	return nil
}

// submitClosingOrders creates one offsetting order per leg with open
// quantity.
func (m *Manager) submitClosingOrders(st *positionState, action types.OrderAction, reason string) {
	pos := st.pos

	for i := range pos.Legs {
		leg := &pos.Legs[i]

		openQty := leg.FilledQuantity - leg.ClosedQuantity
		if openQty <= 0 {
			continue
		}

		side := types.PurchaseTypeSell
		if leg.Side == types.PurchaseTypeSell {
			side = types.PurchaseTypeBuy
		}

		ord := &types.Order{
			ID:         uuid.New().String(),
			PositionID: pos.ID,
			LegIndex:   i,
			Action:     action,
			Symbol:     leg.Symbol,
			Side:       side,
			OrderType:  types.OrderTypeMarket,
			Quantity:   openQty,
			Status:     types.OrderStatusPending,
			Reason:     types.Reason{Reason: reason},
		}

		st.orders[ord.ID] = ord

		m.mu.Lock()
		m.byOrder[ord.ID] = pos.ID
		m.mu.Unlock()

		brokerID, err := m.gw.SubmitOrder(m.ctx, *ord)
		if err != nil {
			m.log.Error("closing order submission failed",
				zap.String("position_id", pos.ID),
				zap.String("order_id", ord.ID),
				zap.Error(err))

			ord.Status = types.OrderStatusFailed
			m.transition(st, types.PositionStatusFailed, "unwind failed: "+err.Error(), time.Now())

			return
		}

		ord.BrokerID = brokerID
		ord.Status = types.OrderStatusSubmitted
		ord.SubmittedAt = time.Now()
	}
}

// handleFillTimeout fires when an opening position is still not fully filled
// after the configured window. Working open orders are cancelled and filled
// quantity is unwound.
func (m *Manager) handleFillTimeout(st *positionState, at time.Time) {
	if st.pos.Status != types.PositionStatusPendingOpen {
		return
	}

	m.log.Warn("fill timeout",
		zap.String("position_id", st.pos.ID),
		zap.Duration("timeout", m.cfg.FillTimeout))

	m.unwindOrFail(st, types.OrderReasonUnwind, at)
}

// unwindOrFail cancels working open orders, then either fails the position
// outright (nothing filled) or unwinds the filled quantity before failing.
func (m *Manager) unwindOrFail(st *positionState, reason string, at time.Time) {
	for _, ord := range st.orders {
		if ord.Action == types.OrderActionOpen && !ord.Status.IsTerminal() && ord.BrokerID != "" {
			if err := m.gw.CancelOrder(m.ctx, ord.BrokerID); err != nil {
				m.log.Warn("cancel failed",
					zap.String("order_id", ord.ID),
					zap.Error(err))
			}

			ord.Status = types.OrderStatusCancelled
		}
	}

	anyFilled := false

	for i := range st.pos.Legs {
		if st.pos.Legs[i].FilledQuantity > st.pos.Legs[i].ClosedQuantity {
			anyFilled = true

			break
		}
	}

	if !anyFilled {
		m.transition(st, types.PositionStatusFailed, reason, at)

		return
	}

	m.transition(st, types.PositionStatusClosing, reason, at)
	m.submitClosingOrders(st, types.OrderActionUnwind, reason)
}

// transition applies a lifecycle edge and publishes the matching event.
func (m *Manager) transition(st *positionState, to types.PositionStatus, reason string, at time.Time) {
	from := st.pos.Status

	if err := Transition(st.pos, to, at); err != nil {
		m.log.Error("invalid lifecycle transition",
			zap.String("position_id", st.pos.ID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err))

		return
	}

	realized, _ := st.pos.RealizedPnL().Float64()

	event := Event{
		SignalID: st.signalID,
		PositionEvent: types.PositionEvent{
			PositionID:  st.pos.ID,
			Symbol:      st.pos.Symbol,
			Strategy:    st.pos.Strategy,
			Type:        eventFor(from, to),
			Risk:        st.pos.Risk,
			RealizedPnL: realized,
			Reason:      reason,
			OccurredAt:  at,
		},
	}

	// Terminal events settle the risk gate's reservations and must never be
	// dropped: the send blocks until the consumer drains or the manager
	// shuts down. Each worker owns one position, so the backpressure is
	// bounded. Intermediate events remain best-effort.
	if event.Type == types.PositionEventClosed || event.Type == types.PositionEventFailed {
		select {
		case m.events <- event:
		case <-m.ctx.Done():
		}
	} else {
		select {
		case m.events <- event:
		default:
			m.log.Warn("position event dropped",
				zap.String("position_id", st.pos.ID),
				zap.String("type", string(event.Type)))
		}
	}

	m.log.Info("position transition",
		zap.String("position_id", st.pos.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("reason", reason))
}
