// Package execution implements the execution engine: order lifecycle
// orchestration through the pre-trade risk gate, and the NETTING/HEDGING
// dispatch that turns OrderFilled events into position mutations.
package execution

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/cache"
	"github.com/GoPolymarket/backtest-core/internal/clock"
	"github.com/GoPolymarket/backtest-core/internal/exchange"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/GoPolymarket/backtest-core/internal/position"
	"github.com/GoPolymarket/backtest-core/internal/risk"

	"github.com/GoPolymarket/backtest-core/internal/bus"
)

// OMS selects how fills aggregate into positions.
type OMS uint8

const (
	Netting OMS = iota
	Hedging
)

// PositionEventKind discriminates the position lifecycle notifications
// published on events.position.{strategy_id}.
type PositionEventKind uint8

const (
	PositionOpened PositionEventKind = iota
	PositionChanged
	PositionClosed
)

// PositionEvent is published whenever a fill creates, changes, or closes a
// position.
type PositionEvent struct {
	Kind     PositionEventKind
	Position *position.Position
	TsEvent  int64
}

// Engine orchestrates order submission, cancellation, modification, and the
// venue event feedback loop for every venue in the backtest. One Engine
// serves the whole run — venue-originated events all arrive on the single
// "ExecutionEngine" bus endpoint.
type Engine struct {
	oms   OMS
	cache *cache.Cache
	bus   *bus.MessageBus
	risk  *risk.Engine
	clock clock.Clock

	positionSeq map[string]uint64 // venue -> next position sequence number
}

func New(oms OMS, c *cache.Cache, b *bus.MessageBus, riskEngine *risk.Engine, clk clock.Clock) *Engine {
	e := &Engine{
		oms:         oms,
		cache:       c,
		bus:         b,
		risk:        riskEngine,
		clock:       clk,
		positionSeq: make(map[string]uint64),
	}
	b.Register(exchange.ExecutionEngineEndpoint, e.handleVenueEvent)
	return e
}

func orderTopic(strategyId ids.StrategyId) string {
	return fmt.Sprintf("events.order.%s", strategyId)
}

func positionTopic(strategyId ids.StrategyId) string {
	return fmt.Sprintf("events.position.%s", strategyId)
}

// SubmitOrder runs the risk gate; on deny it publishes OrderDenied without
// persisting the order. On pass it caches the order, transitions it to
// SUBMITTED, and routes it to the venue.
func (e *Engine) SubmitOrder(o *order.Order, venue ids.Venue) {
	instr, known := e.cache.Instrument(o.InstrumentId)

	var current *position.Position
	if known {
		current, _ = e.cache.OpenPositionForInstrumentStrategy(o.InstrumentId, o.StrategyId)
	}

	if d := e.risk.Check(o, instr, known, current, e.clock.NowNs()); d != nil {
		e.bus.Publish(orderTopic(o.StrategyId), order.Event{
			Kind:          order.EventDenied,
			ClientOrderId: o.ClientOrderId,
			Reason:        d.Reason,
			TsEvent:       e.clock.NowNs(),
		})
		return
	}

	e.cache.AddOrder(o, venue)
	e.applyAndPublish(o, order.Event{Kind: order.EventSubmitted, ClientOrderId: o.ClientOrderId, TsEvent: e.clock.NowNs()})
	e.bus.Send(exchange.Endpoint(venue), exchange.SubmitOrderCmd{Order: o})
}

// CancelOrder forwards a cancellation request to the venue. If the order
// was still open there, the venue's OrderCanceled event is applied through
// handleVenueEvent before CancelOrder returns.
func (e *Engine) CancelOrder(clientOrderId ids.ClientOrderId, instrumentId ids.InstrumentId, venue ids.Venue) {
	e.bus.Send(exchange.Endpoint(venue), exchange.CancelOrderCmd{InstrumentId: instrumentId, ClientOrderId: clientOrderId})
}

// ModifyOrder applies OrderUpdated to the cached order directly — a
// modification of an already-accepted working order never re-runs the
// risk gate — then forwards acknowledgement to the venue.
func (e *Engine) ModifyOrder(clientOrderId ids.ClientOrderId, instrumentId ids.InstrumentId, venue ids.Venue, newQty *money.Quantity, newPrice, newTrigger *money.Price) error {
	o, ok := e.cache.Order(clientOrderId)
	if !ok {
		return fmt.Errorf("execution: modify_order: order %s not found", clientOrderId)
	}
	ev := order.Event{
		Kind:          order.EventUpdated,
		ClientOrderId: clientOrderId,
		TsEvent:       e.clock.NowNs(),
		NewQuantity:   newQty,
		NewPrice:      newPrice,
		NewTrigger:    newTrigger,
	}
	if err := e.applyAndPublish(o, ev); err != nil {
		return err
	}
	e.bus.Send(exchange.Endpoint(venue), exchange.ModifyOrderCmd{InstrumentId: instrumentId, ClientOrderId: clientOrderId})
	return nil
}

// handleVenueEvent is registered on the ExecutionEngineEndpoint: every
// venue-originated order.Event arrives here.
func (e *Engine) handleVenueEvent(msg any) {
	ev, ok := msg.(order.Event)
	if !ok {
		return
	}
	o, ok := e.cache.Order(ev.ClientOrderId)
	if !ok {
		panic(fmt.Sprintf("execution: event for unknown order %s", ev.ClientOrderId))
	}
	if err := e.applyAndPublish(o, ev); err != nil {
		panic(err)
	}
	if ev.IsFill() {
		e.dispatchFill(o, ev)
	}
}

// applyAndPublish mutates o via its event-sourced Apply, then publishes the
// event on the strategy's order topic. A non-nil error from Apply is an
// invariant violation — fatal — surfaced to the caller rather than
// swallowed.
func (e *Engine) applyAndPublish(o *order.Order, ev order.Event) error {
	if err := o.Apply(ev); err != nil {
		return err
	}
	e.bus.Publish(orderTopic(o.StrategyId), ev)
	return nil
}

// dispatchFill routes a fill to its position per the OMS discipline:
// NETTING folds every fill into the one open position per
// (instrument, strategy); HEDGING keeps independent legs.
func (e *Engine) dispatchFill(o *order.Order, ev order.Event) {
	fill := position.Fill{
		Side:          o.Side,
		LastQty:       ev.LastQty,
		LastPx:        ev.LastPx,
		QuoteCurrency: ev.Commission.Currency,
		Commission:    ev.Commission,
		TsEvent:       ev.TsEvent,
	}

	var pos *position.Position
	var isNew bool

	switch e.oms {
	case Netting:
		existing, ok := e.cache.OpenPositionForInstrumentStrategy(o.InstrumentId, o.StrategyId)
		if ok {
			pos = existing
		} else {
			pos = e.openPosition(o)
			isNew = true
		}
	case Hedging:
		switch {
		case ev.PositionId != nil:
			// A fill addressed to a specific position goes to that position;
			// an id the cache has never seen opens a fresh leg under it.
			if p, ok := e.cache.Position(*ev.PositionId); ok {
				pos = p
			} else {
				pos = e.openPositionWithId(o, *ev.PositionId)
				isNew = true
			}
		default:
			if existing, ok := e.firstOpenPositionForInstrument(o); ok {
				pos = existing
			} else {
				pos = e.openPosition(o)
				isNew = true
			}
		}
	}

	realizedBefore := pos.TotalRealizedPnL()
	if err := pos.ApplyFill(fill); err != nil {
		panic(fmt.Sprintf("execution: %v", err))
	}
	// A reducing or closing fill realizes PnL; feed the delta to the risk
	// engine so its daily-loss and consecutive-loss-cooldown state tracks
	// the run.
	if delta := pos.TotalRealizedPnL().Sub(realizedBefore); !delta.IsZero() {
		e.risk.RecordTradeResult(delta, e.clock.NowNs())
	}

	kind := PositionChanged
	switch {
	case isNew:
		kind = PositionOpened
	case pos.IsClosed():
		kind = PositionClosed
	}
	e.bus.Publish(positionTopic(o.StrategyId), PositionEvent{Kind: kind, Position: pos, TsEvent: ev.TsEvent})
}

func (e *Engine) firstOpenPositionForInstrument(o *order.Order) (*position.Position, bool) {
	for _, p := range e.cache.PositionsForInstrument(o.InstrumentId) {
		if p.StrategyId.String() == o.StrategyId.String() && !p.IsClosed() {
			return p, true
		}
	}
	return nil, false
}

func (e *Engine) openPosition(o *order.Order) *position.Position {
	venue := o.InstrumentId.Venue()
	e.positionSeq[venue.String()]++
	id := ids.NewPositionId(fmt.Sprintf("P-%s-%d", venue, e.positionSeq[venue.String()]))
	return e.openPositionWithId(o, id)
}

func (e *Engine) openPositionWithId(o *order.Order, id ids.PositionId) *position.Position {
	instr, _ := e.cache.Instrument(o.InstrumentId)
	pos := position.New(id, o.InstrumentId, o.StrategyId, instr.Common.PricePrecision, instr.Common.SizePrecision)
	e.cache.AddPosition(pos, o.InstrumentId.Venue())
	return pos
}
