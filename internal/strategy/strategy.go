// Package strategy implements the strategy adapter: a polymorphic object
// supplying overridable callbacks, wired at registration time to the
// kernel's clock, cache, portfolio, message bus, order factory, and
// data/execution engine handles. Base supplies the no-op defaults so a
// strategy overriding nothing pays no cost.
package strategy

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/bus"
	"github.com/GoPolymarket/backtest-core/internal/cache"
	"github.com/GoPolymarket/backtest-core/internal/clock"
	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/dataengine"
	"github.com/GoPolymarket/backtest-core/internal/execution"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/GoPolymarket/backtest-core/internal/portfolio"
	"github.com/GoPolymarket/backtest-core/internal/position"
)

// Strategy is the polymorphic interface user strategies implement. Every
// callback is optional — a strategy embedding Base need only override the
// ones it cares about.
type Strategy interface {
	Id() ids.StrategyId

	OnStart()
	OnStop()
	OnReset()

	OnBar(bar data.Bar)
	OnQuoteTick(q data.QuoteTick)
	OnTradeTick(tr data.TradeTick)

	OnOrderDenied(ev order.Event)
	OnOrderSubmitted(ev order.Event)
	OnOrderAccepted(ev order.Event)
	OnOrderRejected(ev order.Event)
	OnOrderCanceled(ev order.Event)
	OnOrderExpired(ev order.Event)
	OnOrderTriggered(ev order.Event)
	OnOrderUpdated(ev order.Event)
	OnOrderFilled(ev order.Event)

	OnPositionOpened(p *position.Position)
	OnPositionChanged(p *position.Position)
	OnPositionClosed(p *position.Position)

	// attach is called once by the driver at registration time, before
	// OnStart, to inject the kernel collaborators. User strategies never
	// call this themselves; it is unexported, so a strategy satisfies the
	// interface by embedding Base, and the driver reaches it through Attach.
	attach(deps Deps)
}

// Deps bundles every collaborator the adapter injects into a strategy at
// registration time.
type Deps struct {
	Clock      clock.Clock
	Cache      *cache.Cache
	Portfolio  *portfolio.Tracker
	Bus        *bus.MessageBus
	DataEngine *dataengine.DataEngine
	Execution  *execution.Engine
	Venue      ids.Venue
	Factory    *OrderFactory
}

// Base implements every Strategy method as a no-op and is meant to be
// embedded by concrete strategies, which override only the callbacks they
// need. It owns the injected Deps and exposes submission helpers that
// delegate to the execution engine.
type Base struct {
	id   ids.StrategyId
	deps Deps

	indicatorsByBarType map[string][]Indicator
	barTypeKeys         []string
}

// NewBase constructs a Base for the given strategy id. Concrete strategies
// should embed *Base (or Base) and call NewBase from their own
// constructor.
func NewBase(id ids.StrategyId) *Base {
	return &Base{id: id, indicatorsByBarType: make(map[string][]Indicator)}
}

func (b *Base) Id() ids.StrategyId { return b.id }

func (b *Base) attach(deps Deps) { b.deps = deps }

func (b *Base) OnStart() {}
func (b *Base) OnStop() {}
func (b *Base) OnReset() {}

func (b *Base) OnBar(data.Bar) {}
func (b *Base) OnQuoteTick(data.QuoteTick) {}
func (b *Base) OnTradeTick(data.TradeTick) {}

func (b *Base) OnOrderDenied(order.Event) {}
func (b *Base) OnOrderSubmitted(order.Event) {}
func (b *Base) OnOrderAccepted(order.Event) {}
func (b *Base) OnOrderRejected(order.Event) {}
func (b *Base) OnOrderCanceled(order.Event) {}
func (b *Base) OnOrderExpired(order.Event) {}
func (b *Base) OnOrderTriggered(order.Event) {}
func (b *Base) OnOrderUpdated(order.Event) {}
func (b *Base) OnOrderFilled(order.Event) {}

func (b *Base) OnPositionOpened(*position.Position) {}
func (b *Base) OnPositionChanged(*position.Position) {}
func (b *Base) OnPositionClosed(*position.Position) {}

// RegisterIndicator wires ind to fire on every bar of bt, in registration
// order, ahead of whatever handler SubscribeBars later installs — so a
// strategy's OnBar always observes indicators already updated for the bar
// it is about to process.
func (b *Base) RegisterIndicator(bt data.BarType, ind Indicator) {
	key := bt.String()
	if _, ok := b.indicatorsByBarType[key]; !ok {
		b.barTypeKeys = append(b.barTypeKeys, key)
	}
	b.indicatorsByBarType[key] = append(b.indicatorsByBarType[key], ind)
}

// SubscribeBars wires a bus subscription for bt whose handler first feeds
// every indicator registered for bt (in registration order), then invokes
// onBar. Strategies call this from OnStart rather than subscribing to the
// bus directly, so indicator ordering is never a strategy's concern.
func (b *Base) SubscribeBars(bt data.BarType, onBar func(data.Bar)) *bus.Subscription {
	return b.deps.DataEngine.SubscribeBars(bt, func(msg any) {
		bar := msg.(data.Bar)
		for _, ind := range b.indicatorsByBarType[bt.String()] {
			ind.HandleBar(bar)
		}
		onBar(bar)
	})
}

// SubscribeQuotes proxies to the data engine.
func (b *Base) SubscribeQuotes(instrumentId ids.InstrumentId, onQuote func(data.QuoteTick)) *bus.Subscription {
	return b.deps.DataEngine.SubscribeQuotes(instrumentId, func(msg any) { onQuote(msg.(data.QuoteTick)) })
}

// SubscribeTrades proxies to the data engine.
func (b *Base) SubscribeTrades(instrumentId ids.InstrumentId, onTrade func(data.TradeTick)) *bus.Subscription {
	return b.deps.DataEngine.SubscribeTrades(instrumentId, func(msg any) { onTrade(msg.(data.TradeTick)) })
}

// NextClientOrderId draws the next id from the attached OrderFactory,
// formatted "O-{strategy_id}-{n}".
func (b *Base) NextClientOrderId() ids.ClientOrderId {
	return b.deps.Factory.Next(b.id)
}

// SubmitMarketOrder builds and submits a MARKET order through the
// execution engine.
func (b *Base) SubmitMarketOrder(instrumentId ids.InstrumentId, side order.Side, qty money.Quantity) ids.ClientOrderId {
	clientOrderId := b.NextClientOrderId()
	o := order.NewMarketOrder(clientOrderId, instrumentId, b.id, side, qty, order.GTC)
	b.deps.Execution.SubmitOrder(&o, b.deps.Venue)
	return clientOrderId
}

// SubmitLimitOrder builds and submits a LIMIT order through the execution
// engine.
func (b *Base) SubmitLimitOrder(instrumentId ids.InstrumentId, side order.Side, qty money.Quantity, price money.Price) ids.ClientOrderId {
	clientOrderId := b.NextClientOrderId()
	o := order.NewLimitOrder(clientOrderId, instrumentId, b.id, side, qty, price, order.GTC)
	b.deps.Execution.SubmitOrder(&o, b.deps.Venue)
	return clientOrderId
}

// SubmitStopMarketOrder builds and submits a STOP_MARKET order.
func (b *Base) SubmitStopMarketOrder(instrumentId ids.InstrumentId, side order.Side, qty money.Quantity, trigger money.Price) ids.ClientOrderId {
	clientOrderId := b.NextClientOrderId()
	o := order.NewStopMarketOrder(clientOrderId, instrumentId, b.id, side, qty, trigger, order.GTC)
	b.deps.Execution.SubmitOrder(&o, b.deps.Venue)
	return clientOrderId
}

// SubmitStopLimitOrder builds and submits a STOP_LIMIT order.
func (b *Base) SubmitStopLimitOrder(instrumentId ids.InstrumentId, side order.Side, qty money.Quantity, trigger, price money.Price) ids.ClientOrderId {
	clientOrderId := b.NextClientOrderId()
	o := order.NewStopLimitOrder(clientOrderId, instrumentId, b.id, side, qty, trigger, price, order.GTC)
	b.deps.Execution.SubmitOrder(&o, b.deps.Venue)
	return clientOrderId
}

// CancelOrder forwards a cancellation request for the venue currently
// attached to this strategy.
func (b *Base) CancelOrder(clientOrderId ids.ClientOrderId, instrumentId ids.InstrumentId) {
	b.deps.Execution.CancelOrder(clientOrderId, instrumentId, b.deps.Venue)
}

// Cache exposes read-only access to the kernel's state store.
func (b *Base) Cache() *cache.Cache { return b.deps.Cache }

// Portfolio exposes read-only aggregation queries.
func (b *Base) Portfolio() *portfolio.Tracker { return b.deps.Portfolio }

// Clock exposes the kernel's logical clock.
func (b *Base) Clock() clock.Clock { return b.deps.Clock }

// Dispatch translates one received event into the single matching
// callback on s. The backtest driver calls this once per event
// published on events.order.{strategy_id} / events.position.{strategy_id};
// strategies never see the raw bus messages directly.
func Dispatch(s Strategy, msg any) {
	switch ev := msg.(type) {
	case order.Event:
		dispatchOrderEvent(s, ev)
	case execution.PositionEvent:
		dispatchPositionEvent(s, ev)
	default:
		panic(fmt.Sprintf("strategy: Dispatch: unrecognized event type %T", msg))
	}
}

func dispatchOrderEvent(s Strategy, ev order.Event) {
	switch ev.Kind {
	case order.EventDenied:
		s.OnOrderDenied(ev)
	case order.EventSubmitted:
		s.OnOrderSubmitted(ev)
	case order.EventAccepted:
		s.OnOrderAccepted(ev)
	case order.EventRejected:
		s.OnOrderRejected(ev)
	case order.EventCanceled:
		s.OnOrderCanceled(ev)
	case order.EventExpired:
		s.OnOrderExpired(ev)
	case order.EventTriggered:
		s.OnOrderTriggered(ev)
	case order.EventUpdated:
		s.OnOrderUpdated(ev)
	case order.EventFilled:
		s.OnOrderFilled(ev)
	}
}

func dispatchPositionEvent(s Strategy, ev execution.PositionEvent) {
	switch ev.Kind {
	case execution.PositionOpened:
		s.OnPositionOpened(ev.Position)
	case execution.PositionChanged:
		s.OnPositionChanged(ev.Position)
	case execution.PositionClosed:
		s.OnPositionClosed(ev.Position)
	}
}

// Attach injects deps into s. Exported for the backtest driver, which is
// the only caller outside this package.
func Attach(s Strategy, deps Deps) { s.attach(deps) }
