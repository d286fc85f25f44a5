// Package matching implements the per-(venue, instrument) bar-driven
// matching engine: an ordered open-order book and the fill-check policy
// table that resolves working orders against each new bar's OHLC.
package matching

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/instrument"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
)

// Counter hands out monotonically increasing, per-venue TradeId and
// VenueOrderId values. One Counter is shared by every matching Engine and
// the Simulated Exchange belonging to the same venue.
type Counter struct {
	venue       string
	nextTrade   uint64
	nextVenueID uint64
}

func NewCounter(venue string) *Counter {
	return &Counter{venue: venue}
}

func (c *Counter) NextTradeId() ids.TradeId {
	c.nextTrade++
	return ids.NewTradeId(fmt.Sprintf("T-%s-%d", c.venue, c.nextTrade))
}

func (c *Counter) NextVenueOrderId() ids.VenueOrderId {
	c.nextVenueID++
	return ids.NewVenueOrderId(fmt.Sprintf("V-%s-%d", c.venue, c.nextVenueID))
}

// Fill is what a matching Engine produces when a bar resolves a working
// order. It carries enough to let the Simulated Exchange build an
// OrderFilled event and update the account.
type Fill struct {
	Order      *order.Order
	TradeId    ids.TradeId
	Price      money.Price
	Qty        money.Quantity
	Commission money.Money
	TsEvent    int64
}

// Engine holds the open-order book for one instrument on one venue.
type Engine struct {
	instrumentId ids.InstrumentId
	instrument   instrument.Instrument
	counter      *Counter
	open         []*order.Order
}

func NewEngine(instrumentId ids.InstrumentId, instr instrument.Instrument, counter *Counter) *Engine {
	return &Engine{instrumentId: instrumentId, instrument: instr, counter: counter}
}

// ProcessOrder adds o to the open-order book, in acceptance order. The
// caller (Simulated Exchange) has already assigned the venue order id and
// transitioned the order to ACCEPTED.
func (e *Engine) ProcessOrder(o *order.Order) {
	e.open = append(e.open, o)
}

// CancelOrder removes an order from the open book by client order id. It
// reports whether an order was found and removed.
func (e *Engine) CancelOrder(clientOrderId ids.ClientOrderId) bool {
	for i, o := range e.open {
		if o.ClientOrderId.String() == clientOrderId.String() {
			e.open = append(e.open[:i], e.open[i+1:]...)
			return true
		}
	}
	return false
}

// ModifyOrder reports whether clientOrderId is currently open. Field
// mutation itself happens through the order's event-sourced Apply in the
// execution engine, and the engine holds the same *order.Order pointer —
// there is nothing further for the matching engine to copy. Nothing in the
// kernel calls this method.
func (e *Engine) ModifyOrder(clientOrderId ids.ClientOrderId) bool {
	for _, o := range e.open {
		if o.ClientOrderId.String() == clientOrderId.String() {
			return true
		}
	}
	return false
}

// OpenOrders returns the open book in acceptance order.
func (e *Engine) OpenOrders() []*order.Order {
	out := make([]*order.Order, len(e.open))
	copy(out, e.open)
	return out
}

// ProcessBar resolves every open order against bar's OHLC, in acceptance
// order. A matched order is removed from the book and its fill returned;
// only full fills are modeled — partial fills at the matching level are
// out of scope. The order's own avg-price update and status transition
// are left to the order FSM; Engine only produces the fill facts.
func (e *Engine) ProcessBar(bar data.Bar) []Fill {
	var fills []Fill
	var remaining []*order.Order

	for _, o := range e.open {
		price, ok := checkFill(o, bar)
		if !ok {
			remaining = append(remaining, o)
			continue
		}
		qty := o.LeavesQty()
		notional := e.instrument.Notional(price, qty)
		commission := money.NewMoney(notional.Mul(e.instrument.Common.TakerFee), e.instrument.Common.QuoteCurrency)

		fills = append(fills, Fill{
			Order:      o,
			TradeId:    e.counter.NextTradeId(),
			Price:      price,
			Qty:        qty,
			Commission: commission,
			TsEvent:    bar.TsEvent,
		})
	}
	e.open = remaining
	return fills
}

// checkFill evaluates the fill-check policy table against a bar's OHLC.
// It returns the fill price and true when the order's condition is
// satisfied. A limit that the bar opens through fills at the open, never
// better than the limit itself.
func checkFill(o *order.Order, bar data.Bar) (money.Price, bool) {
	switch o.Kind {
	case order.Market:
		return bar.Open, true

	case order.Limit:
		p := *o.Price
		if o.Side == order.Buy {
			if bar.Low.LessThanOrEqual(p) {
				return money.MinPrice(p, bar.Open), true
			}
			return money.Price{}, false
		}
		if bar.High.GreaterThanOrEqual(p) {
			return money.MaxPrice(p, bar.Open), true
		}
		return money.Price{}, false

	case order.StopMarket:
		t := *o.TriggerPrice
		if o.Side == order.Buy {
			if bar.High.GreaterThanOrEqual(t) {
				return money.MaxPrice(t, bar.Open), true
			}
			return money.Price{}, false
		}
		if bar.Low.LessThanOrEqual(t) {
			return money.MinPrice(t, bar.Open), true
		}
		return money.Price{}, false

	case order.StopLimit:
		t := *o.TriggerPrice
		p := *o.Price
		if o.Side == order.Buy {
			if bar.High.GreaterThanOrEqual(t) && bar.Low.LessThanOrEqual(p) {
				return p, true
			}
			return money.Price{}, false
		}
		if bar.Low.LessThanOrEqual(t) && bar.High.GreaterThanOrEqual(p) {
			return p, true
		}
		return money.Price{}, false

	default:
		return money.Price{}, false
	}
}
