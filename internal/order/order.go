// Package order implements the order variants, the status finite state
// machine, and the event-sourced mutation protocol: orders change only by
// applying events.
package order

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
)

// Side is the order's buy/sell direction.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// TimeInForce controls how long a working order remains live. The kernel
// only needs to distinguish GTC from the rest for bar-driven matching; IOC
// would never rest, FOK never rests either, but both are included for a
// complete variant set.
type TimeInForce uint8

const (
	GTC TimeInForce = iota
	IOC
	FOK
	GTD
)

// Kind discriminates the closed set of order variants.
type Kind uint8

const (
	Market Kind = iota
	Limit
	StopMarket
	StopLimit
)

func (k Kind) String() string {
	switch k {
	case Market:
		return "MARKET"
	case Limit:
		return "LIMIT"
	case StopMarket:
		return "STOP_MARKET"
	case StopLimit:
		return "STOP_LIMIT"
	default:
		return "UNKNOWN"
	}
}

// Order is event-sourced: every mutation happens through Apply. Variant
// fields (Price, TriggerPrice) are populated according to Kind.
type Order struct {
	Kind           Kind
	ClientOrderId  ids.ClientOrderId
	VenueOrderId   *ids.VenueOrderId
	InstrumentId   ids.InstrumentId
	StrategyId     ids.StrategyId
	Side           Side
	Quantity       money.Quantity
	FilledQty      money.Quantity
	AvgPx          *money.Price
	Status         Status
	TimeInForce    TimeInForce
	EventLog       []Event

	// Limit / StopLimit
	Price *money.Price
	// StopMarket / StopLimit
	TriggerPrice *money.Price
}

// LeavesQty returns Quantity - FilledQty.
func (o Order) LeavesQty() money.Quantity {
	return o.Quantity.Sub(o.FilledQty)
}

// NewMarketOrder constructs an INITIALIZED market order.
func NewMarketOrder(clientOrderId ids.ClientOrderId, instrumentId ids.InstrumentId, strategyId ids.StrategyId, side Side, qty money.Quantity, tif TimeInForce) Order {
	return Order{
		Kind:          Market,
		ClientOrderId: clientOrderId,
		InstrumentId:  instrumentId,
		StrategyId:    strategyId,
		Side:          side,
		Quantity:      qty,
		FilledQty:     money.ZeroQuantity(qty.Precision()),
		Status:        Initialized,
		TimeInForce:   tif,
	}
}

// NewLimitOrder constructs an INITIALIZED limit order.
func NewLimitOrder(clientOrderId ids.ClientOrderId, instrumentId ids.InstrumentId, strategyId ids.StrategyId, side Side, qty money.Quantity, price money.Price, tif TimeInForce) Order {
	o := NewMarketOrder(clientOrderId, instrumentId, strategyId, side, qty, tif)
	o.Kind = Limit
	o.Price = &price
	return o
}

// NewStopMarketOrder constructs an INITIALIZED stop-market order.
func NewStopMarketOrder(clientOrderId ids.ClientOrderId, instrumentId ids.InstrumentId, strategyId ids.StrategyId, side Side, qty money.Quantity, trigger money.Price, tif TimeInForce) Order {
	o := NewMarketOrder(clientOrderId, instrumentId, strategyId, side, qty, tif)
	o.Kind = StopMarket
	o.TriggerPrice = &trigger
	return o
}

// NewStopLimitOrder constructs an INITIALIZED stop-limit order.
func NewStopLimitOrder(clientOrderId ids.ClientOrderId, instrumentId ids.InstrumentId, strategyId ids.StrategyId, side Side, qty money.Quantity, trigger, price money.Price, tif TimeInForce) Order {
	o := NewMarketOrder(clientOrderId, instrumentId, strategyId, side, qty, tif)
	o.Kind = StopLimit
	o.TriggerPrice = &trigger
	o.Price = &price
	return o
}

// Apply mutates the order per the event: resolve the target status, check
// it against the transition table, fold in fill/update payloads, append to
// the event log. It returns an InvariantViolationError — never a panic —
// when the computed transition is not in the allowed successor set, so the
// caller (the execution engine) can abort the backtest deterministically.
func (o *Order) Apply(ev Event) error {
	var next Status

	switch ev.Kind {
	case EventUpdated:
		next = o.Status // OrderUpdated never changes status.
	case EventFilled:
		newFilled := o.FilledQty.Add(ev.LastQty)
		if newFilled.GreaterThanOrEqual(o.Quantity) {
			next = Filled
		} else {
			next = PartiallyFilled
		}
	default:
		var ok bool
		next, ok = eventTargetStatus[ev.Kind]
		if !ok {
			return fmt.Errorf("order: unrecognized event kind %d", ev.Kind)
		}
	}

	if ev.Kind != EventUpdated && !CanTransition(o.Status, next) {
		return &InvariantViolationError{
			ClientOrderId: o.ClientOrderId,
			From:          o.Status,
			To:            next,
			Event:         ev.Kind,
		}
	}

	switch ev.Kind {
	case EventFilled:
		prevFilled := o.FilledQty
		o.FilledQty = prevFilled.Add(ev.LastQty)
		var newAvg money.Price
		if prevFilled.IsZero() {
			newAvg = ev.LastPx
		} else {
			prevNotional := o.AvgPx.Decimal().Mul(prevFilled.Decimal())
			lastNotional := ev.LastPx.Decimal().Mul(ev.LastQty.Decimal())
			total := prevNotional.Add(lastNotional)
			newAvg = money.NewPrice(total.Div(o.FilledQty.Decimal()), ev.LastPx.Precision())
		}
		o.AvgPx = &newAvg
	case EventUpdated:
		if ev.NewQuantity != nil {
			if ev.NewQuantity.LessThan(o.FilledQty) {
				return fmt.Errorf("order: new quantity %s below filled quantity %s", ev.NewQuantity, o.FilledQty)
			}
			o.Quantity = *ev.NewQuantity
		}
		if ev.NewPrice != nil {
			o.Price = ev.NewPrice
		}
		if ev.NewTrigger != nil {
			o.TriggerPrice = ev.NewTrigger
		}
	case EventAccepted, EventSubmitted:
		if ev.VenueOrderId.String() != "" {
			voID := ev.VenueOrderId
			o.VenueOrderId = &voID
		}
	}

	o.Status = next
	o.EventLog = append(o.EventLog, ev)
	return nil
}

// InvariantViolationError is returned by Apply when an event's computed
// transition is not reachable from the order's current status.
type InvariantViolationError struct {
	ClientOrderId ids.ClientOrderId
	From          Status
	To            Status
	Event         EventKind
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("order %s: illegal transition %s -> %s (event kind %d)",
		e.ClientOrderId, e.From, e.To, e.Event)
}
