// Package exchange implements the simulated exchange: one per configured
// venue, owning that venue's account and one matching engine per
// instrument, and bridging to the execution engine over the message bus's
// point-to-point endpoints.
package exchange

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/account"
	"github.com/GoPolymarket/backtest-core/internal/bus"
	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/instrument"
	"github.com/GoPolymarket/backtest-core/internal/matching"
	"github.com/GoPolymarket/backtest-core/internal/order"
)

// ExecutionEngineEndpoint is the single bus endpoint every Exchange sends
// venue-originated events to.
const ExecutionEngineEndpoint = "ExecutionEngine"

func Endpoint(venue ids.Venue) string {
	return fmt.Sprintf("Exchange.%s", venue)
}

// SubmitOrderCmd is sent to an Exchange endpoint to accept and open an order.
type SubmitOrderCmd struct {
	Order *order.Order
}

// CancelOrderCmd asks the venue to cancel a still-open order.
type CancelOrderCmd struct {
	InstrumentId  ids.InstrumentId
	ClientOrderId ids.ClientOrderId
}

// ModifyOrderCmd asks the venue to acknowledge a working-order modification
// already applied to the order itself by the execution engine.
type ModifyOrderCmd struct {
	InstrumentId  ids.InstrumentId
	ClientOrderId ids.ClientOrderId
}

// Exchange owns one account and one matching engine per instrument for a
// single venue.
type Exchange struct {
	Venue   ids.Venue
	Account *account.Account

	bus     *bus.MessageBus
	counter *matching.Counter

	engines     map[string]*matching.Engine
	instruments map[string]instrument.Instrument
	engineOrder []string
}

func New(venue ids.Venue, acct *account.Account, b *bus.MessageBus) *Exchange {
	e := &Exchange{
		Venue:       venue,
		Account:     acct,
		bus:         b,
		counter:     matching.NewCounter(venue.String()),
		engines:     make(map[string]*matching.Engine),
		instruments: make(map[string]instrument.Instrument),
	}
	b.Register(Endpoint(venue), e.handleCommand)
	return e
}

// AddInstrument registers a tradable instrument and its matching engine.
// Returns an error if the instrument was already registered, or if the
// venue's account holds no balance in the instrument's quote currency —
// a fill denominated in a currency the account was never funded in has
// nowhere to settle.
func (e *Exchange) AddInstrument(instr instrument.Instrument) error {
	key := instr.Common.Id.String()
	if _, exists := e.engines[key]; exists {
		return fmt.Errorf("exchange %s: instrument %s already registered", e.Venue, instr.Common.Id)
	}
	if _, funded := e.Account.Balance(instr.Common.QuoteCurrency); !funded {
		return fmt.Errorf("exchange %s: account %s holds no starting balance in %s, required to settle fills on %s", e.Venue, e.Account.Id, instr.Common.QuoteCurrency.Code, instr.Common.Id)
	}
	e.engines[key] = matching.NewEngine(instr.Common.Id, instr, e.counter)
	e.instruments[key] = instr
	e.engineOrder = append(e.engineOrder, key)
	return nil
}

func (e *Exchange) handleCommand(msg any) {
	switch cmd := msg.(type) {
	case SubmitOrderCmd:
		e.submitOrder(cmd.Order)
	case CancelOrderCmd:
		e.cancelOrder(cmd.InstrumentId, cmd.ClientOrderId)
	case ModifyOrderCmd:
		// The execution engine has already mutated the order's working
		// fields via its own event-sourced Apply; the matching engine
		// shares the same *order.Order pointer, so there is nothing left
		// to copy here.
	}
}

// submitOrder assigns the venue order id, emits OrderAccepted back to the
// execution engine, and opens the order on its instrument's matching engine.
func (e *Exchange) submitOrder(o *order.Order) {
	eng, ok := e.engines[o.InstrumentId.String()]
	if !ok {
		e.bus.Send(ExecutionEngineEndpoint, order.Event{
			Kind:          order.EventRejected,
			ClientOrderId: o.ClientOrderId,
			Reason:        fmt.Sprintf("unknown instrument %s on venue %s", o.InstrumentId, e.Venue),
		})
		return
	}
	voID := e.counter.NextVenueOrderId()
	e.bus.Send(ExecutionEngineEndpoint, order.Event{
		Kind:          order.EventAccepted,
		ClientOrderId: o.ClientOrderId,
		VenueOrderId:  voID,
	})
	eng.ProcessOrder(o)
}

func (e *Exchange) cancelOrder(instrumentId ids.InstrumentId, clientOrderId ids.ClientOrderId) {
	eng, ok := e.engines[instrumentId.String()]
	if !ok || !eng.CancelOrder(clientOrderId) {
		return
	}
	e.bus.Send(ExecutionEngineEndpoint, order.Event{
		Kind:          order.EventCanceled,
		ClientOrderId: clientOrderId,
	})
}

// ProcessBar delegates to the instrument's matching engine and, for every
// resulting fill: compute signed notional, update the account balance,
// then emit OrderFilled to the execution engine.
func (e *Exchange) ProcessBar(bar data.Bar) {
	eng, ok := e.engines[bar.BarType.InstrumentId.String()]
	if !ok {
		return
	}
	for _, fill := range eng.ProcessBar(bar) {
		e.settleFill(fill)
	}
}

func (e *Exchange) settleFill(fill matching.Fill) {
	notional := fill.Qty.Decimal().Mul(fill.Price.Decimal())
	signedNotional := notional.Neg()
	if fill.Order.Side == order.Sell {
		signedNotional = notional
	}

	quoteCurrency := fill.Commission.Currency
	if err := e.Account.ApplyFill(signedNotional, quoteCurrency, fill.Commission, fill.TsEvent); err != nil {
		panic(fmt.Sprintf("exchange %s: %v", e.Venue, err))
	}

	e.bus.Send(ExecutionEngineEndpoint, order.Event{
		Kind:          order.EventFilled,
		ClientOrderId: fill.Order.ClientOrderId,
		TsEvent:       fill.TsEvent,
		TradeId:       fill.TradeId,
		LastQty:       fill.Qty,
		LastPx:        fill.Price,
		Commission:    fill.Commission,
	})
}

// Quote and trade ticks never reach ProcessBar — the backtest driver
// routes them to the data engine only, never to the matching engine.
