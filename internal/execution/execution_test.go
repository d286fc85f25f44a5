package execution

import (
	"testing"

	"github.com/GoPolymarket/backtest-core/internal/bus"
	"github.com/GoPolymarket/backtest-core/internal/cache"
	"github.com/GoPolymarket/backtest-core/internal/clock"
	"github.com/GoPolymarket/backtest-core/internal/exchange"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/instrument"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/GoPolymarket/backtest-core/internal/risk"
	"github.com/shopspring/decimal"
)

func testInstrumentId() ids.InstrumentId {
	return ids.NewInstrumentId(ids.NewSymbol("AAPL"), ids.NewVenue("SIM"))
}

func testCache(instrumentId ids.InstrumentId) *cache.Cache {
	c := cache.New()
	c.AddInstrument(instrument.NewEquity(instrument.Common{
		Id:             instrumentId,
		QuoteCurrency:  money.USD,
		PricePrecision: 2,
		SizePrecision:  0,
		Multiplier:     decimal.NewFromInt(1),
		MaxQuantity:    money.NewQuantityFromFloat(1000000, 0),
	}))
	return c
}

func newEngine(t *testing.T, oms OMS) (*Engine, *cache.Cache, *bus.MessageBus, ids.InstrumentId) {
	t.Helper()
	instrumentId := testInstrumentId()
	c := testCache(instrumentId)
	b := bus.New()
	riskEngine := risk.New(risk.Config{State: risk.Active})
	clk := &clock.TestClock{}
	e := New(oms, c, b, riskEngine, clk)
	return e, c, b, instrumentId
}

func fillEvent(clientOrderId ids.ClientOrderId, side order.Side, qty, px float64, positionId *ids.PositionId) order.Event {
	return order.Event{
		Kind:          order.EventFilled,
		ClientOrderId: clientOrderId,
		TradeId:       ids.NewTradeId("T-SIM-1"),
		LastQty:       money.NewQuantityFromFloat(qty, 0),
		LastPx:        money.NewPriceFromFloat(px, 2),
		Commission:    money.NewMoneyFromFloat(0, money.USD),
		PositionId:    positionId,
	}
}

func submitAndAccept(t *testing.T, e *Engine, b *bus.MessageBus, c *cache.Cache, clientOrderId ids.ClientOrderId, instrumentId ids.InstrumentId, side order.Side, qty float64) {
	t.Helper()
	o := order.NewMarketOrder(clientOrderId, instrumentId, ids.NewStrategyId("S-1"), side, money.NewQuantityFromFloat(qty, 0), order.GTC)
	e.SubmitOrder(&o, instrumentId.Venue())
	b.Send(exchange.ExecutionEngineEndpoint, order.Event{Kind: order.EventAccepted, ClientOrderId: clientOrderId, VenueOrderId: ids.NewVenueOrderId("V-SIM-1")})
}

// TestNettingDispatchReusesSinglePosition: a second fill on the same
// instrument/strategy must mutate the existing open position, not open a
// second one.
func TestNettingDispatchReusesSinglePosition(t *testing.T) {
	e, c, b, instrumentId := newEngine(t, Netting)

	submitAndAccept(t, e, b, c, ids.NewClientOrderId("O-S-1-1"), instrumentId, order.Buy, 10)
	b.Send(exchange.ExecutionEngineEndpoint, fillEvent(ids.NewClientOrderId("O-S-1-1"), order.Buy, 10, 100, nil))

	positions := c.Positions()
	if len(positions) != 1 {
		t.Fatalf("expected one position after the opening fill, got %d", len(positions))
	}
	firstId := positions[0].Id

	submitAndAccept(t, e, b, c, ids.NewClientOrderId("O-S-1-2"), instrumentId, order.Buy, 5)
	b.Send(exchange.ExecutionEngineEndpoint, fillEvent(ids.NewClientOrderId("O-S-1-2"), order.Buy, 5, 101, nil))

	positions = c.Positions()
	if len(positions) != 1 {
		t.Fatalf("NETTING must reuse the single open position, got %d positions", len(positions))
	}
	if positions[0].Id != firstId {
		t.Fatal("NETTING must mutate the existing position, not replace it")
	}
	if !positions[0].Quantity().Equal(money.NewQuantityFromFloat(15, 0)) {
		t.Fatalf("expected accumulated quantity 15, got %s", positions[0].Quantity())
	}
}

// TestHedgingDispatchOpensDistinctPositions: two fills with no shared
// position_id and the instrument already holding an open position should
// still open a second, independent position when explicitly addressed by
// position_id.
func TestHedgingDispatchOpensDistinctPositions(t *testing.T) {
	e, c, b, instrumentId := newEngine(t, Hedging)

	submitAndAccept(t, e, b, c, ids.NewClientOrderId("O-S-1-1"), instrumentId, order.Buy, 10)
	b.Send(exchange.ExecutionEngineEndpoint, fillEvent(ids.NewClientOrderId("O-S-1-1"), order.Buy, 10, 100, nil))

	positions := c.Positions()
	if len(positions) != 1 {
		t.Fatalf("expected one position after the first fill, got %d", len(positions))
	}
	firstId := positions[0].Id

	// A fill tagged with a position_id that does not yet exist in the cache
	// must open a new, independent position rather than reuse the first.
	other := ids.NewPositionId("P-EXTERNAL-1")
	submitAndAccept(t, e, b, c, ids.NewClientOrderId("O-S-1-2"), instrumentId, order.Sell, 3)
	b.Send(exchange.ExecutionEngineEndpoint, fillEvent(ids.NewClientOrderId("O-S-1-2"), order.Sell, 3, 100, &other))

	positions = c.Positions()
	if len(positions) != 2 {
		t.Fatalf("HEDGING with an unresolved position_id must open a distinct position, got %d positions", len(positions))
	}
	if positions[0].Id != firstId {
		t.Fatal("the first position must remain untouched")
	}
}

// TestClosingLossArmsRiskCooldown: a fill that realizes a loss must feed
// the risk engine's consecutive-loss counter, so the cooldown denies the
// next submission.
func TestClosingLossArmsRiskCooldown(t *testing.T) {
	instrumentId := testInstrumentId()
	c := testCache(instrumentId)
	b := bus.New()
	riskEngine := risk.New(risk.Config{State: risk.Active, MaxConsecutiveLosses: 1, ConsecutiveLossCooldownNs: 1000})
	clk := clock.NewTestClock(0)
	e := New(Netting, c, b, riskEngine, clk)

	submitAndAccept(t, e, b, c, ids.NewClientOrderId("O-S-1-1"), instrumentId, order.Buy, 10)
	b.Send(exchange.ExecutionEngineEndpoint, fillEvent(ids.NewClientOrderId("O-S-1-1"), order.Buy, 10, 100, nil))

	submitAndAccept(t, e, b, c, ids.NewClientOrderId("O-S-1-2"), instrumentId, order.Sell, 10)
	b.Send(exchange.ExecutionEngineEndpoint, fillEvent(ids.NewClientOrderId("O-S-1-2"), order.Sell, 10, 90, nil))

	if !riskEngine.DailyPnL().Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("expected the closing loss -100 booked as daily PnL, got %s", riskEngine.DailyPnL())
	}

	var denied bool
	b.Subscribe("events.order.S-1", func(msg any) {
		if ev, ok := msg.(order.Event); ok && ev.Kind == order.EventDenied {
			denied = true
		}
	})
	o := order.NewMarketOrder(ids.NewClientOrderId("O-S-1-3"), instrumentId, ids.NewStrategyId("S-1"), order.Buy, money.NewQuantityFromFloat(10, 0), order.GTC)
	e.SubmitOrder(&o, instrumentId.Venue())
	if !denied {
		t.Fatal("expected the loss cooldown to deny the next submission")
	}
}

// TestSubmitOrderDeniedByRiskNeverReachesVenue exercises the soft-fail path:
// a HALTED risk state must deny the order and never persist it in the cache.
func TestSubmitOrderDeniedByRiskNeverReachesVenue(t *testing.T) {
	instrumentId := testInstrumentId()
	c := testCache(instrumentId)
	b := bus.New()
	riskEngine := risk.New(risk.Config{State: risk.Halted})
	clk := &clock.TestClock{}
	e := New(Netting, c, b, riskEngine, clk)

	var denied bool
	b.Subscribe("events.order.S-1", func(msg any) {
		if ev, ok := msg.(order.Event); ok && ev.Kind == order.EventDenied {
			denied = true
		}
	})

	o := order.NewMarketOrder(ids.NewClientOrderId("O-S-1-1"), instrumentId, ids.NewStrategyId("S-1"), order.Buy, money.NewQuantityFromFloat(10, 0), order.GTC)
	e.SubmitOrder(&o, instrumentId.Venue())

	if !denied {
		t.Fatal("expected an OrderDenied event when the risk engine is HALTED")
	}
	if _, ok := c.Order(ids.NewClientOrderId("O-S-1-1")); ok {
		t.Fatal("a denied order must never be persisted in the cache")
	}
}
