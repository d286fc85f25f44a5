package cache

import (
	"testing"

	"github.com/GoPolymarket/backtest-core/internal/account"
	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/GoPolymarket/backtest-core/internal/position"
)

func testInstrumentId() ids.InstrumentId {
	return ids.NewInstrumentId(ids.NewSymbol("BTC-USD"), ids.NewVenue("SIM"))
}

func TestOrdersIndexedByVenueStrategyInstrumentPreserveInsertionOrder(t *testing.T) {
	c := New()
	venue := ids.NewVenue("SIM")
	strategyA := ids.NewStrategyId("strat-a")
	instrumentId := testInstrumentId()

	qty := money.NewQuantityFromFloat(10, 0)
	o1 := order.NewMarketOrder(ids.NewClientOrderId("O-1"), instrumentId, strategyA, order.Buy, qty, order.GTC)
	o2 := order.NewMarketOrder(ids.NewClientOrderId("O-2"), instrumentId, strategyA, order.Sell, qty, order.GTC)

	c.AddOrder(&o1, venue)
	c.AddOrder(&o2, venue)

	got := c.OrdersForStrategy(strategyA)
	if len(got) != 2 || got[0].ClientOrderId.String() != "O-1" || got[1].ClientOrderId.String() != "O-2" {
		t.Fatalf("expected orders in insertion order, got %v", got)
	}

	byVenue := c.OrdersForVenue(venue)
	if len(byVenue) != 2 {
		t.Fatalf("expected both orders indexed under the venue, got %d", len(byVenue))
	}

	byInstrument := c.OrdersForInstrument(instrumentId)
	if len(byInstrument) != 2 {
		t.Fatalf("expected both orders indexed under the instrument, got %d", len(byInstrument))
	}
}

func TestOpenPositionLookupFindsOpenPosition(t *testing.T) {
	c := New()
	instrumentId := testInstrumentId()
	strategyId := ids.NewStrategyId("strat-a")
	venue := ids.NewVenue("SIM")

	p := position.New(ids.NewPositionId("P-1"), instrumentId, strategyId, 2, 0)
	c.AddPosition(p, venue)

	found, ok := c.OpenPositionForInstrumentStrategy(instrumentId, strategyId)
	if !ok || found.Id.String() != "P-1" {
		t.Fatalf("expected to find the open position")
	}
}

func TestBarQuoteTradeSeriesAppendInOrder(t *testing.T) {
	c := New()
	instrumentId := testInstrumentId()
	bt := data.BarType{InstrumentId: instrumentId, Spec: data.BarSpec{Step: 1, Aggregation: data.AggregationMinute, PriceType: data.PriceLast}}

	b1 := data.Bar{BarType: bt, TsEvent: 1}
	b2 := data.Bar{BarType: bt, TsEvent: 2}
	c.AddBar(b1)
	c.AddBar(b2)

	series := c.Bars(bt)
	if len(series) != 2 || series[0].TsEvent != 1 || series[1].TsEvent != 2 {
		t.Fatalf("expected bars in append order, got %v", series)
	}

	latest, ok := c.LatestBar(bt)
	if !ok || latest.TsEvent != 2 {
		t.Fatalf("expected latest bar to be the most recently appended")
	}
}

func TestAccountLookupByIdRoundTrips(t *testing.T) {
	c := New()
	id := ids.NewAccountId("SIM-NETTING")
	a := account.NewCashAccount(id, money.USD)
	c.AddAccount(a)

	got, ok := c.Account(id)
	if !ok || got.Id.String() != id.String() {
		t.Fatalf("expected account lookup to round-trip")
	}
}
