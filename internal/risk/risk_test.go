package risk

import (
	"testing"

	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/instrument"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/GoPolymarket/backtest-core/internal/position"
	"github.com/shopspring/decimal"
)

func testInstrument() instrument.Instrument {
	return instrument.NewEquity(instrument.Common{
		Id:             ids.NewInstrumentId(ids.NewSymbol("AAPL"), ids.NewVenue("SIM")),
		QuoteCurrency:  money.USD,
		PricePrecision: 2,
		SizePrecision:  0,
		MinQuantity:    money.NewQuantityFromFloat(1, 0),
		MaxQuantity:    money.NewQuantityFromFloat(1000, 0),
	})
}

func openLongPosition(qty float64, entry float64) *position.Position {
	p := position.New(ids.NewPositionId("P-1"), ids.NewInstrumentId(ids.NewSymbol("AAPL"), ids.NewVenue("SIM")), ids.NewStrategyId("s"), 2, 0)
	_ = p.ApplyFill(position.Fill{Side: order.Buy, LastQty: money.NewQuantityFromFloat(qty, 0), LastPx: money.NewPriceFromFloat(entry, 2), QuoteCurrency: money.USD, TsEvent: 1})
	return p
}

// TestRiskReducingDeniesIncreaseAllowsDecrease: in REDUCING state a BUY
// that grows a long is denied while a SELL that shrinks it passes.
func TestRiskReducingDeniesIncreaseAllowsDecrease(t *testing.T) {
	e := New(Config{State: Reducing})
	instr := testInstrument()
	pos := openLongPosition(10, 50)

	buy := order.NewMarketOrder(ids.NewClientOrderId("O-1"), instr.Common.Id, ids.NewStrategyId("s"), order.Buy, money.NewQuantityFromFloat(1, 0), order.GTC)
	if d := e.Check(&buy, instr, true, pos, 1); d == nil || d.Reason != "REDUCING" {
		t.Fatalf("expected a BUY that increases the long to be denied as REDUCING, got %v", d)
	}

	sell := order.NewMarketOrder(ids.NewClientOrderId("O-2"), instr.Common.Id, ids.NewStrategyId("s"), order.Sell, money.NewQuantityFromFloat(1, 0), order.GTC)
	if d := e.Check(&sell, instr, true, pos, 1); d != nil {
		t.Fatalf("expected a SELL that reduces the long to be allowed, got %v", d)
	}
}

func TestHaltedDeniesEverything(t *testing.T) {
	e := New(Config{State: Halted})
	instr := testInstrument()
	o := order.NewMarketOrder(ids.NewClientOrderId("O-1"), instr.Common.Id, ids.NewStrategyId("s"), order.Buy, money.NewQuantityFromFloat(1, 0), order.GTC)
	if d := e.Check(&o, instr, true, nil, 1); d == nil || d.Reason != "HALTED" {
		t.Fatalf("expected HALTED to deny every order, got %v", d)
	}
}

func TestUnknownInstrumentIsDenied(t *testing.T) {
	e := New(Config{})
	instr := testInstrument()
	o := order.NewMarketOrder(ids.NewClientOrderId("O-1"), instr.Common.Id, ids.NewStrategyId("s"), order.Buy, money.NewQuantityFromFloat(1, 0), order.GTC)
	if d := e.Check(&o, instrument.Instrument{}, false, nil, 1); d == nil {
		t.Fatalf("expected an unregistered instrument to be denied")
	}
}

func TestQuantityOutsideBoundsIsDenied(t *testing.T) {
	e := New(Config{})
	instr := testInstrument()
	o := order.NewMarketOrder(ids.NewClientOrderId("O-1"), instr.Common.Id, ids.NewStrategyId("s"), order.Buy, money.NewQuantityFromFloat(5000, 0), order.GTC)
	if d := e.Check(&o, instr, true, nil, 1); d == nil {
		t.Fatalf("expected a quantity above max_quantity to be denied")
	}
}

func TestLimitPriceMustBePositive(t *testing.T) {
	e := New(Config{})
	instr := testInstrument()
	o := order.NewLimitOrder(ids.NewClientOrderId("O-1"), instr.Common.Id, ids.NewStrategyId("s"),
		order.Buy, money.NewQuantityFromFloat(1, 0), money.NewPriceFromFloat(0, 2), order.GTC)
	if d := e.Check(&o, instr, true, nil, 1); d == nil {
		t.Fatalf("expected a non-positive limit price to be denied")
	}
}

func TestDailyLossLimitDeniesAfterThresholdBreached(t *testing.T) {
	e := New(Config{MaxDailyLoss: decimal.NewFromInt(100)})
	instr := testInstrument()
	e.RecordTradeResult(decimal.NewFromInt(-150), 1)

	o := order.NewMarketOrder(ids.NewClientOrderId("O-1"), instr.Common.Id, ids.NewStrategyId("s"), order.Buy, money.NewQuantityFromFloat(1, 0), order.GTC)
	if d := e.Check(&o, instr, true, nil, 1); d == nil {
		t.Fatalf("expected the daily loss limit to deny further orders")
	}
}

func TestConsecutiveLossCooldownExpires(t *testing.T) {
	e := New(Config{MaxConsecutiveLosses: 2, ConsecutiveLossCooldownNs: 100})
	instr := testInstrument()
	e.RecordTradeResult(decimal.NewFromInt(-10), 0)
	e.RecordTradeResult(decimal.NewFromInt(-10), 0)

	o := order.NewMarketOrder(ids.NewClientOrderId("O-1"), instr.Common.Id, ids.NewStrategyId("s"), order.Buy, money.NewQuantityFromFloat(1, 0), order.GTC)
	if d := e.Check(&o, instr, true, nil, 50); d == nil {
		t.Fatalf("expected the cooldown to be active at ts_ns=50")
	}
	if d := e.Check(&o, instr, true, nil, 150); d != nil {
		t.Fatalf("expected the cooldown to have expired by ts_ns=150, got %v", d)
	}
}
