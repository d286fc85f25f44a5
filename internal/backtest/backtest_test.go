package backtest

import (
	"reflect"
	"testing"

	"github.com/GoPolymarket/backtest-core/internal/account"
	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/execution"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/instrument"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/GoPolymarket/backtest-core/internal/position"
	"github.com/GoPolymarket/backtest-core/internal/risk"
	"github.com/GoPolymarket/backtest-core/internal/strategy"
	"github.com/shopspring/decimal"
)

// buyOnceStrategy submits a single MARKET buy as soon as it starts, then
// never trades again. Submitting at OnStart — before the driver has fed
// any record — means the order sits open on the exchange's matching queue
// in time to be resolved by the very first bar (the driver routes a bar to
// matching before delivering it to strategies).
type buyOnceStrategy struct {
	*strategy.Base
	instrumentId ids.InstrumentId
	size         money.Quantity
}

func newBuyOnceStrategy(id ids.StrategyId, instrumentId ids.InstrumentId, size money.Quantity) *buyOnceStrategy {
	return &buyOnceStrategy{Base: strategy.NewBase(id), instrumentId: instrumentId, size: size}
}

func (s *buyOnceStrategy) OnStart() {
	s.SubmitMarketOrder(s.instrumentId, order.Buy, s.size)
}

// buySellStrategy buys on the first bar it sees and sells the same size on
// the second, so the round trip closes against whatever the later bar's
// open happens to be.
type buySellStrategy struct {
	*strategy.Base
	instrumentId ids.InstrumentId
	size         money.Quantity
	bars         int
}

func newBuySellStrategy(id ids.StrategyId, instrumentId ids.InstrumentId, size money.Quantity) *buySellStrategy {
	return &buySellStrategy{Base: strategy.NewBase(id), instrumentId: instrumentId, size: size}
}

func (s *buySellStrategy) OnStart() {
	bt := data.BarType{InstrumentId: s.instrumentId, Spec: data.BarSpec{Step: 1, Aggregation: data.AggregationMinute, PriceType: data.PriceLast}}
	s.SubscribeBars(bt, s.onBar)
}

func (s *buySellStrategy) onBar(data.Bar) {
	s.bars++
	switch s.bars {
	case 1:
		s.SubmitMarketOrder(s.instrumentId, order.Buy, s.size)
	case 2:
		s.SubmitMarketOrder(s.instrumentId, order.Sell, s.size)
	}
}

func buildEquity(instrumentId ids.InstrumentId) instrument.Instrument {
	return instrument.NewEquity(instrument.Common{
		Id:             instrumentId,
		QuoteCurrency:  money.USD,
		PricePrecision: 2,
		SizePrecision:  0,
		Multiplier:     decimal.NewFromInt(1),
		TakerFee:       decimal.NewFromFloat(0.001),
		MaxQuantity:    money.NewQuantityFromFloat(1000000, 0),
	})
}

func bar(instrumentId ids.InstrumentId, o, hi, lo, c float64, ts int64) data.Bar {
	bt := data.BarType{InstrumentId: instrumentId, Spec: data.BarSpec{Step: 1, Aggregation: data.AggregationMinute, PriceType: data.PriceLast}}
	mk := func(v float64) money.Price { return money.NewPriceFromFloat(v, 2) }
	return data.Bar{BarType: bt, Open: mk(o), High: mk(hi), Low: mk(lo), Close: mk(c), Volume: money.NewQuantityFromFloat(1000, 0), TsEvent: ts}
}

func newDriverWithOneVenue(t *testing.T, riskCfg risk.Config) (*Driver, ids.InstrumentId) {
	t.Helper()
	d := New(execution.Netting, riskCfg)
	venue, err := d.AddVenue("SIM", account.Cash, money.USD, []money.Money{money.NewMoneyFromFloat(100000, money.USD)}, decimal.Zero)
	if err != nil {
		t.Fatalf("AddVenue: %v", err)
	}
	instrumentId := ids.NewInstrumentId(ids.NewSymbol("AAPL"), venue)
	if err := d.AddInstrument(buildEquity(instrumentId), venue); err != nil {
		t.Fatalf("AddInstrument: %v", err)
	}
	return d, instrumentId
}

// TestBuyAndHoldSingleBar: a strategy buys once on the first
// bar and holds; ending balance should reflect exactly one fill's notional
// and commission, and the position stays open (no second fill to close it).
func TestBuyAndHoldSingleBar(t *testing.T) {
	d, instrumentId := newDriverWithOneVenue(t, risk.Config{State: risk.Active})

	strat := newBuyOnceStrategy(ids.NewStrategyId("buyhold"), instrumentId, money.NewQuantityFromFloat(10, 0))
	d.AddStrategy(strat)
	d.AddData([]data.Record{bar(instrumentId, 100, 101, 99, 100, 1)})

	if err := d.Run(nil, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	result := d.GetResult()
	if result.TotalOrders != 1 {
		t.Fatalf("expected exactly one order, got %d", result.TotalOrders)
	}
	if result.TotalFills != 1 {
		t.Fatalf("expected exactly one fill, got %d", result.TotalFills)
	}
	if result.TotalPositions != 1 {
		t.Fatalf("expected exactly one position opened, got %d", result.TotalPositions)
	}
	positions := d.cache.Positions()
	if positions[0].IsClosed() {
		t.Fatal("expected the single opening fill to leave the position open (buy-and-hold)")
	}

	wantNotional := decimal.NewFromInt(10).Mul(decimal.NewFromInt(100))
	wantCommission := wantNotional.Mul(decimal.NewFromFloat(0.001))
	wantDelta := wantNotional.Neg().Sub(wantCommission)
	gotDelta := result.EndingBalance.Amount.Sub(result.StartingBalance.Amount)
	if !gotDelta.Equal(wantDelta) {
		t.Fatalf("expected ending balance to move by %s (cost + commission of the single buy), got %s", wantDelta, gotDelta)
	}
}

// TestRiskReducingDeniesIncreasingOrder: with the risk
// engine in REDUCING state, an order that would increase net exposure from
// flat is denied and never reaches the exchange.
func TestRiskReducingDeniesIncreasingOrder(t *testing.T) {
	d, instrumentId := newDriverWithOneVenue(t, risk.Config{State: risk.Reducing})

	var denied bool
	strat := newBuyOnceStrategy(ids.NewStrategyId("reducing"), instrumentId, money.NewQuantityFromFloat(10, 0))
	d.AddStrategy(strat)
	d.bus.Subscribe(orderTopic(strat.Id()), func(msg any) {
		if ev, ok := msg.(order.Event); ok && ev.Kind == order.EventDenied {
			denied = true
		}
	})
	d.AddData([]data.Record{bar(instrumentId, 100, 101, 99, 100, 1)})

	if err := d.Run(nil, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !denied {
		t.Fatal("expected the REDUCING risk state to deny an order that increases net exposure from flat")
	}
	result := d.GetResult()
	if result.TotalFills != 0 {
		t.Fatalf("expected a denied order to never reach the exchange, got %d fills", result.TotalFills)
	}
}

// TestDrawdownBreachHaltsTrading: once mark-to-market losses on an open
// position breach the configured drawdown fraction of starting capital,
// the driver flips the risk engine to HALTED so nothing further trades.
func TestDrawdownBreachHaltsTrading(t *testing.T) {
	d, instrumentId := newDriverWithOneVenue(t, risk.Config{State: risk.Active, MaxDrawdownPct: decimal.NewFromFloat(0.01)})

	strat := newBuyOnceStrategy(ids.NewStrategyId("dd"), instrumentId, money.NewQuantityFromFloat(50, 0))
	d.AddStrategy(strat)
	d.AddData([]data.Record{
		bar(instrumentId, 100, 101, 99, 100, 1),
		// Open drops to 50: unrealized = 50 * (50 - 100) = -2500, 2.5% of
		// the 100000 starting capital.
		bar(instrumentId, 50, 51, 49, 50, 2),
	})

	if err := d.Run(nil, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.riskEngine.State() != risk.Halted {
		t.Fatalf("expected the drawdown breach to halt trading, state is %s", d.riskEngine.State())
	}
}

// TestDailyRiskStateResetsAtDayBoundary: a loss realized on one day must
// not count against the next day's loss budget.
func TestDailyRiskStateResetsAtDayBoundary(t *testing.T) {
	d, instrumentId := newDriverWithOneVenue(t, risk.Config{State: risk.Active, MaxDailyLoss: decimal.NewFromInt(100000)})

	strat := newBuySellStrategy(ids.NewStrategyId("daily"), instrumentId, money.NewQuantityFromFloat(10, 0))
	d.AddStrategy(strat)
	d.AddData([]data.Record{
		bar(instrumentId, 100, 101, 99, 100, 1),
		bar(instrumentId, 100, 101, 99, 100, 2), // buy fills at 100
		bar(instrumentId, 90, 91, 89, 90, 3),    // sell fills at 90, realizing -100
		bar(instrumentId, 90, 91, 89, 90, nsPerDay+1),
	})

	if err := d.Run(nil, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	positions := d.cache.Positions()
	if len(positions) != 1 || !positions[0].IsClosed() {
		t.Fatalf("expected one closed round trip, got %+v", positions)
	}
	if !positions[0].TotalRealizedPnL().Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("expected realized -100, got %s", positions[0].TotalRealizedPnL())
	}
	if !d.riskEngine.DailyPnL().IsZero() {
		t.Fatalf("expected the day boundary to reset daily PnL, got %s", d.riskEngine.DailyPnL())
	}
}

// TestWinRateCountsBreakevenClosedPositions: a breakeven close is neither
// a win nor a loss but still belongs in win_rate's denominator.
func TestWinRateCountsBreakevenClosedPositions(t *testing.T) {
	d, instrumentId := newDriverWithOneVenue(t, risk.Config{State: risk.Active})
	venue := instrumentId.Venue()

	roundTrip := func(id string, entry, exit float64) *position.Position {
		p := position.New(ids.NewPositionId(id), instrumentId, ids.NewStrategyId("s"), 2, 0)
		_ = p.ApplyFill(position.Fill{Side: order.Buy, LastQty: money.NewQuantityFromFloat(1, 0), LastPx: money.NewPriceFromFloat(entry, 2), QuoteCurrency: money.USD, TsEvent: 1})
		_ = p.ApplyFill(position.Fill{Side: order.Sell, LastQty: money.NewQuantityFromFloat(1, 0), LastPx: money.NewPriceFromFloat(exit, 2), QuoteCurrency: money.USD, TsEvent: 2})
		return p
	}
	d.cache.AddPosition(roundTrip("P-1", 100, 110), venue) // win
	d.cache.AddPosition(roundTrip("P-2", 100, 100), venue) // breakeven
	d.cache.AddPosition(roundTrip("P-3", 100, 90), venue)  // loss

	fills, closedCount, wins, losses := d.positionStats()
	if fills != 6 || closedCount != 3 || len(wins) != 1 || len(losses) != 1 {
		t.Fatalf("positionStats: fills=%d closed=%d wins=%d losses=%d", fills, closedCount, len(wins), len(losses))
	}
	if got, want := winRate(wins, closedCount), 1.0/3.0; got != want {
		t.Fatalf("expected win rate %v with a breakeven in the denominator, got %v", want, got)
	}
}

// TestRunTwiceFromResetIsDeterministic runs the same configuration twice,
// calling Reset in between, and asserts the two BacktestResults are
// identical.
func TestRunTwiceFromResetIsDeterministic(t *testing.T) {
	d, instrumentId := newDriverWithOneVenue(t, risk.Config{State: risk.Active})

	strat := newBuyOnceStrategy(ids.NewStrategyId("det"), instrumentId, money.NewQuantityFromFloat(5, 0))
	d.AddStrategy(strat)
	bars := []data.Record{
		bar(instrumentId, 100, 102, 98, 101, 1),
		bar(instrumentId, 101, 103, 100, 102, 2),
		bar(instrumentId, 102, 104, 101, 99, 3),
	}
	d.AddData(bars)

	if err := d.Run(nil, nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := d.GetResult()

	d.Reset()
	if err := d.Run(nil, nil); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second := d.GetResult()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results from two runs of the same configuration, got:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
