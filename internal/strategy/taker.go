package strategy

import (
	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/shopspring/decimal"
)

// TakerConfig parameterizes Taker. The kernel carries no L2 depth, so
// instead of order-book imbalance the signal is derived from the bar's
// own range: a bar whose close sits near its high reads as buy pressure,
// and the mirror for sells.
type TakerConfig struct {
	InstrumentId ids.InstrumentId

	// MinRangePct is the minimum distance the close must sit from the
	// bar's midpoint, toward either extreme, to count as a signal, as a
	// fraction of half the H-L range (1 means the close is at the high or
	// the low).
	MinRangePct decimal.Decimal
	OrderSize   money.Quantity
}

// Taker is a reference momentum strategy: it submits a MARKET order in
// the direction the bar's close leans within its own range.
type Taker struct {
	*Base
	cfg TakerConfig
}

func NewTaker(id ids.StrategyId, cfg TakerConfig) *Taker {
	return &Taker{Base: NewBase(id), cfg: cfg}
}

func (t *Taker) OnStart() {
	bt := data.BarType{InstrumentId: t.cfg.InstrumentId, Spec: data.BarSpec{Step: 1, Aggregation: data.AggregationMinute, PriceType: data.PriceLast}}
	t.SubscribeBars(bt, t.onBar)
}

func (t *Taker) onBar(bar data.Bar) {
	rng := bar.High.Decimal().Sub(bar.Low.Decimal())
	if !rng.IsPositive() {
		return
	}
	mid := bar.High.Decimal().Add(bar.Low.Decimal()).Div(decimal.NewFromInt(2))
	lean := bar.Close.Decimal().Sub(mid).Div(rng.Div(decimal.NewFromInt(2)))

	threshold := t.cfg.MinRangePct
	switch {
	case lean.GreaterThanOrEqual(threshold):
		t.SubmitMarketOrder(t.cfg.InstrumentId, order.Buy, t.cfg.OrderSize)
	case lean.LessThanOrEqual(threshold.Neg()):
		t.SubmitMarketOrder(t.cfg.InstrumentId, order.Sell, t.cfg.OrderSize)
	}
}
