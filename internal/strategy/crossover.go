package strategy

import (
	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
)

// CrossoverConfig parameterizes CrossoverStrategy.
type CrossoverConfig struct {
	InstrumentId ids.InstrumentId
	FastPeriod   int
	SlowPeriod   int
	OrderSize    money.Quantity
}

// CrossoverStrategy is a minimal moving-average-crossover strategy built
// directly against the Indicator contract. It exists to exercise
// SubscribeBars' indicator-then-callback ordering: both SMAs are fed the
// bar before OnBar runs, so a crossover detected this bar is always acted
// on using this bar's updated values, never last bar's.
type CrossoverStrategy struct {
	*Base
	cfg CrossoverConfig

	fast *SMA
	slow *SMA

	wasFastAbove bool
	haveCrossState bool
}

func NewCrossoverStrategy(id ids.StrategyId, cfg CrossoverConfig) *CrossoverStrategy {
	c := &CrossoverStrategy{
		Base: NewBase(id),
		cfg:  cfg,
		fast: NewSMA(cfg.FastPeriod),
		slow: NewSMA(cfg.SlowPeriod),
	}
	return c
}

func (c *CrossoverStrategy) OnStart() {
	bt := data.BarType{InstrumentId: c.cfg.InstrumentId, Spec: data.BarSpec{Step: 1, Aggregation: data.AggregationMinute, PriceType: data.PriceLast}}
	c.RegisterIndicator(bt, c.fast)
	c.RegisterIndicator(bt, c.slow)
	c.SubscribeBars(bt, c.onBar)
}

func (c *CrossoverStrategy) onBar(bar data.Bar) {
	if !c.fast.Initialized() || !c.slow.Initialized() {
		return
	}
	fastAbove := c.fast.Value() > c.slow.Value()

	if !c.haveCrossState {
		c.wasFastAbove = fastAbove
		c.haveCrossState = true
		return
	}

	if fastAbove && !c.wasFastAbove {
		c.SubmitMarketOrder(c.cfg.InstrumentId, order.Buy, c.cfg.OrderSize)
	} else if !fastAbove && c.wasFastAbove {
		c.SubmitMarketOrder(c.cfg.InstrumentId, order.Sell, c.cfg.OrderSize)
	}
	c.wasFastAbove = fastAbove
}
