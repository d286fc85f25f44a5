package strategy

import (
	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/shopspring/decimal"
)

// FlowTrackerConfig parameterizes FlowTracker.
type FlowTrackerConfig struct {
	InstrumentId ids.InstrumentId
	// Window is the number of most-recent trades the rolling net-flow and
	// VWAP figures are computed over. A trade-count window, not a
	// time-based one: the kernel delivers discrete TradeTicks rather than
	// a live stream sampled on a wall-clock timer.
	Window    int
	Threshold decimal.Decimal
	OrderSize money.Quantity
}

type tradeSample struct {
	side order.Side
	size decimal.Decimal
	px   decimal.Decimal
}

// FlowTracker is a reference order-flow strategy: it tracks rolling-window
// net flow and VWAP over TradeTicks delivered by the data engine, and
// trades in the direction of sustained one-sided flow.
type FlowTracker struct {
	*Base
	cfg     FlowTrackerConfig
	samples []tradeSample
}

func NewFlowTracker(id ids.StrategyId, cfg FlowTrackerConfig) *FlowTracker {
	return &FlowTracker{Base: NewBase(id), cfg: cfg}
}

func (f *FlowTracker) OnStart() {
	f.SubscribeTrades(f.cfg.InstrumentId, f.onTrade)
}

func (f *FlowTracker) onTrade(tr data.TradeTick) {
	side := order.Buy
	if tr.AggressorSide == data.AggressorSeller {
		side = order.Sell
	}
	f.samples = append(f.samples, tradeSample{side: side, size: tr.Size.Decimal(), px: tr.Price.Decimal()})
	if len(f.samples) > f.cfg.Window {
		f.samples = f.samples[len(f.samples)-f.cfg.Window:]
	}
	if len(f.samples) < f.cfg.Window {
		return
	}

	netFlow := f.netFlow()
	if netFlow.GreaterThanOrEqual(f.cfg.Threshold) {
		f.SubmitMarketOrder(f.cfg.InstrumentId, order.Buy, f.cfg.OrderSize)
	} else if netFlow.LessThanOrEqual(f.cfg.Threshold.Neg()) {
		f.SubmitMarketOrder(f.cfg.InstrumentId, order.Sell, f.cfg.OrderSize)
	}
}

// netFlow is Σ(buy sizes) - Σ(sell sizes) over the current window.
func (f *FlowTracker) netFlow() decimal.Decimal {
	net := decimal.Zero
	for _, s := range f.samples {
		if s.side == order.Buy {
			net = net.Add(s.size)
		} else {
			net = net.Sub(s.size)
		}
	}
	return net
}

// VWAP is the volume-weighted average price over the current window.
func (f *FlowTracker) VWAP() decimal.Decimal {
	notional := decimal.Zero
	volume := decimal.Zero
	for _, s := range f.samples {
		notional = notional.Add(s.size.Mul(s.px))
		volume = volume.Add(s.size)
	}
	if volume.IsZero() {
		return decimal.Zero
	}
	return notional.Div(volume)
}
