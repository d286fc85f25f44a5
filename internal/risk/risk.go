// Package risk implements the pre-trade validator: trading state,
// instrument existence, quantity precision/bounds, and price
// precision/bounds checks, in that order, plus an optional daily-loss /
// consecutive-loss-cooldown / drawdown layer a backtest can opt into on
// top of them.
package risk

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/instrument"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/GoPolymarket/backtest-core/internal/position"
	"github.com/shopspring/decimal"
)

// TradingState is the run-wide risk gate state, shared by every venue and
// strategy the engine checks.
type TradingState uint8

const (
	Active TradingState = iota
	Reducing
	Halted
)

func (s TradingState) String() string {
	switch s {
	case Reducing:
		return "REDUCING"
	case Halted:
		return "HALTED"
	default:
		return "ACTIVE"
	}
}

// Denial is returned by Check when an order fails a risk rule. It is never
// an error in the Go sense — it is the data carried by the OrderDenied
// event the execution engine publishes.
type Denial struct {
	Reason string
}

func (d *Denial) Error() string { return d.Reason }

// Config configures the engine's trading state plus the optional
// daily-loss/cooldown/drawdown layer. Every optional field left at its
// zero value disables that check.
type Config struct {
	State TradingState

	MaxDailyLoss              decimal.Decimal
	MaxConsecutiveLosses      int
	ConsecutiveLossCooldownNs int64
	MaxDrawdownPct            decimal.Decimal
}

// Engine validates orders before they reach a venue. It holds no lock —
// the kernel is single-threaded.
type Engine struct {
	cfg Config

	dailyPnL          decimal.Decimal
	consecutiveLosses int
	cooldownUntilNs   int64
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Check runs the four mandatory checks in order, then the optional layer.
// instr and currentPosition may be the zero value / nil when not found —
// callers pass instrumentKnown from their own cache lookup.
func (e *Engine) Check(o *order.Order, instr instrument.Instrument, instrumentKnown bool, currentPosition *position.Position, nowNs int64) *Denial {
	if d := e.checkTradingState(o, currentPosition); d != nil {
		return d
	}
	if !instrumentKnown {
		return &Denial{Reason: fmt.Sprintf("instrument %s not registered", o.InstrumentId)}
	}
	if d := checkQuantity(o, instr); d != nil {
		return d
	}
	if d := checkPrice(o, instr); d != nil {
		return d
	}
	if d := e.checkOptionalLayer(nowNs); d != nil {
		return d
	}
	return nil
}

// checkTradingState: HALTED denies everything; REDUCING denies any order
// that would grow the absolute net position.
func (e *Engine) checkTradingState(o *order.Order, currentPosition *position.Position) *Denial {
	switch e.cfg.State {
	case Halted:
		return &Denial{Reason: "HALTED"}
	case Reducing:
		if increasesAbsoluteNetPosition(o, currentPosition) {
			return &Denial{Reason: "REDUCING"}
		}
	}
	return nil
}

func increasesAbsoluteNetPosition(o *order.Order, currentPosition *position.Position) bool {
	if currentPosition == nil || currentPosition.IsClosed() {
		return true
	}
	signedDelta := o.Quantity.Decimal()
	if o.Side == order.Sell {
		signedDelta = signedDelta.Neg()
	}
	oldSigned := currentPosition.SignedQty
	newSigned := oldSigned.Add(signedDelta)
	return newSigned.Abs().GreaterThan(oldSigned.Abs())
}

// checkQuantity validates precision and min/max bounds.
func checkQuantity(o *order.Order, instr instrument.Instrument) *Denial {
	if o.Quantity.Precision() != instr.Common.SizePrecision {
		return &Denial{Reason: fmt.Sprintf("quantity precision %d != instrument precision %d", o.Quantity.Precision(), instr.Common.SizePrecision)}
	}
	if o.Quantity.LessThan(instr.Common.MinQuantity) {
		return &Denial{Reason: fmt.Sprintf("quantity %s below min_quantity %s", o.Quantity, instr.Common.MinQuantity)}
	}
	if instr.Common.MaxQuantity.IsPositive() && o.Quantity.GreaterThan(instr.Common.MaxQuantity) {
		return &Denial{Reason: fmt.Sprintf("quantity %s above max_quantity %s", o.Quantity, instr.Common.MaxQuantity)}
	}
	return nil
}

// checkPrice validates limit/trigger prices, for limit/stop variants only.
func checkPrice(o *order.Order, instr instrument.Instrument) *Denial {
	if o.Price != nil {
		if d := checkOnePrice(*o.Price, instr, "price"); d != nil {
			return d
		}
	}
	if o.TriggerPrice != nil {
		if d := checkOnePrice(*o.TriggerPrice, instr, "trigger_price"); d != nil {
			return d
		}
	}
	return nil
}

func checkOnePrice(p money.Price, instr instrument.Instrument, label string) *Denial {
	if !p.IsPositive() {
		return &Denial{Reason: fmt.Sprintf("%s must be > 0", label)}
	}
	if p.Precision() != instr.Common.PricePrecision {
		return &Denial{Reason: fmt.Sprintf("%s precision %d != instrument precision %d", label, p.Precision(), instr.Common.PricePrecision)}
	}
	if instr.Common.MinPrice != nil && p.LessThan(*instr.Common.MinPrice) {
		return &Denial{Reason: fmt.Sprintf("%s %s below min_price %s", label, p, *instr.Common.MinPrice)}
	}
	if instr.Common.MaxPrice != nil && p.GreaterThan(*instr.Common.MaxPrice) {
		return &Denial{Reason: fmt.Sprintf("%s %s above max_price %s", label, p, *instr.Common.MaxPrice)}
	}
	return nil
}

// checkOptionalLayer runs the daily-loss/cooldown checks as an
// additional, independently configurable layer atop the mandatory ones.
func (e *Engine) checkOptionalLayer(nowNs int64) *Denial {
	if e.cooldownUntilNs > 0 && nowNs < e.cooldownUntilNs {
		return &Denial{Reason: fmt.Sprintf("loss cooldown active until ts_ns=%d", e.cooldownUntilNs)}
	}
	if e.cfg.MaxDailyLoss.IsPositive() && e.dailyPnL.Neg().GreaterThanOrEqual(e.cfg.MaxDailyLoss) {
		return &Denial{Reason: fmt.Sprintf("daily loss limit reached: %s/%s", e.dailyPnL, e.cfg.MaxDailyLoss.Neg())}
	}
	return nil
}

// RecordTradeResult folds a realized PnL delta into the daily total and
// consecutive-loss counter, arming the cooldown when the configured streak
// length is reached.
func (e *Engine) RecordTradeResult(realizedDelta decimal.Decimal, nowNs int64) {
	e.dailyPnL = e.dailyPnL.Add(realizedDelta)

	switch {
	case realizedDelta.IsNegative():
		e.consecutiveLosses++
	case realizedDelta.IsPositive():
		e.consecutiveLosses = 0
	}

	if e.cfg.MaxConsecutiveLosses > 0 && e.consecutiveLosses >= e.cfg.MaxConsecutiveLosses {
		cooldown := e.cfg.ConsecutiveLossCooldownNs
		if cooldown <= 0 {
			cooldown = int64(15 * 60 * 1e9)
		}
		e.cooldownUntilNs = nowNs + cooldown
	}
}

// EvaluateDrawdown reports whether total PnL against capital has breached
// the configured max drawdown percentage.
func (e *Engine) EvaluateDrawdown(realizedPnL, unrealizedPnL, capital decimal.Decimal) bool {
	if !e.cfg.MaxDrawdownPct.IsPositive() || !capital.IsPositive() {
		return false
	}
	total := realizedPnL.Add(unrealizedPnL)
	drawdownPct := total.Neg().Div(capital)
	return drawdownPct.GreaterThanOrEqual(e.cfg.MaxDrawdownPct)
}

// ResetDaily clears the daily PnL/cooldown/loss-streak state — called by
// the backtest driver whenever a record crosses a day boundary.
func (e *Engine) ResetDaily() {
	e.dailyPnL = decimal.Zero
	e.consecutiveLosses = 0
	e.cooldownUntilNs = 0
}

func (e *Engine) DailyPnL() decimal.Decimal { return e.dailyPnL }
func (e *Engine) State() TradingState { return e.cfg.State }
func (e *Engine) SetState(s TradingState) { e.cfg.State = s }
