// Package position implements the position accounting model:
// NETTING/HEDGING aware, weighted-average entry price, signed quantity,
// realized/unrealized PnL.
package position

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/shopspring/decimal"
)

// Side is derived from the sign of SignedQty.
type Side uint8

const (
	Flat Side = iota
	Long
	Short
)

func (s Side) String() string {
	switch s {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// Fill is the minimal input ApplyFill needs from an OrderFilled event.
type Fill struct {
	Side          order.Side
	LastQty       money.Quantity
	LastPx        money.Price
	QuoteCurrency money.Currency
	Commission    money.Money
	TsEvent       int64
}

// Position tracks signed size, weighted-average entry, and realized PnL for
// one (instrument, strategy) — or one leg of it under HEDGING.
type Position struct {
	Id           ids.PositionId
	InstrumentId ids.InstrumentId
	StrategyId   ids.StrategyId

	SignedQty    decimal.Decimal
	precision    uint8
	AvgEntryPx   money.Price
	RealizedPnL  map[string]decimal.Decimal // currency code -> amount
	Commissions  map[string]decimal.Decimal // currency code -> amount

	TsOpened int64
	TsClosed *int64

	Events []Fill
}

// New creates a flat position ready to receive its first fill.
func New(id ids.PositionId, instrumentId ids.InstrumentId, strategyId ids.StrategyId, pricePrecision, sizePrecision uint8) *Position {
	return &Position{
		Id:           id,
		InstrumentId: instrumentId,
		StrategyId:   strategyId,
		SignedQty:    decimal.Zero,
		precision:    sizePrecision,
		AvgEntryPx:   money.NewPrice(decimal.Zero, pricePrecision),
		RealizedPnL:  make(map[string]decimal.Decimal),
		Commissions:  make(map[string]decimal.Decimal),
	}
}

func (p *Position) Side() Side {
	switch {
	case p.SignedQty.IsPositive():
		return Long
	case p.SignedQty.IsNegative():
		return Short
	default:
		return Flat
	}
}

func (p *Position) Quantity() money.Quantity {
	return money.NewQuantity(p.SignedQty.Abs(), p.precision)
}

func (p *Position) IsClosed() bool { return p.TsClosed != nil }

// ApplyFill folds one fill into the position: add in the same direction
// (or open from flat), reduce without flip, or flip through zero.
func (p *Position) ApplyFill(f Fill) error {
	if p.IsClosed() {
		return fmt.Errorf("position %s: already closed, cannot apply further fills", p.Id)
	}

	dq := f.LastQty.Decimal()
	if f.Side == order.Sell {
		dq = dq.Neg()
	}

	oldSigned := p.SignedQty
	sameDirection := oldSigned.IsZero() || oldSigned.Sign() == dq.Sign()

	if sameDirection {
		p.applyAdd(oldSigned, dq, f)
	} else if dq.Abs().LessThanOrEqual(oldSigned.Abs()) {
		p.applyReduce(oldSigned, dq, f)
	} else {
		p.applyFlip(oldSigned, dq, f)
	}

	p.accumulateCommission(f.Commission)
	p.Events = append(p.Events, f)

	if p.TsOpened == 0 && !p.SignedQty.IsZero() {
		p.TsOpened = f.TsEvent
	}
	if p.SignedQty.IsZero() && len(p.Events) > 0 {
		ts := f.TsEvent
		p.TsClosed = &ts
	}
	return nil
}

// applyAdd: adding in the same direction, or opening from flat.
func (p *Position) applyAdd(oldSigned, dq decimal.Decimal, f Fill) {
	oldAbs := oldSigned.Abs()
	newAbs := oldAbs.Add(dq.Abs())
	if newAbs.IsPositive() {
		numerator := oldAbs.Mul(p.AvgEntryPx.Decimal()).Add(f.LastQty.Decimal().Mul(f.LastPx.Decimal()))
		p.AvgEntryPx = money.NewPrice(numerator.Div(newAbs), f.LastPx.Precision())
	}
	p.SignedQty = oldSigned.Add(dq)
}

// applyReduce: reducing without flip.
func (p *Position) applyReduce(oldSigned, dq decimal.Decimal, f Fill) {
	p.realize(f.LastQty.Decimal(), f.LastPx, f.QuoteCurrency)
	p.SignedQty = oldSigned.Add(dq)
}

// applyFlip: close the existing side fully, then open a new leg.
func (p *Position) applyFlip(oldSigned, dq decimal.Decimal, f Fill) {
	closeQty := oldSigned.Abs()
	openQty := dq.Abs().Sub(closeQty)

	p.realize(closeQty, f.LastPx, f.QuoteCurrency)

	p.SignedQty = decimal.Zero
	if dq.IsPositive() {
		p.SignedQty = openQty
	} else {
		p.SignedQty = openQty.Neg()
	}
	p.AvgEntryPx = f.LastPx
}

// realize books Δrealized = qty * (last_px - avg_entry) for a LONG being
// reduced, qty * (avg_entry - last_px) for a SHORT being reduced.
func (p *Position) realize(qty decimal.Decimal, lastPx money.Price, currency money.Currency) {
	var delta decimal.Decimal
	if p.Side() == Long {
		delta = qty.Mul(lastPx.Decimal().Sub(p.AvgEntryPx.Decimal()))
	} else {
		delta = qty.Mul(p.AvgEntryPx.Decimal().Sub(lastPx.Decimal()))
	}
	prev, ok := p.RealizedPnL[currency.Code]
	if !ok {
		prev = decimal.Zero
	}
	p.RealizedPnL[currency.Code] = prev.Add(delta)
}

func (p *Position) accumulateCommission(c money.Money) {
	if c.Currency.Code == "" {
		return
	}
	prev, ok := p.Commissions[c.Currency.Code]
	if !ok {
		prev = decimal.Zero
	}
	p.Commissions[c.Currency.Code] = prev.Add(c.Amount)
}

// UnrealizedPnL is computed on the current signed quantity and avg entry;
// it is never fed back into RealizedPnL.
func (p *Position) UnrealizedPnL(lastPx money.Price) decimal.Decimal {
	if p.SignedQty.IsZero() {
		return decimal.Zero
	}
	if p.Side() == Long {
		return p.SignedQty.Mul(lastPx.Decimal().Sub(p.AvgEntryPx.Decimal()))
	}
	return p.SignedQty.Abs().Mul(p.AvgEntryPx.Decimal().Sub(lastPx.Decimal()))
}

// TotalRealizedPnL sums realized PnL across all currencies it was booked
// in — callers that need currency-separated figures should read
// RealizedPnL directly.
func (p *Position) TotalRealizedPnL() decimal.Decimal {
	total := decimal.Zero
	for _, v := range p.RealizedPnL {
		total = total.Add(v)
	}
	return total
}
