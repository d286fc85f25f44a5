package strategy

import (
	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/shopspring/decimal"
)

// MakerConfig parameterizes Maker: min spread width, inventory skew, and
// an inventory cap, all against a per-bar mid rather than a live
// order-book mid.
type MakerConfig struct {
	InstrumentId ids.InstrumentId

	// MinSpread is the minimum full spread width around the bar's mid, in
	// price units (not bps) — the simplification the bar-driven kernel
	// allows since there is no live order book to measure bps against.
	MinSpread decimal.Decimal
	// InventorySkew widens the spread on the side that would increase an
	// already-large inventory.
	InventorySkew decimal.Decimal
	// MaxInventory caps the absolute signed quantity Maker will quote
	// into before it stops adding to the book on that side.
	MaxInventory money.Quantity
	OrderSize    money.Quantity
}

// Maker is a reference inventory-aware market-making strategy: it quotes
// a paired bid/ask around the current bar's mid, widening the spread on
// whichever side would grow an already-large inventory.
type Maker struct {
	*Base
	cfg MakerConfig
}

func NewMaker(id ids.StrategyId, cfg MakerConfig) *Maker {
	return &Maker{Base: NewBase(id), cfg: cfg}
}

func (m *Maker) OnStart() {
	bt := data.BarType{InstrumentId: m.cfg.InstrumentId, Spec: data.BarSpec{Step: 1, Aggregation: data.AggregationMinute, PriceType: data.PriceLast}}
	m.SubscribeBars(bt, m.onBar)
}

func (m *Maker) onBar(bar data.Bar) {
	mid := bar.High.Add(bar.Low).Decimal().Div(decimal.NewFromInt(2))
	inventory := m.currentSignedQty()

	halfSpread := m.cfg.MinSpread.Div(decimal.NewFromInt(2))
	skew := m.cfg.InventorySkew.Mul(inventory)

	bidPrice := money.NewPrice(mid.Sub(halfSpread).Sub(skew), bar.Close.Precision())
	askPrice := money.NewPrice(mid.Add(halfSpread).Sub(skew), bar.Close.Precision())

	if m.cfg.MaxInventory.IsZero() || inventory.LessThan(m.cfg.MaxInventory.Decimal()) {
		m.SubmitLimitOrder(m.cfg.InstrumentId, order.Buy, m.cfg.OrderSize, bidPrice)
	}
	if m.cfg.MaxInventory.IsZero() || inventory.Neg().LessThan(m.cfg.MaxInventory.Decimal()) {
		m.SubmitLimitOrder(m.cfg.InstrumentId, order.Sell, m.cfg.OrderSize, askPrice)
	}
}

func (m *Maker) currentSignedQty() decimal.Decimal {
	pos, ok := m.Cache().OpenPositionForInstrumentStrategy(m.cfg.InstrumentId, m.Id())
	if !ok {
		return decimal.Zero
	}
	return pos.SignedQty
}
