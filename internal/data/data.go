// Package data defines the market-data value types the kernel consumes:
// bars, quotes, trades, and their type descriptors. All timestamps are
// signed integer nanoseconds since a fixed epoch (UnixNano-compatible).
package data

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
)

// PriceType is the OHLC field a bar aggregates (last trade, bid, ask, mid).
type PriceType uint8

const (
	PriceLast PriceType = iota
	PriceBid
	PriceAsk
	PriceMid
)

func (p PriceType) String() string {
	switch p {
	case PriceLast:
		return "LAST"
	case PriceBid:
		return "BID"
	case PriceAsk:
		return "ASK"
	case PriceMid:
		return "MID"
	default:
		return "UNKNOWN"
	}
}

// Aggregation is the bar aggregation method. Only time-based aggregation
// is defined — matching is driven off time-aggregated bars alone.
type Aggregation uint8

const (
	AggregationSecond Aggregation = iota
	AggregationMinute
	AggregationHour
	AggregationDay
)

// BarSpec is the immutable, hashable (step, aggregation, price_type) triple.
type BarSpec struct {
	Step        uint64
	Aggregation Aggregation
	PriceType   PriceType
}

func (s BarSpec) String() string {
	agg := map[Aggregation]string{
		AggregationSecond: "SECOND",
		AggregationMinute: "MINUTE",
		AggregationHour:   "HOUR",
		AggregationDay:    "DAY",
	}[s.Aggregation]
	return fmt.Sprintf("%d-%s-%s", s.Step, agg, s.PriceType)
}

// BarType is the immutable, hashable (InstrumentId, BarSpec) pair. Its
// string form matches the bus topic grammar:
// "{symbol}.{venue}-{step}-{aggregation}-{price_type}".
type BarType struct {
	InstrumentId ids.InstrumentId
	Spec         BarSpec
}

func (bt BarType) String() string {
	return fmt.Sprintf("%s-%s", bt.InstrumentId, bt.Spec)
}

// Bar is an OHLCV aggregate for a fixed time window.
type Bar struct {
	BarType  BarType
	Open     money.Price
	High     money.Price
	Low      money.Price
	Close    money.Price
	Volume   money.Quantity
	TsEvent  int64
	TsInit   int64
}

func (b Bar) InstrumentId() ids.InstrumentId { return b.BarType.InstrumentId }

// QuoteTick is a top-of-book bid/ask snapshot.
type QuoteTick struct {
	InstrumentId ids.InstrumentId
	BidPrice     money.Price
	AskPrice     money.Price
	BidSize      money.Quantity
	AskSize      money.Quantity
	TsEvent      int64
	TsInit       int64
}

// AggressorSide identifies which side of a trade initiated it.
type AggressorSide uint8

const (
	AggressorNone AggressorSide = iota
	AggressorBuyer
	AggressorSeller
)

// TradeTick is a single executed trade observed in the market data feed.
type TradeTick struct {
	InstrumentId  ids.InstrumentId
	Price         money.Price
	Size          money.Quantity
	AggressorSide AggressorSide
	TradeId       string
	TsEvent       int64
	TsInit        int64
}

// Record is the common interface implemented by Bar, QuoteTick, and
// TradeTick so the driver can sort and dispatch a merged stream without
// knowing the concrete record kind up front.
type Record interface {
	EventTimeNs() int64
}

func (b Bar) EventTimeNs() int64 { return b.TsEvent }
func (q QuoteTick) EventTimeNs() int64 { return q.TsEvent }
func (t TradeTick) EventTimeNs() int64 { return t.TsEvent }
