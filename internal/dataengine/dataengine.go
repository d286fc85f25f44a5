// Package dataengine implements the data engine: the single entry point
// market data passes through on its way into the cache
// and out onto the message bus. Every bar, quote, and trade the backtest
// driver feeds in is appended to the cache first, then published, so
// subscribers reading the cache mid-callback always see the record that
// triggered them.
package dataengine

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/bus"
	"github.com/GoPolymarket/backtest-core/internal/cache"
	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/ids"
)

// DataEngine wires incoming market data into the cache and the bus.
type DataEngine struct {
	cache *cache.Cache
	bus   *bus.MessageBus
}

func New(c *cache.Cache, b *bus.MessageBus) *DataEngine {
	return &DataEngine{cache: c, bus: b}
}

// ProcessBar appends b to the cache and publishes it on
// "data.bars.{bar_type}".
func (e *DataEngine) ProcessBar(b data.Bar) {
	e.cache.AddBar(b)
	e.bus.Publish(barTopic(b.BarType), b)
}

// ProcessQuote appends q to the cache and publishes it on
// "data.quotes.{instrument_id}".
func (e *DataEngine) ProcessQuote(q data.QuoteTick) {
	e.cache.AddQuote(q)
	e.bus.Publish(quoteTopic(q.InstrumentId), q)
}

// ProcessTrade appends tr to the cache and publishes it on
// "data.trades.{instrument_id}".
func (e *DataEngine) ProcessTrade(tr data.TradeTick) {
	e.cache.AddTrade(tr)
	e.bus.Publish(tradeTopic(tr.InstrumentId), tr)
}

// SubscribeBars proxies a subscription to a bar type's topic.
func (e *DataEngine) SubscribeBars(bt data.BarType, handler bus.Handler) *bus.Subscription {
	return e.bus.Subscribe(barTopic(bt), handler)
}

// SubscribeQuotes proxies a subscription to an instrument's quote topic.
func (e *DataEngine) SubscribeQuotes(instrumentId ids.InstrumentId, handler bus.Handler) *bus.Subscription {
	return e.bus.Subscribe(quoteTopic(instrumentId), handler)
}

// SubscribeTrades proxies a subscription to an instrument's trade topic.
func (e *DataEngine) SubscribeTrades(instrumentId ids.InstrumentId, handler bus.Handler) *bus.Subscription {
	return e.bus.Subscribe(tradeTopic(instrumentId), handler)
}

// Unsubscribe removes a subscription returned by any of the Subscribe* methods.
func (e *DataEngine) Unsubscribe(sub *bus.Subscription) {
	e.bus.Unsubscribe(sub)
}

func barTopic(bt data.BarType) string {
	return fmt.Sprintf("data.bars.%s", bt)
}

func quoteTopic(instrumentId ids.InstrumentId) string {
	return fmt.Sprintf("data.quotes.%s", instrumentId)
}

func tradeTopic(instrumentId ids.InstrumentId) string {
	return fmt.Sprintf("data.trades.%s", instrumentId)
}
