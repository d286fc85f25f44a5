// Package cache implements the in-memory state store: the single source
// of truth for orders, positions, accounts, and market data,
// plus the secondary indexes (by venue, by strategy, by instrument) the
// rest of the kernel queries. Every index is backed by an insertion-ordered
// slice alongside a map, so iteration is always deterministic — no bare Go
// map ranging is exposed to callers.
package cache

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/account"
	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/instrument"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/GoPolymarket/backtest-core/internal/position"
)

// orderedSet tracks unique ids.id-like string keys in first-seen order.
type orderedSet struct {
	seen  map[string]bool
	order []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(key string) {
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.order = append(s.order, key)
}

func (s *orderedSet) keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Cache is the kernel's state store. Nothing in it is safe for concurrent
// use, matching the single-threaded execution model.
type Cache struct {
	orders         map[string]*order.Order
	orderKeys      []string
	positions      map[string]*position.Position
	positionKeys   []string
	accounts       map[string]*account.Account
	instruments    map[string]instrument.Instrument
	instrumentKeys []string

	ordersByVenue      map[string]*orderedSet
	ordersByStrategy   map[string]*orderedSet
	ordersByInstrument map[string]*orderedSet

	positionsByVenue      map[string]*orderedSet
	positionsByStrategy   map[string]*orderedSet
	positionsByInstrument map[string]*orderedSet

	bars      map[string][]data.Bar
	barKeys   []string
	quotes    map[string][]data.QuoteTick
	quoteKeys []string
	trades    map[string][]data.TradeTick
	tradeKeys []string
}

func New() *Cache {
	return &Cache{
		orders:      make(map[string]*order.Order),
		positions:   make(map[string]*position.Position),
		accounts:    make(map[string]*account.Account),
		instruments: make(map[string]instrument.Instrument),

		ordersByVenue:      make(map[string]*orderedSet),
		ordersByStrategy:   make(map[string]*orderedSet),
		ordersByInstrument: make(map[string]*orderedSet),

		positionsByVenue:      make(map[string]*orderedSet),
		positionsByStrategy:   make(map[string]*orderedSet),
		positionsByInstrument: make(map[string]*orderedSet),

		bars:   make(map[string][]data.Bar),
		quotes: make(map[string][]data.QuoteTick),
		trades: make(map[string][]data.TradeTick),
	}
}

// AddOrder inserts or replaces an order and refreshes its index entries.
func (c *Cache) AddOrder(o *order.Order, venue ids.Venue) {
	key := o.ClientOrderId.String()
	if _, exists := c.orders[key]; !exists {
		c.orderKeys = append(c.orderKeys, key)
	}
	c.orders[key] = o

	c.index(c.ordersByVenue, venue.String(), key)
	c.index(c.ordersByStrategy, o.StrategyId.String(), key)
	c.index(c.ordersByInstrument, o.InstrumentId.String(), key)
}

func (c *Cache) index(m map[string]*orderedSet, bucket, key string) {
	s, ok := m[bucket]
	if !ok {
		s = newOrderedSet()
		m[bucket] = s
	}
	s.add(key)
}

// Order looks up an order by client order id.
func (c *Cache) Order(clientOrderId ids.ClientOrderId) (*order.Order, bool) {
	o, ok := c.orders[clientOrderId.String()]
	return o, ok
}

// Orders returns every order in insertion order.
func (c *Cache) Orders() []*order.Order {
	out := make([]*order.Order, 0, len(c.orderKeys))
	for _, k := range c.orderKeys {
		out = append(out, c.orders[k])
	}
	return out
}

func (c *Cache) OrdersForVenue(venue ids.Venue) []*order.Order { return c.lookupOrders(c.ordersByVenue, venue.String()) }
func (c *Cache) OrdersForStrategy(strategyId ids.StrategyId) []*order.Order {
	return c.lookupOrders(c.ordersByStrategy, strategyId.String())
}
func (c *Cache) OrdersForInstrument(instrumentId ids.InstrumentId) []*order.Order {
	return c.lookupOrders(c.ordersByInstrument, instrumentId.String())
}

func (c *Cache) lookupOrders(m map[string]*orderedSet, bucket string) []*order.Order {
	s, ok := m[bucket]
	if !ok {
		return nil
	}
	out := make([]*order.Order, 0, len(s.order))
	for _, key := range s.keys() {
		if o, ok := c.orders[key]; ok {
			out = append(out, o)
		}
	}
	return out
}

// AddPosition inserts or replaces a position and refreshes its index entries.
func (c *Cache) AddPosition(p *position.Position, venue ids.Venue) {
	key := p.Id.String()
	if _, exists := c.positions[key]; !exists {
		c.positionKeys = append(c.positionKeys, key)
	}
	c.positions[key] = p

	c.index(c.positionsByVenue, venue.String(), key)
	c.index(c.positionsByStrategy, p.StrategyId.String(), key)
	c.index(c.positionsByInstrument, p.InstrumentId.String(), key)
}

func (c *Cache) Position(id ids.PositionId) (*position.Position, bool) {
	p, ok := c.positions[id.String()]
	return p, ok
}

func (c *Cache) Positions() []*position.Position {
	out := make([]*position.Position, 0, len(c.positionKeys))
	for _, k := range c.positionKeys {
		out = append(out, c.positions[k])
	}
	return out
}

func (c *Cache) PositionsForStrategy(strategyId ids.StrategyId) []*position.Position {
	return c.lookupPositions(c.positionsByStrategy, strategyId.String())
}

func (c *Cache) PositionsForInstrument(instrumentId ids.InstrumentId) []*position.Position {
	return c.lookupPositions(c.positionsByInstrument, instrumentId.String())
}

func (c *Cache) lookupPositions(m map[string]*orderedSet, bucket string) []*position.Position {
	s, ok := m[bucket]
	if !ok {
		return nil
	}
	out := make([]*position.Position, 0, len(s.order))
	for _, key := range s.keys() {
		if p, ok := c.positions[key]; ok {
			out = append(out, p)
		}
	}
	return out
}

// OpenPositionForInstrumentStrategy returns the single non-closed position
// held by strategyId in instrumentId, if any — the NETTING lookup used by
// the execution engine.
func (c *Cache) OpenPositionForInstrumentStrategy(instrumentId ids.InstrumentId, strategyId ids.StrategyId) (*position.Position, bool) {
	for _, p := range c.PositionsForInstrument(instrumentId) {
		if p.StrategyId.String() == strategyId.String() && !p.IsClosed() {
			return p, true
		}
	}
	return nil, false
}

// AddInstrument registers an instrument. Returns false if the instrument
// was already registered (a ConfigurationError at the driver's setup-time
// call site).
func (c *Cache) AddInstrument(instr instrument.Instrument) bool {
	key := instr.Common.Id.String()
	if _, exists := c.instruments[key]; exists {
		return false
	}
	c.instruments[key] = instr
	c.instrumentKeys = append(c.instrumentKeys, key)
	return true
}

// Instrument looks up an instrument by id.
func (c *Cache) Instrument(id ids.InstrumentId) (instrument.Instrument, bool) {
	instr, ok := c.instruments[id.String()]
	return instr, ok
}

// Instruments returns every registered instrument in registration order.
func (c *Cache) Instruments() []instrument.Instrument {
	out := make([]instrument.Instrument, 0, len(c.instrumentKeys))
	for _, k := range c.instrumentKeys {
		out = append(out, c.instruments[k])
	}
	return out
}

// AddAccount registers an account under its venue-scoped id.
func (c *Cache) AddAccount(a *account.Account) {
	c.accounts[a.Id.String()] = a
}

func (c *Cache) Account(id ids.AccountId) (*account.Account, bool) {
	a, ok := c.accounts[id.String()]
	return a, ok
}

// AddBar appends a bar to its BarType's ordered series.
func (c *Cache) AddBar(b data.Bar) {
	key := b.BarType.String()
	if _, exists := c.bars[key]; !exists {
		c.barKeys = append(c.barKeys, key)
	}
	c.bars[key] = append(c.bars[key], b)
}

// Bars returns the ordered bar series for a BarType.
func (c *Cache) Bars(bt data.BarType) []data.Bar {
	return c.bars[bt.String()]
}

// LatestBar returns the most recent bar for a BarType, if any.
func (c *Cache) LatestBar(bt data.BarType) (data.Bar, bool) {
	series := c.bars[bt.String()]
	if len(series) == 0 {
		return data.Bar{}, false
	}
	return series[len(series)-1], true
}

// AddQuote appends a quote to its instrument's ordered series.
func (c *Cache) AddQuote(q data.QuoteTick) {
	key := q.InstrumentId.String()
	if _, exists := c.quotes[key]; !exists {
		c.quoteKeys = append(c.quoteKeys, key)
	}
	c.quotes[key] = append(c.quotes[key], q)
}

func (c *Cache) Quotes(instrumentId ids.InstrumentId) []data.QuoteTick {
	return c.quotes[instrumentId.String()]
}

func (c *Cache) LatestQuote(instrumentId ids.InstrumentId) (data.QuoteTick, bool) {
	series := c.quotes[instrumentId.String()]
	if len(series) == 0 {
		return data.QuoteTick{}, false
	}
	return series[len(series)-1], true
}

// AddTrade appends a trade to its instrument's ordered series.
func (c *Cache) AddTrade(tr data.TradeTick) {
	key := tr.InstrumentId.String()
	if _, exists := c.trades[key]; !exists {
		c.tradeKeys = append(c.tradeKeys, key)
	}
	c.trades[key] = append(c.trades[key], tr)
}

func (c *Cache) Trades(instrumentId ids.InstrumentId) []data.TradeTick {
	return c.trades[instrumentId.String()]
}

func (c *Cache) LatestTrade(instrumentId ids.InstrumentId) (data.TradeTick, bool) {
	series := c.trades[instrumentId.String()]
	if len(series) == 0 {
		return data.TradeTick{}, false
	}
	return series[len(series)-1], true
}

// ErrNotFound is a not-found sentinel error. Cache's own accessors use the
// (value, ok) idiom and never return it, and no other kernel package
// returns it either.
var ErrNotFound = fmt.Errorf("cache: not found")
