// Package ids defines the nominal identifier types shared across the
// backtesting kernel. Each identifier wraps a non-empty string together
// with its kind, so that two identifiers built from equal strings but
// different kinds never compare equal and never collide as map keys.
package ids

import (
	"fmt"
	"strings"
)

// kind discriminates identifier types that would otherwise share the same
// underlying string representation.
type kind uint8

const (
	kindSymbol kind = iota + 1
	kindVenue
	kindInstrument
	kindClientOrderID
	kindVenueOrderID
	kindPositionID
	kindTradeID
	kindStrategyID
	kindAccountID
)

// id is the common representation backing every exported identifier type.
// Because kind is part of the struct, Go's built-in struct equality and map
// hashing automatically satisfy the "distinct kinds never collide" invariant.
type id struct {
	kind  kind
	value string
}

func newID(k kind, value string) id {
	if value == "" {
		panic(fmt.Sprintf("ids: empty value for kind %d", k))
	}
	return id{kind: k, value: value}
}

func (i id) String() string { return i.value }

// Symbol identifies a tradable instrument within a venue, e.g. "AAPL" or
// "BTC-PERP".
type Symbol struct{ id }

func NewSymbol(s string) Symbol { return Symbol{newID(kindSymbol, s)} }

// Venue identifies a simulated trading venue, e.g. "SIM".
type Venue struct{ id }

func NewVenue(s string) Venue { return Venue{newID(kindVenue, s)} }

// InstrumentId is the composite "symbol.venue" identifier, where the venue
// is the substring after the final '.'.
type InstrumentId struct {
	id
	symbol Symbol
	venue  Venue
}

// NewInstrumentId builds an InstrumentId directly from its parts.
func NewInstrumentId(symbol Symbol, venue Venue) InstrumentId {
	s := symbol.String() + "." + venue.String()
	return InstrumentId{id: newID(kindInstrument, s), symbol: symbol, venue: venue}
}

// ParseInstrumentId parses "symbol.venue", splitting on the final '.'.
func ParseInstrumentId(s string) (InstrumentId, error) {
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return InstrumentId{}, fmt.Errorf("ids: invalid instrument id %q", s)
	}
	symbol := s[:idx]
	venue := s[idx+1:]
	return NewInstrumentId(NewSymbol(symbol), NewVenue(venue)), nil
}

func (i InstrumentId) Symbol() Symbol { return i.symbol }
func (i InstrumentId) Venue() Venue { return i.venue }

// ClientOrderId is the strategy-assigned order identifier, conventionally
// formatted as "O-{strategy_id}-{n}" by the order factory.
type ClientOrderId struct{ id }

func NewClientOrderId(s string) ClientOrderId { return ClientOrderId{newID(kindClientOrderID, s)} }

// VenueOrderId is the venue-assigned order identifier, formatted
// "V-{venue}-{n}" by the matching engine's per-venue counter.
type VenueOrderId struct{ id }

func NewVenueOrderId(s string) VenueOrderId { return VenueOrderId{newID(kindVenueOrderID, s)} }

// PositionId identifies a position within the cache.
type PositionId struct{ id }

func NewPositionId(s string) PositionId { return PositionId{newID(kindPositionID, s)} }

// TradeId is the venue-assigned fill identifier, formatted "T-{venue}-{n}".
type TradeId struct{ id }

func NewTradeId(s string) TradeId { return TradeId{newID(kindTradeID, s)} }

// StrategyId identifies a registered strategy instance.
type StrategyId struct{ id }

func NewStrategyId(s string) StrategyId { return StrategyId{newID(kindStrategyID, s)} }

// AccountId identifies the one account a venue owns; the backtest driver
// names it "{venue}-ACCOUNT".
type AccountId struct{ id }

func NewAccountId(s string) AccountId { return AccountId{newID(kindAccountID, s)} }
