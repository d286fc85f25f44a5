// Package instrument defines the tradable-instrument variants and the
// capability set they share.
package instrument

import (
	"fmt"
	"time"

	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/shopspring/decimal"
)

// Kind discriminates the closed set of instrument variants.
type Kind uint8

const (
	Equity Kind = iota
	CurrencyPair
	CryptoPerpetual
	FuturesContract
	OptionsContract
)

// Common is the capability set every instrument variant shares.
type Common struct {
	Id             ids.InstrumentId
	QuoteCurrency  money.Currency
	PricePrecision uint8
	SizePrecision  uint8
	PriceIncrement decimal.Decimal
	SizeIncrement  decimal.Decimal
	Multiplier     decimal.Decimal
	LotSize        decimal.Decimal
	MakerFee       decimal.Decimal
	TakerFee       decimal.Decimal
	MinQuantity    money.Quantity
	MaxQuantity    money.Quantity
	MinPrice       *money.Price
	MaxPrice       *money.Price
}

// Instrument wraps Common plus any variant-specific fields, discriminated
// by Kind. Variant-specific fields are nil/zero unless Kind selects them.
type Instrument struct {
	Kind   Kind
	Common Common

	// CurrencyPair / CryptoPerpetual / FuturesContract / OptionsContract
	SettlementCurrency *money.Currency
	// FuturesContract / OptionsContract
	Expiry *time.Time
	// OptionsContract
	StrikePrice *money.Price
	IsCall      bool
}

func NewEquity(common Common) Instrument {
	return Instrument{Kind: Equity, Common: common}
}

func NewCurrencyPair(common Common, settlement money.Currency) Instrument {
	return Instrument{Kind: CurrencyPair, Common: common, SettlementCurrency: &settlement}
}

func NewCryptoPerpetual(common Common, settlement money.Currency) Instrument {
	return Instrument{Kind: CryptoPerpetual, Common: common, SettlementCurrency: &settlement}
}

func NewFuturesContract(common Common, settlement money.Currency, expiry time.Time) Instrument {
	return Instrument{Kind: FuturesContract, Common: common, SettlementCurrency: &settlement, Expiry: &expiry}
}

func NewOptionsContract(common Common, settlement money.Currency, expiry time.Time, strike money.Price, isCall bool) Instrument {
	return Instrument{
		Kind:               OptionsContract,
		Common:             common,
		SettlementCurrency: &settlement,
		Expiry:             &expiry,
		StrikePrice:        &strike,
		IsCall:             isCall,
	}
}

// CheckPrice validates that a Price was built at this instrument's price
// precision — every Price/Quantity created for an instrument must match
// its precisions.
func (i Instrument) CheckPrice(p money.Price) error {
	if p.Precision() != i.Common.PricePrecision {
		return fmt.Errorf("instrument %s: price precision %d does not match instrument precision %d",
			i.Common.Id, p.Precision(), i.Common.PricePrecision)
	}
	return nil
}

// CheckQuantity validates that a Quantity was built at this instrument's
// size precision.
func (i Instrument) CheckQuantity(q money.Quantity) error {
	if q.Precision() != i.Common.SizePrecision {
		return fmt.Errorf("instrument %s: size precision %d does not match instrument precision %d",
			i.Common.Id, q.Precision(), i.Common.SizePrecision)
	}
	return nil
}

// Notional computes price * quantity * multiplier.
func (i Instrument) Notional(price money.Price, qty money.Quantity) decimal.Decimal {
	mult := i.Common.Multiplier
	if mult.IsZero() {
		mult = decimal.NewFromInt(1)
	}
	return price.Decimal().Mul(qty.Decimal()).Mul(mult)
}
