// Package money implements the exact-decimal value types used throughout
// the backtesting kernel: Currency, Price, Quantity, Money and
// AccountBalance. All arithmetic goes through github.com/shopspring/decimal
// so that no monetary state is ever represented as a float64.
package money

// CurrencyKind distinguishes fiat currencies from crypto assets.
type CurrencyKind uint8

const (
	Fiat CurrencyKind = iota
	Crypto
)

// Currency is immutable; equality is by code alone.
type Currency struct {
	Code      string
	Precision uint8
	Kind      CurrencyKind
}

// NewCurrency constructs a Currency. Precision is the number of decimal
// places native to the currency (e.g. 2 for USD, 8 for BTC).
func NewCurrency(code string, precision uint8, kind CurrencyKind) Currency {
	return Currency{Code: code, Precision: precision, Kind: kind}
}

// Equal reports whether two currencies share the same code.
func (c Currency) Equal(other Currency) bool { return c.Code == other.Code }

func (c Currency) String() string { return c.Code }

var (
	USD = NewCurrency("USD", 2, Fiat)
	USDC = NewCurrency("USDC", 6, Crypto)
	BTC = NewCurrency("BTC", 8, Crypto)
	ETH = NewCurrency("ETH", 8, Crypto)
)
