package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is a fixed-precision exact decimal, quantized half-up at
// construction. Unlike Quantity it may be negative (e.g. an options
// instrument's theoretical price is not modeled here, but nothing in the
// value type itself forbids it — callers that need price > 0 check it
// explicitly, as the risk engine does for limit/stop orders).
type Price struct {
	value     decimal.Decimal
	precision uint8
}

// NewPrice quantizes value to precision decimal places using half-up
// rounding.
func NewPrice(value decimal.Decimal, precision uint8) Price {
	return Price{value: value.Round(int32(precision)), precision: precision}
}

// NewPriceFromString parses a decimal string and quantizes it.
func NewPriceFromString(s string, precision uint8) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("money: invalid price %q: %w", s, err)
	}
	return NewPrice(d, precision), nil
}

// NewPriceFromFloat quantizes a float64 into a Price. Reserved for test
// fixtures and bar/tick ingestion boundaries; never used in a
// state-mutating path.
func NewPriceFromFloat(f float64, precision uint8) Price {
	return NewPrice(decimal.NewFromFloat(f), precision)
}

func (p Price) Decimal() decimal.Decimal { return p.value }
func (p Price) Precision() uint8 { return p.precision }
func (p Price) String() string { return p.value.StringFixed(int32(p.precision)) }

func (p Price) Add(other Price) Price { return NewPrice(p.value.Add(other.value), p.precision) }
func (p Price) Sub(other Price) Price { return NewPrice(p.value.Sub(other.value), p.precision) }

func (p Price) GreaterThan(other Price) bool { return p.value.GreaterThan(other.value) }
func (p Price) GreaterThanOrEqual(o Price) bool { return p.value.GreaterThanOrEqual(o.value) }
func (p Price) LessThan(other Price) bool { return p.value.LessThan(other.value) }
func (p Price) LessThanOrEqual(other Price) bool { return p.value.LessThanOrEqual(other.value) }
func (p Price) Equal(other Price) bool { return p.value.Equal(other.value) }
func (p Price) IsPositive() bool { return p.value.IsPositive() }
func (p Price) IsZero() bool { return p.value.IsZero() }

// MinPrice/MaxPrice support the matching engine's fill-price policy
// (min/max against the bar's open).
func MinPrice(a, b Price) Price {
	if a.value.LessThanOrEqual(b.value) {
		return a
	}
	return b
}

func MaxPrice(a, b Price) Price {
	if a.value.GreaterThanOrEqual(b.value) {
		return a
	}
	return b
}
